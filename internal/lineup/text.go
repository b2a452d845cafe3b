package lineup

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LineError reports a malformed line of a text lineup.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string { return fmt.Sprintf("line %d: %v", e.Line, e.Err) }

func (e *LineError) Unwrap() error { return e.Err }

// ParseText reads the text lineup format. Entries are numbered by position
// among the non-comment lines.
func ParseText(r io.Reader) (Entries, error) {
	var out Entries
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		e, err := parseLine(raw)
		if err != nil {
			return nil, &LineError{Line: line, Err: err}
		}
		e.ID = len(out) + 1
		out = append(out, e)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrEmpty
	}
	return out, nil
}

func parseLine(raw string) (Entry, error) {
	fields := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == ';'
	})
	// Leading integer fields are numbers; whatever follows is the title.
	var nums []int
	for _, f := range fields {
		if len(nums) == 3 {
			break
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			break
		}
		nums = append(nums, n)
	}
	title := strings.Join(fields[len(nums):], " ")

	var e Entry
	switch len(nums) {
	case 2:
		e = Entry{Start: nums[0], End: nums[1]}
	case 3:
		e = Entry{Priority: IntPtr(nums[0]), Start: nums[1], End: nums[2]}
	default:
		return Entry{}, fmt.Errorf("want \"[priority] start end [title]\", got %q", raw)
	}
	e.Title = title
	return e, nil
}

// WriteText writes entries back in the text format.
func WriteText(w io.Writer, entries Entries) error {
	for _, e := range entries {
		var err error
		switch {
		case e.Priority != nil && e.Title != "":
			_, err = fmt.Fprintf(w, "%d %d %d %s\n", *e.Priority, e.Start, e.End, e.Title)
		case e.Priority != nil:
			_, err = fmt.Fprintf(w, "%d %d %d\n", *e.Priority, e.Start, e.End)
		case e.Title != "":
			_, err = fmt.Fprintf(w, "%d %d %s\n", e.Start, e.End, e.Title)
		default:
			_, err = fmt.Fprintf(w, "%d %d\n", e.Start, e.End)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
