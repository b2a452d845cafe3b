package lineup

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes a YAML lineup:
//
//	name: main-weekend
//	turnover: 1
//	shows:
//	  - {title: Opening, start: 1, end: 3, priority: 8}
//	  - {start: 2, end: 4}
func ParseYAML(r io.Reader) (*Lineup, error) {
	var l Lineup
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&l); err != nil {
		if err == io.EOF {
			return nil, ErrEmpty
		}
		return nil, fmt.Errorf("decode lineup: %w", err)
	}
	if len(l.Shows) == 0 {
		return nil, ErrEmpty
	}
	l.Number()
	return &l, nil
}

// WriteYAML encodes the lineup in the format ParseYAML reads.
func WriteYAML(w io.Writer, l *Lineup) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(l); err != nil {
		return err
	}
	return enc.Close()
}
