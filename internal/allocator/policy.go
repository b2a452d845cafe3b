package allocator

import (
	"fmt"
	"strings"
)

// Policy selects how a stage is chosen among the stages available to a show.
type Policy int

const (
	// DenseMainStage always picks the lowest-numbered free stage.
	DenseMainStage Policy = iota
	// Random picks uniformly among the free stages.
	Random
	// Popularity places shows tier by tier, highest priority first, and picks
	// the lowest-numbered free stage within a tier. It may need more stages
	// than the lower bound.
	Popularity
)

var policyNames = map[Policy]string{
	DenseMainStage: "dense",
	Random:         "random",
	Popularity:     "popularity",
}

// ParsePolicy accepts "dense", "dense_main_stage", "random" and
// "popularity", case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dense", "dense_main_stage", "densemainstage", "dense-main-stage":
		return DenseMainStage, nil
	case "random":
		return Random, nil
	case "popularity":
		return Popularity, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
}

// Valid reports whether p is one of the declared policies.
func (p Policy) Valid() bool {
	_, ok := policyNames[p]
	return ok
}

// Deterministic reports whether two runs on the same input always produce the
// same assignment.
func (p Policy) Deterministic() bool { return p != Random }

func (p Policy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("policy(%d)", int(p))
}

// MarshalText implements encoding.TextMarshaler.
func (p Policy) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPolicy, int(p))
	}
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Policy) UnmarshalText(b []byte) error {
	v, err := ParsePolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
