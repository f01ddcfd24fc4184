// Package roles infers the narrative role of each table-of-contents entry
// with a small hidden Markov model decoded by Viterbi.
package roles

import (
	"fmt"
	"strings"
)

// Role is the narrative role of a chapter. Roles are declared in reading
// order; Rank gives the order used for monotonicity, where several roles may
// share a rank.
type Role int

const (
	Cover Role = iota
	BeforeExtra
	Foreword
	Contents
	Prologue
	PartTitle
	Main
	Interlude
	Epilogue
	BonusChapter
	Afterword
	AfterExtra
	Copyright
)

// NumRoles is the number of states in the model.
const NumRoles = int(Copyright) + 1

var roleNames = [NumRoles]string{
	"cover",
	"before_extra",
	"foreword",
	"contents",
	"prologue",
	"part_title",
	"main",
	"interlude",
	"epilogue",
	"bonus_chapter",
	"afterword",
	"after_extra",
	"copyright",
}

var ranks = [NumRoles]int{0, 1, 1, 1, 2, 3, 4, 5, 6, 7, 8, 8, 9}

func (r Role) String() string {
	if r < 0 || int(r) >= NumRoles {
		return fmt.Sprintf("role(%d)", int(r))
	}
	return roleNames[r]
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	return r >= 0 && int(r) < NumRoles
}

// Rank returns the position of r in the narrative order.
func (r Role) Rank() int {
	return ranks[r]
}

// IsSkip reports whether chapters of this role are front or back matter and
// are left out of the text output.
func (r Role) IsSkip() bool {
	switch r {
	case Prologue, Main, Interlude, Epilogue, BonusChapter:
		return false
	default:
		return true
	}
}

// inBodyCycle reports whether r belongs to the part/chapter/interlude group,
// which may repeat in any order.
func (r Role) inBodyCycle() bool {
	return r == PartTitle || r == Main || r == Interlude
}

// Permits reports whether a chapter of role to may follow one of role from.
func Permits(from, to Role) bool {
	if to.Rank() >= from.Rank() {
		return true
	}
	return from.inBodyCycle() && to.inBodyCycle()
}

// All returns every role in declaration order.
func All() []Role {
	out := make([]Role, NumRoles)
	for i := range out {
		out[i] = Role(i)
	}
	return out
}

// Parse converts a role name as written by String back into a Role.
func Parse(s string) (Role, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range roleNames {
		if n == name {
			return Role(i), nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// MarshalText implements encoding.TextMarshaler so roles read naturally in
// YAML configuration.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("unknown role %d", int(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Role) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
