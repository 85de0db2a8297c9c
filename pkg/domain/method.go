package domain

import (
	"sort"
	"strings"

	dErrors "kioskgate/pkg/domain-errors"
)

// MethodKind names one verification method a kiosk can run.
type MethodKind string

const (
	MethodQR    MethodKind = "qr"
	MethodPIN   MethodKind = "pin"
	MethodPhoto MethodKind = "photo"
)

// MethodOrder is the canonical precedence in which enabled methods are
// requested from the kiosk. Policy resolution and session sequencing both
// follow this order.
var MethodOrder = []MethodKind{MethodQR, MethodPIN, MethodPhoto}

// ParseMethodKind validates a wire value.
func ParseMethodKind(raw string) (MethodKind, error) {
	switch MethodKind(strings.ToLower(strings.TrimSpace(raw))) {
	case MethodQR:
		return MethodQR, nil
	case MethodPIN:
		return MethodPIN, nil
	case MethodPhoto:
		return MethodPhoto, nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, "method must be one of: qr, pin, photo")
	}
}

func (m MethodKind) String() string { return string(m) }

// rank returns the canonical position, with unknown kinds sorted last.
func (m MethodKind) rank() int {
	for i, k := range MethodOrder {
		if k == m {
			return i
		}
	}
	return len(MethodOrder)
}

// SortMethods orders a method slice by canonical precedence, in place.
func SortMethods(methods []MethodKind) {
	sort.Slice(methods, func(i, j int) bool {
		return methods[i].rank() < methods[j].rank()
	})
}

// MethodSet is a set of method kinds with set semantics used by sessions
// (completed methods) and locations (enabled methods per direction).
type MethodSet map[MethodKind]struct{}

// NewMethodSet builds a set from the given kinds.
func NewMethodSet(kinds ...MethodKind) MethodSet {
	s := make(MethodSet, len(kinds))
	for _, k := range kinds {
		s[k] = struct{}{}
	}
	return s
}

func (s MethodSet) Has(kind MethodKind) bool {
	_, ok := s[kind]
	return ok
}

func (s MethodSet) Add(kind MethodKind) { s[kind] = struct{}{} }

func (s MethodSet) Len() int { return len(s) }

// Sorted returns the members in canonical precedence order.
func (s MethodSet) Sorted() []MethodKind {
	out := make([]MethodKind, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	SortMethods(out)
	return out
}

// Clone returns an independent copy of the set.
func (s MethodSet) Clone() MethodSet {
	out := make(MethodSet, len(s))
	for k := range s {
		out[k] = struct{}{}
	}
	return out
}
