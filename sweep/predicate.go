package sweep

import (
	"strconv"
	"strings"

	"github.com/yairfalse/harava/types"
)

// Predicate decides whether one resource qualifies for mutation.
// Implementations must be pure functions of the resource: no provider
// calls, no hidden state, so a sweep is deterministic given a fixed
// inventory snapshot.
type Predicate interface {
	Qualifies(r types.Resource) bool
}

// PredicateFunc adapts a plain function to a Predicate.
type PredicateFunc func(types.Resource) bool

func (f PredicateFunc) Qualifies(r types.Resource) bool { return f(r) }

// HasNoTags qualifies resources whose tag count is exactly zero.
// Resources missing the tag_count attribute do not qualify.
func HasNoTags() Predicate {
	return PredicateFunc(func(r types.Resource) bool {
		n, err := strconv.Atoi(r.Attr(types.AttrTagCount))
		return err == nil && n == 0
	})
}

// IsMutable qualifies repositories whose tag mutability is MUTABLE.
func IsMutable() Predicate {
	return HasMutability("MUTABLE")
}

// HasMutability qualifies repositories currently in the given
// tag mutability mode.
func HasMutability(mode string) Predicate {
	return PredicateFunc(func(r types.Resource) bool {
		return r.Attr(types.AttrTagMutability) == mode
	})
}

// All qualifies every resource.
func All() Predicate {
	return PredicateFunc(func(types.Resource) bool { return true })
}

// MatchPrefix reports whether name starts with prefix: case-sensitive,
// exact match at position 0. Providers that cannot push the prefix
// filter server-side apply this client-side.
func MatchPrefix(name, prefix string) bool {
	return strings.HasPrefix(name, prefix)
}
