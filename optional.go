package streamcfg

// Optional wraps a configurable leaf with the tri-state tag that layered
// authoring requires: a layer can stay silent (Inherit), pin a concrete
// value (Explicit), or actively remove whatever lower layers provided
// (Cleared). The zero value is Inherit, so an empty fragment has no opinion
// about anything.
type Optional[T any] struct {
	state optionalState
	value T
}

type optionalState uint8

const (
	stateInherit optionalState = iota
	stateExplicit
	stateCleared
)

// Inherit returns a leaf with no opinion at this layer.
func Inherit[T any]() Optional[T] {
	return Optional[T]{}
}

// Explicit returns a leaf that pins value, overriding lower layers.
func Explicit[T any](value T) Optional[T] {
	return Optional[T]{state: stateExplicit, value: value}
}

// Cleared returns a leaf that removes any inherited value. After composition
// it reads as absent regardless of what lower layers set.
func Cleared[T any]() Optional[T] {
	return Optional[T]{state: stateCleared}
}

// IsExplicit reports whether the leaf pins a concrete value.
func (o Optional[T]) IsExplicit() bool {
	return o.state == stateExplicit
}

// IsCleared reports whether the leaf actively removes inherited values.
func (o Optional[T]) IsCleared() bool {
	return o.state == stateCleared
}

// IsInherit reports whether the leaf defers to the enclosing layer.
func (o Optional[T]) IsInherit() bool {
	return o.state == stateInherit
}

// Present reports whether a composed leaf resolved to a value. On authoring
// fragments it is equivalent to IsExplicit.
func (o Optional[T]) Present() bool {
	return o.state == stateExplicit
}

// Absent is the post-composition complement of Present: both Inherit and
// Cleared read as absent once layering is done.
func (o Optional[T]) Absent() bool {
	return o.state != stateExplicit
}

// Get returns the leaf value and whether it is present.
func (o Optional[T]) Get() (T, bool) {
	if o.state != stateExplicit {
		var zero T
		return zero, false
	}
	return o.value, true
}

// ValueOr returns the leaf value when present, fallback otherwise.
func (o Optional[T]) ValueOr(fallback T) T {
	if o.state != stateExplicit {
		return fallback
	}
	return o.value
}

// Resolve folds a higher-precedence leaf over the value resolved from lower
// layers. The fold is not commutative: callers must feed layers from weakest
// to strongest, pairwise.
//
//	Resolve(Inherit, low)     == low
//	Resolve(Explicit(v), low) == Explicit(v)
//	Resolve(Cleared, low)     == absent
func Resolve[T any](high, low Optional[T]) Optional[T] {
	switch high.state {
	case stateExplicit:
		return high
	case stateCleared:
		return Optional[T]{}
	default:
		return low.resolved()
	}
}

// ResolveWith behaves like Resolve for leaves whose value is itself a
// fragment: when both layers are explicit the children merge structurally
// instead of the higher value replacing the lower one wholesale. Children the
// higher author left absent inherit from the lower fragment.
func ResolveWith[T any](high, low Optional[T], merge func(high, low T) T) Optional[T] {
	switch high.state {
	case stateExplicit:
		// Merging against the zero fragment when low is absent still
		// resolves the children of high, collapsing any Cleared tags.
		lowValue, _ := low.Get()
		return Explicit(merge(high.value, lowValue))
	case stateCleared:
		return Optional[T]{}
	default:
		return low.resolved()
	}
}

// resolved collapses the authoring states to the two post-composition ones:
// Cleared becomes plain absence so resolved fragments compare structurally.
func (o Optional[T]) resolved() Optional[T] {
	if o.state == stateExplicit {
		return o
	}
	return Optional[T]{}
}
