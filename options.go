package streamcfg

import "time"

// Options aggregates the stream-scoped configuration fragments that travel
// through cluster metadata: the data lifecycle and the failure store. Each
// leaf is independently optional. Options is a value type: immutable once
// constructed and structurally comparable with ==.
type Options struct {
	Lifecycle    Optional[Lifecycle]
	FailureStore Optional[FailureStore]
}

// Lifecycle configures retention behaviour for the main data stream.
type Lifecycle struct {
	Enabled   Optional[bool]
	Retention Optional[time.Duration]
}

// FailureStore configures the side store that captures documents rejected by
// the main stream.
type FailureStore struct {
	Enabled   Optional[bool]
	Retention Optional[time.Duration]
}

// IsEmpty reports whether the fragment carries no opinion at all.
func (o Options) IsEmpty() bool {
	return o == Options{}
}

// merge resolves o (stronger) over low (weaker) leaf by leaf. Nested
// fragments recurse structurally, so an explicit lifecycle at the top layer
// still inherits child leaves its author left unset.
func (o Options) merge(low Options) Options {
	return Options{
		Lifecycle:    ResolveWith(o.Lifecycle, low.Lifecycle, Lifecycle.merge),
		FailureStore: ResolveWith(o.FailureStore, low.FailureStore, FailureStore.merge),
	}
}

// resolved collapses the authoring states to Present/Absent without another
// layer involved.
func (o Options) resolved() Options {
	return o.merge(Options{})
}

func (l Lifecycle) merge(low Lifecycle) Lifecycle {
	return Lifecycle{
		Enabled:   Resolve(l.Enabled, low.Enabled),
		Retention: Resolve(l.Retention, low.Retention),
	}
}

func (f FailureStore) merge(low FailureStore) FailureStore {
	return FailureStore{
		Enabled:   Resolve(f.Enabled, low.Enabled),
		Retention: Resolve(f.Retention, low.Retention),
	}
}
