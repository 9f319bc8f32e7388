package streamcfg

import "time"

// Builder is a short-lived, single-owner staging object that accumulates
// overrides from successive layers and materializes immutable snapshots.
// Nested fragment builders are owned by the parent and folded in at Build
// time; they never escape the builder's lifetime. A Builder is not safe for
// concurrent use.
type Builder struct {
	lifecycle    Optional[*LifecycleBuilder]
	failureStore Optional[*FailureStoreBuilder]
}

// NewBuilder returns an empty builder: every leaf starts absent.
func NewBuilder() *Builder {
	return &Builder{}
}

// NewBuilderFrom seeds a builder with the leaves present in options.
func NewBuilderFrom(options Options) *Builder {
	b := &Builder{}
	if lc, ok := options.Lifecycle.Get(); ok {
		b.lifecycle = Explicit(newLifecycleBuilder(lc))
	}
	if fs, ok := options.FailureStore.Get(); ok {
		b.failureStore = Explicit(newFailureStoreBuilder(fs))
	}
	return b
}

// Override composes fragment over the accumulated state. Silent leaves leave
// the builder untouched; explicit leaves merge into or replace accumulated
// ones; cleared leaves remove accumulated state. Note the asymmetry with the
// setters: overriding with an absent leaf is a no-op, while Set*(nil)
// forcibly clears.
func (b *Builder) Override(fragment Options) *Builder {
	switch {
	case fragment.Lifecycle.IsExplicit():
		lc, _ := fragment.Lifecycle.Get()
		if current, ok := b.lifecycle.Get(); ok {
			current.override(lc)
		} else {
			b.lifecycle = Explicit(newLifecycleBuilder(lc))
		}
	case fragment.Lifecycle.IsCleared():
		b.lifecycle = Cleared[*LifecycleBuilder]()
	}

	switch {
	case fragment.FailureStore.IsExplicit():
		fs, _ := fragment.FailureStore.Get()
		if current, ok := b.failureStore.Get(); ok {
			current.override(fs)
		} else {
			b.failureStore = Explicit(newFailureStoreBuilder(fs))
		}
	case fragment.FailureStore.IsCleared():
		b.failureStore = Cleared[*FailureStoreBuilder]()
	}
	return b
}

// Lifecycle returns the owned nested builder, creating it when the leaf is
// not currently set.
func (b *Builder) Lifecycle() *LifecycleBuilder {
	if current, ok := b.lifecycle.Get(); ok {
		return current
	}
	created := &LifecycleBuilder{}
	b.lifecycle = Explicit(created)
	return created
}

// FailureStore returns the owned nested builder, creating it when the leaf
// is not currently set.
func (b *Builder) FailureStore() *FailureStoreBuilder {
	if current, ok := b.failureStore.Get(); ok {
		return current
	}
	created := &FailureStoreBuilder{}
	b.failureStore = Explicit(created)
	return created
}

// SetLifecycle assigns the lifecycle leaf directly, bypassing merge. A nil
// argument forcibly clears it.
func (b *Builder) SetLifecycle(lifecycle *Lifecycle) *Builder {
	if lifecycle == nil {
		b.lifecycle = Cleared[*LifecycleBuilder]()
		return b
	}
	b.lifecycle = Explicit(newLifecycleBuilder(*lifecycle))
	return b
}

// SetFailureStore assigns the failure store leaf directly, bypassing merge.
// A nil argument forcibly clears it.
func (b *Builder) SetFailureStore(failureStore *FailureStore) *Builder {
	if failureStore == nil {
		b.failureStore = Cleared[*FailureStoreBuilder]()
		return b
	}
	b.failureStore = Explicit(newFailureStoreBuilder(*failureStore))
	return b
}

// Build materializes an immutable, fully resolved snapshot from the current
// state. It does not reset the builder; building twice without intervening
// mutation yields structurally equal snapshots.
func (b *Builder) Build() Options {
	return b.Fragment().resolved()
}

// Fragment returns the accumulated state as an authoring fragment with the
// tri-state tags intact, suitable for storing as a template layer.
func (b *Builder) Fragment() Options {
	var out Options
	switch {
	case b.lifecycle.IsExplicit():
		lb, _ := b.lifecycle.Get()
		out.Lifecycle = Explicit(lb.fragment())
	case b.lifecycle.IsCleared():
		out.Lifecycle = Cleared[Lifecycle]()
	}
	switch {
	case b.failureStore.IsExplicit():
		fb, _ := b.failureStore.Get()
		out.FailureStore = Explicit(fb.fragment())
	case b.failureStore.IsCleared():
		out.FailureStore = Cleared[FailureStore]()
	}
	return out
}

// LifecycleBuilder stages the lifecycle fragment leaves.
type LifecycleBuilder struct {
	enabled   Optional[bool]
	retention Optional[time.Duration]
}

func newLifecycleBuilder(fragment Lifecycle) *LifecycleBuilder {
	return &LifecycleBuilder{
		enabled:   fragment.Enabled,
		retention: fragment.Retention,
	}
}

// Enabled pins the enabled leaf.
func (b *LifecycleBuilder) Enabled(enabled bool) *LifecycleBuilder {
	b.enabled = Explicit(enabled)
	return b
}

// ClearEnabled marks the enabled leaf as explicitly removed.
func (b *LifecycleBuilder) ClearEnabled() *LifecycleBuilder {
	b.enabled = Cleared[bool]()
	return b
}

// Retention pins the retention leaf.
func (b *LifecycleBuilder) Retention(retention time.Duration) *LifecycleBuilder {
	b.retention = Explicit(retention)
	return b
}

// ClearRetention marks the retention leaf as explicitly removed.
func (b *LifecycleBuilder) ClearRetention() *LifecycleBuilder {
	b.retention = Cleared[time.Duration]()
	return b
}

// override folds fragment over the staged leaves, keeping authoring tags:
// a later opinion of any kind wins, silence keeps the staged state.
func (b *LifecycleBuilder) override(fragment Lifecycle) {
	b.enabled = overrideLeaf(b.enabled, fragment.Enabled)
	b.retention = overrideLeaf(b.retention, fragment.Retention)
}

func (b *LifecycleBuilder) fragment() Lifecycle {
	return Lifecycle{Enabled: b.enabled, Retention: b.retention}
}

// FailureStoreBuilder stages the failure store fragment leaves.
type FailureStoreBuilder struct {
	enabled   Optional[bool]
	retention Optional[time.Duration]
}

func newFailureStoreBuilder(fragment FailureStore) *FailureStoreBuilder {
	return &FailureStoreBuilder{
		enabled:   fragment.Enabled,
		retention: fragment.Retention,
	}
}

// Enabled pins the enabled leaf.
func (b *FailureStoreBuilder) Enabled(enabled bool) *FailureStoreBuilder {
	b.enabled = Explicit(enabled)
	return b
}

// ClearEnabled marks the enabled leaf as explicitly removed.
func (b *FailureStoreBuilder) ClearEnabled() *FailureStoreBuilder {
	b.enabled = Cleared[bool]()
	return b
}

// Retention pins the retention leaf.
func (b *FailureStoreBuilder) Retention(retention time.Duration) *FailureStoreBuilder {
	b.retention = Explicit(retention)
	return b
}

// ClearRetention marks the retention leaf as explicitly removed.
func (b *FailureStoreBuilder) ClearRetention() *FailureStoreBuilder {
	b.retention = Cleared[time.Duration]()
	return b
}

func (b *FailureStoreBuilder) override(fragment FailureStore) {
	b.enabled = overrideLeaf(b.enabled, fragment.Enabled)
	b.retention = overrideLeaf(b.retention, fragment.Retention)
}

func (b *FailureStoreBuilder) fragment() FailureStore {
	return FailureStore{Enabled: b.enabled, Retention: b.retention}
}

// overrideLeaf applies a later authoring opinion over a staged one without
// collapsing the tri-state tags.
func overrideLeaf[T any](staged, incoming Optional[T]) Optional[T] {
	if incoming.IsInherit() {
		return staged
	}
	return incoming
}
