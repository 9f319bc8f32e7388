package streamcfg

import (
	"testing"
	"time"
)

func TestBuilderStartsEmpty(t *testing.T) {
	if got := NewBuilder().Build(); !got.IsEmpty() {
		t.Fatalf("empty builder built %#v, want every leaf absent", got)
	}
}

func TestBuilderOverrideVsSetAsymmetry(t *testing.T) {
	lifecycle := Lifecycle{Enabled: Explicit(true)}

	t.Run("override with absent leaf is a no-op", func(t *testing.T) {
		b := NewBuilder().SetLifecycle(&lifecycle)
		b.Override(Options{})
		if got := b.Build(); !got.Lifecycle.Present() {
			t.Errorf("lifecycle lost by override with absent leaf: %#v", got)
		}
	})

	t.Run("set nil forcibly clears", func(t *testing.T) {
		b := NewBuilder().SetLifecycle(&lifecycle)
		b.SetLifecycle(nil)
		if got := b.Build(); !got.Lifecycle.Absent() {
			t.Errorf("lifecycle survived a forcible clear: %#v", got)
		}
	})
}

func TestBuilderOverrideMergesNestedLeaves(t *testing.T) {
	b := NewBuilder()
	b.Override(Options{
		Lifecycle: Explicit(Lifecycle{Retention: Explicit(7 * 24 * time.Hour)}),
	})
	b.Override(Options{
		Lifecycle: Explicit(Lifecycle{Enabled: Explicit(true)}),
	})

	got := b.Build()
	want := Options{
		Lifecycle: Explicit(Lifecycle{
			Enabled:   Explicit(true),
			Retention: Explicit(7 * 24 * time.Hour),
		}),
	}
	if got != want {
		t.Errorf("Build() = %#v, want %#v", got, want)
	}
}

func TestBuilderOverrideHonorsCleared(t *testing.T) {
	b := NewBuilder().SetFailureStore(&FailureStore{Enabled: Explicit(true)})
	b.Override(Options{FailureStore: Cleared[FailureStore]()})
	if got := b.Build(); !got.FailureStore.Absent() {
		t.Errorf("cleared leaf in override fragment did not clear: %#v", got)
	}
}

func TestBuilderBuildIsIdempotent(t *testing.T) {
	b := NewBuilder()
	b.Lifecycle().Enabled(true).Retention(24 * time.Hour)
	b.FailureStore().Enabled(false)

	first := b.Build()
	second := b.Build()
	if first != second {
		t.Errorf("two builds without mutation differ: %#v vs %#v", first, second)
	}
}

func TestBuilderNestedBuildersFoldAtBuild(t *testing.T) {
	b := NewBuilder()
	lb := b.Lifecycle()
	lb.Enabled(true)
	// Later mutations through the same owned builder must be visible.
	b.Lifecycle().Retention(48 * time.Hour)

	got := b.Build()
	want := Options{
		Lifecycle: Explicit(Lifecycle{
			Enabled:   Explicit(true),
			Retention: Explicit(48 * time.Hour),
		}),
	}
	if got != want {
		t.Errorf("Build() = %#v, want %#v", got, want)
	}
}

func TestBuilderFragmentKeepsAuthoringStates(t *testing.T) {
	b := NewBuilder()
	b.Lifecycle().Enabled(true).ClearRetention()
	b.SetFailureStore(nil)

	fragment := b.Fragment()
	lc, ok := fragment.Lifecycle.Get()
	if !ok {
		t.Fatal("lifecycle leaf should be explicit in the fragment view")
	}
	if !lc.Retention.IsCleared() {
		t.Error("cleared retention must survive in the fragment view")
	}
	if !fragment.FailureStore.IsCleared() {
		t.Error("forcibly cleared failure store must read as cleared, not inherit")
	}

	// The resolved snapshot collapses the same states to absence.
	built := b.Build()
	builtLC, _ := built.Lifecycle.Get()
	if !builtLC.Retention.Absent() {
		t.Error("cleared retention must resolve to absent in the snapshot")
	}
	if !built.FailureStore.Absent() {
		t.Error("cleared failure store must resolve to absent in the snapshot")
	}
}

func TestNewBuilderFromSeedsLeaves(t *testing.T) {
	seed := Options{
		Lifecycle: Explicit(Lifecycle{Enabled: Explicit(true)}),
	}
	if got := NewBuilderFrom(seed).Build(); got != seed {
		t.Errorf("Build() = %#v, want %#v", got, seed)
	}
}

func TestComposedScenario(t *testing.T) {
	// A global layer provides the failure store, the local override pins a
	// lifecycle and clears the failure store.
	layers := []Options{
		{FailureStore: Explicit(FailureStore{Enabled: Explicit(true)})},
		{
			Lifecycle:    Explicit(Lifecycle{Enabled: Explicit(true)}),
			FailureStore: Cleared[FailureStore](),
		},
	}

	b := NewBuilder()
	for _, layer := range layers {
		b.Override(layer)
	}

	got := b.Build()
	if composed := Compose(layers...); got != composed {
		t.Errorf("builder and composer disagree: %#v vs %#v", got, composed)
	}
	if !got.Lifecycle.Present() || !got.FailureStore.Absent() {
		t.Errorf("scenario resolved to %#v, want present lifecycle and absent failure store", got)
	}
}
