package streamcfg

import (
	"testing"
	"time"
)

func TestNewVersionedSnapshotStartsAtOne(t *testing.T) {
	snapshot := NewVersionedSnapshot(Options{})
	if snapshot.Version != 1 {
		t.Errorf("Version = %d, want 1", snapshot.Version)
	}
	if snapshot.ID == "" {
		t.Error("expected a generated snapshot identifier")
	}
}

func TestNextIncrementsVersion(t *testing.T) {
	first := NewVersionedSnapshot(Options{})
	second := first.Next(lifecycleFragment(true, 24*time.Hour))

	if second.Version != first.Version+1 {
		t.Errorf("Version = %d, want %d", second.Version, first.Version+1)
	}
	if second.ID == first.ID {
		t.Error("successor snapshots must carry fresh identifiers")
	}
	if first.Version != 1 {
		t.Error("Next must not mutate the receiver")
	}
}

func TestVersionedSnapshotResolvesOptions(t *testing.T) {
	fragment := Options{
		Lifecycle:    Explicit(Lifecycle{Retention: Cleared[time.Duration]()}),
		FailureStore: Cleared[FailureStore](),
	}
	snapshot := NewVersionedSnapshot(fragment)

	if !snapshot.Options.FailureStore.Absent() || snapshot.Options.FailureStore.IsCleared() {
		t.Errorf("failure store = %#v, want resolved absence", snapshot.Options.FailureStore)
	}
	lc, ok := snapshot.Options.Lifecycle.Get()
	if !ok {
		t.Fatal("explicit lifecycle should survive resolution")
	}
	if lc.Retention.IsCleared() {
		t.Error("cleared retention must collapse to absent in a snapshot")
	}
}

func TestVersionedSnapshotEqual(t *testing.T) {
	a := NewVersionedSnapshot(lifecycleFragment(true, time.Hour))
	b := a.Next(a.Options)
	if !a.Equal(b) {
		t.Error("snapshots with equal options must compare equal regardless of version")
	}
	c := b.Next(Options{})
	if b.Equal(c) {
		t.Error("snapshots with different options must not compare equal")
	}
}
