package streamcfg

import (
	"errors"
	"testing"
	"time"
)

func lifecycleFragment(enabled bool, retention time.Duration) Options {
	return Options{
		Lifecycle: Explicit(Lifecycle{
			Enabled:   Explicit(enabled),
			Retention: Explicit(retention),
		}),
	}
}

func TestComposeZeroLayers(t *testing.T) {
	if got := Compose(); !got.IsEmpty() {
		t.Fatalf("Compose() = %#v, want every leaf absent", got)
	}
}

func TestComposeIdentity(t *testing.T) {
	fragment := lifecycleFragment(true, 30*24*time.Hour)
	if got := Compose(fragment); got != fragment {
		t.Errorf("Compose(f) = %#v, want %#v", got, fragment)
	}
}

func TestComposeLeftFoldPrecedence(t *testing.T) {
	base := Options{
		FailureStore: Explicit(FailureStore{Enabled: Explicit(true)}),
	}

	cases := []struct {
		name string
		top  Options
		want Optional[FailureStore]
	}{
		{
			name: "inherit keeps lower value",
			top:  Options{},
			want: Explicit(FailureStore{Enabled: Explicit(true)}),
		},
		{
			name: "explicit overrides lower value",
			top: Options{
				FailureStore: Explicit(FailureStore{Enabled: Explicit(false)}),
			},
			want: Explicit(FailureStore{Enabled: Explicit(false)}),
		},
		{
			name: "cleared removes lower value",
			top: Options{
				FailureStore: Cleared[FailureStore](),
			},
			want: Inherit[FailureStore](),
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Compose(base, tc.top)
			if got.FailureStore != tc.want {
				t.Errorf("composed failure store = %#v, want %#v", got.FailureStore, tc.want)
			}
		})
	}
}

func TestComposeMixedLeaves(t *testing.T) {
	weak := Options{
		FailureStore: Explicit(FailureStore{Enabled: Explicit(true)}),
	}
	strong := Options{
		Lifecycle:    Explicit(Lifecycle{Enabled: Explicit(true)}),
		FailureStore: Cleared[FailureStore](),
	}

	got := Compose(weak, strong)
	if !got.Lifecycle.Present() {
		t.Error("lifecycle should resolve to the stronger layer's value")
	}
	if !got.FailureStore.Absent() {
		t.Error("failure store should resolve to absent after the clear")
	}
}

func TestComposeIsDeterministic(t *testing.T) {
	layers := []Options{
		lifecycleFragment(true, 7*24*time.Hour),
		{Lifecycle: Explicit(Lifecycle{Retention: Cleared[time.Duration]()})},
		{FailureStore: Explicit(FailureStore{Enabled: Explicit(false)})},
	}
	first := Compose(layers...)
	for i := 0; i < 5; i++ {
		if got := Compose(layers...); got != first {
			t.Fatalf("composition %d diverged: %#v vs %#v", i, got, first)
		}
	}
}

func TestNewStackSortsWeakestFirst(t *testing.T) {
	local := NewLayer(Source{Name: "local", Priority: 100}, Options{})
	global := NewLayer(Source{Name: "global", Priority: 0}, Options{})
	template := NewLayer(Source{Name: "logs-template", Priority: 50}, Options{})

	stack, err := NewStack(local, global, template)
	if err != nil {
		t.Fatalf("NewStack() returned error: %v", err)
	}

	layers := stack.Layers()
	wantOrder := []string{"global", "logs-template", "local"}
	if len(layers) != len(wantOrder) {
		t.Fatalf("Layers() returned %d layers, want %d", len(layers), len(wantOrder))
	}
	for i, name := range wantOrder {
		if layers[i].Source.Name != name {
			t.Errorf("layer %d = %q, want %q", i, layers[i].Source.Name, name)
		}
	}
}

func TestNewStackValidation(t *testing.T) {
	cases := []struct {
		name   string
		layers []Layer
		want   error
	}{
		{
			name:   "missing source name",
			layers: []Layer{NewLayer(Source{Priority: 1}, Options{})},
			want:   ErrSourceNameRequired,
		},
		{
			name: "duplicate source name",
			layers: []Layer{
				NewLayer(Source{Name: "tmpl", Priority: 1}, Options{}),
				NewLayer(Source{Name: "tmpl", Priority: 2}, Options{}),
			},
			want: ErrDuplicateSourceName,
		},
		{
			name: "duplicate priority",
			layers: []Layer{
				NewLayer(Source{Name: "a", Priority: 1}, Options{}),
				NewLayer(Source{Name: "b", Priority: 1}, Options{}),
			},
			want: ErrPriorityOrder,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewStack(tc.layers...); !errors.Is(err, tc.want) {
				t.Errorf("NewStack() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestStackCompose(t *testing.T) {
	global := NewLayer(Source{Name: "global", Priority: 0}, Options{
		Lifecycle:    Explicit(Lifecycle{Retention: Explicit(90 * 24 * time.Hour)}),
		FailureStore: Explicit(FailureStore{Enabled: Explicit(true)}),
	})
	local := NewLayer(Source{Name: "local", Priority: 100}, Options{
		Lifecycle:    Explicit(Lifecycle{Enabled: Explicit(true)}),
		FailureStore: Cleared[FailureStore](),
	})

	stack, err := NewStack(local, global)
	if err != nil {
		t.Fatalf("NewStack() returned error: %v", err)
	}

	got := stack.Compose()
	want := Options{
		Lifecycle: Explicit(Lifecycle{
			Enabled:   Explicit(true),
			Retention: Explicit(90 * 24 * time.Hour),
		}),
	}
	if got != want {
		t.Errorf("Compose() = %#v, want %#v", got, want)
	}
}

func TestNewLayerAssignsSnapshotID(t *testing.T) {
	layer := NewLayer(Source{Name: "global", Priority: 0}, Options{})
	if layer.SnapshotID == "" {
		t.Error("expected a generated snapshot identifier")
	}

	custom := NewLayer(Source{Name: "global", Priority: 0}, Options{}, WithSnapshotID("fixed"))
	if custom.SnapshotID != "fixed" {
		t.Errorf("SnapshotID = %q, want %q", custom.SnapshotID, "fixed")
	}
}

func TestNewLayerDetachesMetadata(t *testing.T) {
	metadata := map[string]any{"team": "obs"}
	layer := NewLayer(Source{Name: "global", Priority: 0, Metadata: metadata}, Options{})
	metadata["team"] = "changed"
	if layer.Source.Metadata["team"] != "obs" {
		t.Error("layer metadata must be detached from the caller's map")
	}
}
