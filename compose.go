package streamcfg

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// Compose folds an ordered sequence of fragments into one resolved fragment,
// weakest layer first. Later fragments win per leaf unless they are silent
// (Inherit). Composing nothing yields the all-absent fragment; composing a
// single fragment returns it resolved. Output depends only on the ordered
// input — no clocks, no identity, no composer state.
func Compose(layers ...Options) Options {
	acc := Options{}
	for _, layer := range layers {
		acc = layer.merge(acc)
	}
	return acc
}

// Source names where a layer came from (the global default, a named
// template, the local override) and carries its precedence. Higher priority
// values represent stronger layers.
type Source struct {
	Name     string
	Priority int
	Metadata map[string]any
}

// clone detaches Metadata so a Source stays immutable even if the caller
// mutates their reference.
func (s Source) clone() Source {
	return Source{
		Name:     s.Name,
		Priority: s.Priority,
		Metadata: copyMetadata(s.Metadata),
	}
}

// Layer pairs a source with the fragment captured for it.
type Layer struct {
	Source     Source
	Fragment   Options
	SnapshotID string
}

// LayerOption configures optional metadata for a layer.
type LayerOption func(*Layer)

// WithSnapshotID overrides the generated snapshot identifier used for
// auditing.
func WithSnapshotID(id string) LayerOption {
	return func(layer *Layer) {
		layer.SnapshotID = id
	}
}

// NewLayer constructs a Layer, assigning a fresh snapshot identifier unless
// one is supplied.
func NewLayer(source Source, fragment Options, opts ...LayerOption) Layer {
	layer := Layer{
		Source:   source.clone(),
		Fragment: fragment,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&layer)
	}
	if layer.SnapshotID == "" {
		layer.SnapshotID = uuid.NewString()
	}
	return layer
}

var (
	// ErrSourceNameRequired indicates a missing source name.
	ErrSourceNameRequired = errors.New("streamcfg: source name must be provided")
	// ErrDuplicateSourceName indicates Stack construction received multiple
	// layers with the same source name.
	ErrDuplicateSourceName = errors.New("streamcfg: source names must be unique")
	// ErrPriorityOrder indicates Stack construction detected duplicate
	// priorities, which would make composition order ambiguous.
	ErrPriorityOrder = errors.New("streamcfg: priorities must be strictly ordered")
)

// Stack is an immutable, validated layering sequence ordered from weakest to
// strongest precedence.
type Stack struct {
	layers []Layer
}

// NewStack validates and sorts the supplied layers so that the weakest
// source (lowest priority) composes first.
func NewStack(layers ...Layer) (*Stack, error) {
	if len(layers) == 0 {
		return &Stack{}, nil
	}

	seen := make(map[string]struct{}, len(layers))
	copied := make([]Layer, len(layers))
	for i, layer := range layers {
		layer.Source = layer.Source.clone()
		if layer.Source.Name == "" {
			return nil, ErrSourceNameRequired
		}
		if _, ok := seen[layer.Source.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSourceName, layer.Source.Name)
		}
		seen[layer.Source.Name] = struct{}{}
		copied[i] = layer
	}

	sort.SliceStable(copied, func(i, j int) bool {
		return copied[i].Source.Priority < copied[j].Source.Priority
	})

	for i := 1; i < len(copied); i++ {
		if copied[i-1].Source.Priority >= copied[i].Source.Priority {
			return nil, fmt.Errorf("%w: %d", ErrPriorityOrder, copied[i].Source.Priority)
		}
	}

	return &Stack{layers: copied}, nil
}

// Layers returns a defensive copy of the layering sequence, weakest first.
func (s *Stack) Layers() []Layer {
	if s == nil || len(s.layers) == 0 {
		return nil
	}
	out := make([]Layer, len(s.layers))
	for i := range s.layers {
		out[i] = s.layers[i]
		out[i].Source = s.layers[i].Source.clone()
	}
	return out
}

// Len returns the number of layers in the stack.
func (s *Stack) Len() int {
	if s == nil {
		return 0
	}
	return len(s.layers)
}

// Compose resolves the stack into a single fragment.
func (s *Stack) Compose() Options {
	if s == nil || len(s.layers) == 0 {
		return Options{}
	}
	fragments := make([]Options, len(s.layers))
	for i := range s.layers {
		fragments[i] = s.layers[i].Fragment
	}
	return Compose(fragments...)
}

func copyMetadata(origin map[string]any) map[string]any {
	if len(origin) == 0 {
		return nil
	}
	out := make(map[string]any, len(origin))
	for key, value := range origin {
		out[key] = value
	}
	return out
}
