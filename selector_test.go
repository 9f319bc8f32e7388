package streamcfg

import (
	"errors"
	"strings"
	"sync"
	"testing"
	"time"
)

func selectorTemplates() []Template {
	return []Template{
		{
			Name:     "local",
			Priority: 100,
			Fragment: Options{Lifecycle: Explicit(Lifecycle{Enabled: Explicit(true)})},
		},
		{
			Name:      "logs-defaults",
			Priority:  50,
			Condition: `hasPrefix(stream, "logs-")`,
			Fragment:  Options{FailureStore: Explicit(FailureStore{Enabled: Explicit(true)})},
		},
		{
			Name:     "global",
			Priority: 0,
			Fragment: Options{Lifecycle: Explicit(Lifecycle{Retention: Explicit(30 * 24 * time.Hour)})},
		},
	}
}

func layerNames(layers []Layer) []string {
	names := make([]string, len(layers))
	for i, layer := range layers {
		names[i] = layer.Source.Name
	}
	return names
}

func TestSelectorMatchesByCondition(t *testing.T) {
	selector := NewSelector()

	layers, err := selector.Select(RuleContext{Stream: "logs-app-prod"}, selectorTemplates())
	if err != nil {
		t.Fatalf("Select() returned error: %v", err)
	}
	want := []string{"global", "logs-defaults", "local"}
	got := layerNames(layers)
	if len(got) != len(want) {
		t.Fatalf("Select() returned %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("layer %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestSelectorFiltersNonMatching(t *testing.T) {
	selector := NewSelector()

	layers, err := selector.Select(RuleContext{Stream: "metrics-app"}, selectorTemplates())
	if err != nil {
		t.Fatalf("Select() returned error: %v", err)
	}
	for _, layer := range layers {
		if layer.Source.Name == "logs-defaults" {
			t.Error("logs-defaults should not match a metrics stream")
		}
	}
}

func TestSelectorLayersFeedStack(t *testing.T) {
	selector := NewSelector()
	layers, err := selector.Select(RuleContext{Stream: "logs-app"}, selectorTemplates())
	if err != nil {
		t.Fatalf("Select() returned error: %v", err)
	}
	stack, err := NewStack(layers...)
	if err != nil {
		t.Fatalf("NewStack() returned error: %v", err)
	}
	composed := stack.Compose()
	if !composed.FailureStore.Present() {
		t.Error("matched template's failure store should survive composition")
	}
}

func TestSelectorWithCELEvaluator(t *testing.T) {
	selector := NewSelector(WithEvaluator(NewCELEvaluator()))
	templates := []Template{{
		Name:      "logs-defaults",
		Priority:  10,
		Condition: `stream.startsWith("logs-")`,
	}}

	layers, err := selector.Select(RuleContext{Stream: "logs-app"}, templates)
	if err != nil {
		t.Fatalf("Select() returned error: %v", err)
	}
	if len(layers) != 1 {
		t.Fatalf("Select() returned %d layers, want 1", len(layers))
	}
}

func TestCELEvaluatorCallsRegistryFunctions(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("isLogsStream", func(args ...any) (any, error) {
		name, _ := args[0].(string)
		return strings.HasPrefix(name, "logs-"), nil
	}); err != nil {
		t.Fatalf("Register() returned error: %v", err)
	}

	evaluator := NewCELEvaluator(
		CELWithFunctionRegistry(registry),
		CELWithProgramCache(NewMapProgramCache()),
	)

	cases := map[string]struct {
		expr string
		want bool
	}{
		"unary call":    {expr: `call("isLogsStream", stream)`, want: true},
		"non-match":     {expr: `call("isLogsStream", "metrics-app")`, want: false},
		"composed call": {expr: `call("isLogsStream", stream) && template == ""`, want: true},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			value, err := evaluator.Evaluate(RuleContext{Stream: "logs-app"}, tc.expr)
			if err != nil {
				t.Fatalf("Evaluate() returned error: %v", err)
			}
			if value != tc.want {
				t.Errorf("Evaluate() = %v, want %v", value, tc.want)
			}
		})
	}
}

func TestSelectorConcurrentSelect(t *testing.T) {
	selector := NewSelector(WithProgramCache(NewMapProgramCache()))
	templates := selectorTemplates()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			layers, err := selector.Select(RuleContext{Stream: "logs-app"}, templates)
			if err != nil {
				t.Errorf("Select() returned error: %v", err)
				return
			}
			if len(layers) != 3 {
				t.Errorf("Select() returned %d layers, want 3", len(layers))
			}
		}()
	}
	wg.Wait()
}

func TestSelectorNonBooleanCondition(t *testing.T) {
	selector := NewSelector()
	templates := []Template{{
		Name:      "broken",
		Priority:  10,
		Condition: `1 + 1`,
	}}

	_, err := selector.Select(RuleContext{Stream: "logs-app"}, templates)
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("Select() error = %v, want *EvaluationError", err)
	}
	if evalErr.Template != "broken" {
		t.Errorf("error template = %q, want %q", evalErr.Template, "broken")
	}
}

func TestSelectorUsesFunctionRegistry(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("tieredStorage", func(args ...any) (any, error) {
		return true, nil
	}); err != nil {
		t.Fatalf("Register() returned error: %v", err)
	}

	selector := NewSelector(WithFunctionRegistry(registry), WithProgramCache(NewMapProgramCache()))
	templates := []Template{{
		Name:      "tiered",
		Priority:  10,
		Condition: `call("tieredStorage")`,
	}}

	layers, err := selector.Select(RuleContext{Stream: "logs-app"}, templates)
	if err != nil {
		t.Fatalf("Select() returned error: %v", err)
	}
	if len(layers) != 1 {
		t.Fatalf("Select() returned %d layers, want 1", len(layers))
	}
}

func TestSelectorLogsEvaluations(t *testing.T) {
	var events []EvaluatorLogEvent
	selector := NewSelector(WithEvaluatorLogger(EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		events = append(events, event)
	})))

	if _, err := selector.Select(RuleContext{Stream: "logs-app"}, selectorTemplates()); err != nil {
		t.Fatalf("Select() returned error: %v", err)
	}
	// Only the conditioned template produces an evaluation event.
	if len(events) != 1 {
		t.Fatalf("got %d log events, want 1", len(events))
	}
	event := events[0]
	if event.Engine != "expr" || event.Template != "logs-defaults" || !event.Matched {
		t.Errorf("unexpected event %+v", event)
	}
}

func TestJSEvaluatorAvailability(t *testing.T) {
	if jsEvaluatorAvailable() {
		if NewJSEvaluator() == nil {
			t.Fatal("js evaluator should be constructible with the js_eval build tag")
		}
		return
	}
	if NewJSEvaluator() != nil {
		t.Error("js evaluator must be nil without the js_eval build tag")
	}
}

func TestFunctionRegistryDuplicate(t *testing.T) {
	registry := NewFunctionRegistry()
	fn := func(args ...any) (any, error) { return nil, nil }
	if err := registry.Register("fn", fn); err != nil {
		t.Fatalf("Register() returned error: %v", err)
	}
	if err := registry.Register("FN", fn); err == nil {
		t.Error("expected duplicate registration to fail case-insensitively")
	}
}
