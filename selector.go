package streamcfg

import (
	"fmt"
	"sort"
	"time"
)

// SelectorOption configures a Selector.
type SelectorOption func(*selectorConfig)

type selectorConfig struct {
	evaluator Evaluator
	cache     ProgramCache
	functions *FunctionRegistry
	logger    EvaluatorLogger
}

// WithEvaluator configures the expression engine used for template
// conditions. When omitted the selector builds an expr-lang engine.
func WithEvaluator(e Evaluator) SelectorOption {
	return func(cfg *selectorConfig) {
		cfg.evaluator = e
	}
}

// WithProgramCache registers a compiled-program cache used by the default
// engine.
func WithProgramCache(cache ProgramCache) SelectorOption {
	return func(cfg *selectorConfig) {
		cfg.cache = cache
	}
}

// WithFunctionRegistry exposes custom functions to condition expressions.
func WithFunctionRegistry(registry *FunctionRegistry) SelectorOption {
	return func(cfg *selectorConfig) {
		cfg.functions = registry
	}
}

// WithEvaluatorLogger attaches a logger receiving one event per condition
// evaluation.
func WithEvaluatorLogger(logger EvaluatorLogger) SelectorOption {
	return func(cfg *selectorConfig) {
		if logger == nil {
			cfg.logger = noopEvaluatorLogger{}
			return
		}
		cfg.logger = logger
	}
}

// Selector decides which templates apply to a stream. It turns the matching
// templates into an ordered layer sequence ready for Stack construction; the
// composition core itself only ever consumes the resulting order. A Selector
// is immutable after construction and safe for concurrent use.
type Selector struct {
	cfg selectorConfig
}

// NewSelector constructs a Selector. The evaluator is resolved here so Select
// never mutates selector state.
func NewSelector(opts ...SelectorOption) *Selector {
	cfg := selectorConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.evaluator == nil {
		var exprOpts []ExprEvaluatorOption
		if cfg.cache != nil {
			exprOpts = append(exprOpts, ExprWithProgramCache(cfg.cache))
		}
		if cfg.functions != nil {
			exprOpts = append(exprOpts, ExprWithFunctionRegistry(cfg.functions))
		}
		cfg.evaluator = NewExprEvaluator(exprOpts...)
	}
	return &Selector{cfg: cfg}
}

// Select evaluates each template's condition against ctx and returns the
// applicable templates as layers ordered from weakest to strongest priority.
// Templates with an empty condition always apply. A condition must produce a
// boolean; anything else is an evaluation error, terminal for the whole
// selection.
func (s *Selector) Select(ctx RuleContext, templates []Template) ([]Layer, error) {
	ordered := make([]Template, len(templates))
	copy(ordered, templates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	evaluator := s.cfg.evaluator
	layers := make([]Layer, 0, len(ordered))
	for _, template := range ordered {
		matched, err := s.matches(evaluator, ctx, template)
		if err != nil {
			return nil, err
		}
		if !matched {
			continue
		}
		layers = append(layers, NewLayer(Source{
			Name:     template.Name,
			Priority: template.Priority,
			Metadata: template.Metadata,
		}, template.Fragment))
	}
	return layers, nil
}

func (s *Selector) matches(evaluator Evaluator, ctx RuleContext, template Template) (bool, error) {
	if template.Condition == "" {
		return true, nil
	}
	ctx.Template = template.Name
	ctx = ctx.withDefaults()
	engine := evaluatorEngineName(evaluator)
	start := time.Now()
	value, err := evaluator.Evaluate(ctx, template.Condition)
	duration := time.Since(start)
	matched := false
	if err == nil {
		var ok bool
		if matched, ok = value.(bool); !ok {
			err = &EvaluationError{
				Engine:   engine,
				Expr:     template.Condition,
				Template: template.Name,
				Err:      fmt.Errorf("condition produced %T, want bool", value),
			}
		}
	}
	err = wrapEvaluationError(engine, template.Condition, template.Name, err)
	s.logger().LogEvaluation(EvaluatorLogEvent{
		Engine:   engine,
		Expr:     template.Condition,
		Template: template.Name,
		Stream:   ctx.Stream,
		Matched:  matched,
		Duration: duration,
		Err:      err,
	})
	if err != nil {
		return false, err
	}
	return matched, nil
}

func (s *Selector) logger() EvaluatorLogger {
	if s.cfg.logger != nil {
		return s.cfg.logger
	}
	return noopEvaluatorLogger{}
}

func evaluatorEngineName(e Evaluator) string {
	if e == nil {
		return "unknown"
	}
	switch fmt.Sprintf("%T", e) {
	case "*streamcfg.exprEvaluator":
		return "expr"
	case "*streamcfg.celEvaluator":
		return "cel"
	case "*streamcfg.jsEvaluator":
		return "js"
	default:
		return "custom"
	}
}
