package streamcfg

import "time"

// Template names a reusable configuration fragment together with its
// precedence and an optional applicability condition. Templates whose
// condition evaluates truthy for a stream become layers in its composition
// stack; an empty condition always applies.
type Template struct {
	Name      string
	Priority  int
	Condition string
	Fragment  Options
	Metadata  map[string]any
}

// RuleContext carries the inputs a condition expression can inspect.
type RuleContext struct {
	Stream   string // data stream name the templates are matched against
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
	Template string // name of the template under evaluation
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

func (ctx RuleContext) templateLabel() string {
	if ctx.Template != "" {
		return ctx.Template
	}
	return "unknown"
}

// Evaluator executes condition expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct{}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) {
	if f != nil {
		f(cfg)
	}
}
