package streamcfg

import "time"

// EvaluatorLogEvent describes a condition evaluation attempt for logging.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Template string
	Stream   string
	Matched  bool
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events. The core emits nothing itself;
// callers plug in whatever sink their service uses.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}
