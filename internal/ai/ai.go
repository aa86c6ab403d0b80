package ai

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/procupilot/procupilot/internal/logger"
)

// FailedOutput is the sentinel returned in place of model text when the
// completion call fails. It never parses as JSON, so every consumer falls
// through to its documented fallback.
const FailedOutput = "ERROR_LLM_FAILED"

const defaultTimeout = 60 * time.Second

// Completer produces raw text for a single prompt.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Model() string
}

// Runner wraps a Completer with a bounded per-call timeout and converts
// failures into the FailedOutput sentinel. Nothing escapes this boundary.
type Runner struct {
	completer Completer
	timeout   time.Duration
	logger    *zap.Logger
	maxLogLen int
}

func NewRunner(completer Completer, timeout time.Duration, log *zap.Logger) *Runner {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}

	return &Runner{
		completer: completer,
		timeout:   timeout,
		logger:    log,
		maxLogLen: 200,
	}
}

// Run sends the prompt to the model and returns its raw output text. On any
// transport failure (including timeout) the error is logged and FailedOutput
// is returned instead.
func (r *Runner) Run(ctx context.Context, prompt string) string {
	if r == nil || r.completer == nil {
		return FailedOutput
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	r.logger.Debug("model completion request",
		zap.Int("prompt_length", len(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, r.maxLogLen)),
	)

	raw, err := r.completer.Complete(ctx, prompt)
	if err != nil {
		r.logger.Warn("model completion failed", zap.Error(err))
		return FailedOutput
	}

	r.logger.Debug("model completion response",
		zap.Int("response_length", len(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, r.maxLogLen)),
	)

	return raw
}

// Model reports the configured model identifier, if any.
func (r *Runner) Model() string {
	if r == nil || r.completer == nil {
		return ""
	}
	return r.completer.Model()
}
