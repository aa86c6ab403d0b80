// Package recommend picks a winning vendor for an RFP from its scored
// proposals. The model gets first say; when its output cannot be parsed the
// engine falls back to the deterministic highest-aggregate pick, so a
// recommendation is always produced.
package recommend

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	_ "embed"

	"go.uber.org/zap"

	"github.com/procupilot/procupilot/internal/ai"
	"github.com/procupilot/procupilot/internal/logger"
	"github.com/procupilot/procupilot/internal/scoring"
	"github.com/procupilot/procupilot/internal/store"
)

//go:embed prompt_winner.md
var winnerPromptTemplate string

const fallbackExplanation = "Fallback: highest average score vendor selected."

type runner interface {
	Run(ctx context.Context, prompt string) string
	Model() string
}

// Recommendation is the winner pick returned to API clients.
type Recommendation struct {
	WinnerVendorID *string `json:"winnerVendorId"`
	Explanation    string  `json:"explanation"`
	ScoreOutOf5    string  `json:"scoreOutof5"`
}

// Engine asks the model for a winner over aggregated scores.
type Engine struct {
	runner runner
	logger *zap.Logger
}

func New(r runner, log *zap.Logger) *Engine {
	return &Engine{runner: r, logger: log}
}

// Recommend produces a winner pick for the RFP over its scores. It never
// returns an error: model and parse failures resolve to the deterministic
// fallback, and an empty score list resolves to a null winner.
func (e *Engine) Recommend(ctx context.Context, rfp *store.RFP, scores []scoring.Score) Recommendation {
	if len(scores) == 0 {
		return Recommendation{Explanation: "No scores available.", ScoreOutOf5: "N/A"}
	}

	prompt, err := buildPrompt(rfp, scores)
	if err != nil {
		e.logger.Warn("build recommendation prompt", zap.Error(err))
		return fallback(scores)
	}

	raw := e.runner.Run(ctx, prompt)

	var obj map[string]any
	if err := ai.DecodeObject(raw, &obj); err != nil {
		e.logger.Warn("recommendation did not parse, using highest aggregate",
			zap.String(logger.FieldModel, e.runner.Model()),
			zap.String("response_preview", logger.TruncateForLog(raw, 200)),
		)
		return fallback(scores)
	}

	rec := Recommendation{
		Explanation: ai.CoerceString(obj["explanation"]),
		ScoreOutOf5: ai.CoerceString(obj["scoreOutof5"]),
	}
	if winner := ai.CoerceString(obj["winnerVendorId"]); winner != "" {
		rec.WinnerVendorID = &winner
	}
	return rec
}

func buildPrompt(rfp *store.RFP, scores []scoring.Score) (string, error) {
	rfpJSON, err := json.Marshal(rfp.Structured)
	if err != nil {
		return "", err
	}
	scoresJSON, err := json.Marshal(scores)
	if err != nil {
		return "", err
	}

	prompt := strings.ReplaceAll(winnerPromptTemplate, "{{RFP_JSON}}", string(rfpJSON))
	return strings.ReplaceAll(prompt, "{{SCORES_JSON}}", string(scoresJSON)), nil
}

// fallback picks the proposal with the strict-maximum aggregate score. Ties
// keep the earliest proposal, matching arrival order.
func fallback(scores []scoring.Score) Recommendation {
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Aggregate > best.Aggregate {
			best = s
		}
	}

	rec := Recommendation{
		Explanation: fallbackExplanation,
		ScoreOutOf5: strconv.FormatFloat(math.Round(best.Aggregate*100)/100, 'f', 2, 64),
	}
	if best.VendorID != "" {
		rec.WinnerVendorID = &best.VendorID
	}
	return rec
}
