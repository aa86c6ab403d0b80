// Package extract turns free-form RFP and proposal text into structured
// records. Model output is untrusted: everything passes through the tolerant
// JSON cascade and per-field coercion before it reaches storage.
package extract

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	_ "embed"

	"go.uber.org/zap"

	"github.com/procupilot/procupilot/internal/ai"
	"github.com/procupilot/procupilot/internal/logger"
	"github.com/procupilot/procupilot/internal/store"
)

//go:embed prompt_rfp.md
var rfpPromptTemplate string

//go:embed prompt_proposal.md
var proposalPromptTemplate string

type runner interface {
	Run(ctx context.Context, prompt string) string
	Model() string
}

// Extractor runs the extraction prompts against the configured model.
type Extractor struct {
	runner runner
	logger *zap.Logger
}

// RFPDraft is a structured RFP as extracted from free text, before it gets
// an id and is persisted.
type RFPDraft struct {
	Title        string
	Requirements store.Requirements
}

func New(r runner, log *zap.Logger) *Extractor {
	return &Extractor{runner: r, logger: log}
}

// ExtractRFP structures free-form RFP text. Unlike proposal extraction this
// returns an error on model or parse failure, since there is no record worth
// persisting without the structured fields.
func (e *Extractor) ExtractRFP(ctx context.Context, text string) (*RFPDraft, error) {
	prompt := strings.ReplaceAll(rfpPromptTemplate, "{{RFP_TEXT}}", text)

	raw := e.runner.Run(ctx, prompt)
	if raw == ai.FailedOutput {
		return nil, errors.New("model call failed")
	}

	var obj map[string]any
	if err := ai.DecodeObject(raw, &obj); err != nil {
		return nil, fmt.Errorf("parse rfp extraction: %w", err)
	}

	draft := &RFPDraft{
		Title: ai.CoerceString(obj["title"]),
		Requirements: store.Requirements{
			Client:       ai.CoerceString(obj["client"]),
			Summary:      ai.CoerceString(obj["summary"]),
			Budget:       ai.CoerceString(obj["budget"]),
			DeliveryTime: ai.CoerceString(obj["delivery_time"]),
			PaymentTerms: ai.CoerceString(obj["payment_terms"]),
			Warranty:     ai.CoerceString(obj["warranty"]),
			Items:        coerceItems(obj["items"]),
		},
	}
	if draft.Requirements.Items == nil {
		draft.Requirements.Items = []store.Item{}
	}
	if draft.Title == "" {
		draft.Title = fallbackTitle(text)
	}

	return draft, nil
}

// ExtractProposal structures a proposal email body. It never fails: when the
// model call or the parse cascade fails, the result carries the error reason
// and the raw output so the proposal is still persisted for review.
func (e *Extractor) ExtractProposal(ctx context.Context, text string) store.ParsedProposal {
	prompt := strings.ReplaceAll(proposalPromptTemplate, "{{EMAIL_TEXT}}", text)

	raw := e.runner.Run(ctx, prompt)
	if raw == ai.FailedOutput {
		return store.ParsedProposal{Error: "model call failed", Raw: raw}
	}

	var obj map[string]any
	if err := ai.DecodeObject(raw, &obj); err != nil {
		e.logger.Warn("proposal extraction did not parse",
			zap.String(logger.FieldModel, e.runner.Model()),
			zap.String("response_preview", logger.TruncateForLog(raw, 200)),
		)

		var parseErr *ai.ParseError
		if errors.As(err, &parseErr) {
			return store.ParsedProposal{Error: parseErr.Reason, Raw: parseErr.Raw}
		}
		return store.ParsedProposal{Error: err.Error(), Raw: raw}
	}

	parsed := store.ParsedProposal{
		Currency:     ai.CoerceString(obj["currency"]),
		DeliveryTime: ai.CoerceString(obj["delivery_time"]),
		PaymentTerms: ai.CoerceString(obj["payment_terms"]),
		Warranty:     ai.CoerceString(obj["warranty"]),
		Notes:        ai.CoerceString(obj["notes"]),
		LineItems:    coerceItems(obj["line_items"]),
	}
	if price := ai.CoerceFloat(obj["total_price"]); !math.IsNaN(price) {
		parsed.TotalPrice = &price
	}

	return parsed
}

// coerceItems accepts the item shapes models actually produce: an array of
// objects, an array of bare name strings, or a mix. Anything that is not an
// array comes back nil.
func coerceItems(v any) []store.Item {
	list, ok := v.([]any)
	if !ok {
		return nil
	}

	items := make([]store.Item, 0, len(list))
	for _, entry := range list {
		switch e := entry.(type) {
		case string:
			items = append(items, store.Item{Name: e})
		case map[string]any:
			item := store.Item{
				Name:  ai.CoerceString(e["name"]),
				Brand: ai.CoerceString(e["brand"]),
				Unit:  ai.CoerceString(e["unit"]),
			}
			if qty := ai.CoerceFloat(e["qty"]); !math.IsNaN(qty) {
				item.Qty = qty
			}
			if specs, ok := e["specs"].(map[string]any); ok {
				item.Specs = make(map[string]string, len(specs))
				for k, sv := range specs {
					item.Specs[k] = ai.CoerceString(sv)
				}
			}
			items = append(items, item)
		}
	}
	return items
}

// fallbackTitle mirrors the RFP creation default: the first 60 characters of
// the source text.
func fallbackTitle(text string) string {
	text = strings.TrimSpace(text)
	runes := []rune(text)
	if len(runes) > 60 {
		return string(runes[:60])
	}
	return text
}
