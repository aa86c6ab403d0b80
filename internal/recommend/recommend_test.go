package recommend

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/procupilot/procupilot/internal/ai"
	"github.com/procupilot/procupilot/internal/scoring"
	"github.com/procupilot/procupilot/internal/store"
)

type stubRunner struct {
	response   string
	lastPrompt string
}

func (s *stubRunner) Run(_ context.Context, prompt string) string {
	s.lastPrompt = prompt
	return s.response
}

func (s *stubRunner) Model() string { return "stub" }

func sampleScores() []scoring.Score {
	return []scoring.Score{
		{ProposalID: "p1", VendorID: "v1", VendorName: "Acme", Aggregate: 3.75},
		{ProposalID: "p2", VendorID: "v2", VendorName: "Globex", Aggregate: 4.25},
		{ProposalID: "p3", VendorID: "v3", VendorName: "Initech", Aggregate: 4.25},
	}
}

func TestRecommendUsesModelPick(t *testing.T) {
	stub := &stubRunner{response: `{
		"winnerVendorId": "v1",
		"explanation": "Best delivery terms.",
		"scoreOutof5": "3.75"
	}`}

	rec := New(stub, zap.NewNop()).Recommend(context.Background(), &store.RFP{}, sampleScores())

	if rec.WinnerVendorID == nil || *rec.WinnerVendorID != "v1" {
		t.Fatalf("winner = %v, want v1", rec.WinnerVendorID)
	}
	if rec.Explanation != "Best delivery terms." {
		t.Errorf("explanation = %q", rec.Explanation)
	}
	if !strings.Contains(stub.lastPrompt, `"vendorId":"v2"`) {
		t.Error("scores not embedded in prompt")
	}
}

func TestRecommendFallbackOnGarbage(t *testing.T) {
	stub := &stubRunner{response: "the best vendor is clearly Globex"}

	rec := New(stub, zap.NewNop()).Recommend(context.Background(), &store.RFP{}, sampleScores())

	if rec.WinnerVendorID == nil || *rec.WinnerVendorID != "v2" {
		t.Fatalf("winner = %v, want v2 (first of the tied maxima)", rec.WinnerVendorID)
	}
	if rec.ScoreOutOf5 != "4.25" {
		t.Errorf("score = %q, want 4.25", rec.ScoreOutOf5)
	}
	if rec.Explanation != fallbackExplanation {
		t.Errorf("explanation = %q", rec.Explanation)
	}
}

func TestRecommendFallbackOnModelFailure(t *testing.T) {
	stub := &stubRunner{response: ai.FailedOutput}

	rec := New(stub, zap.NewNop()).Recommend(context.Background(), &store.RFP{}, sampleScores())

	if rec.WinnerVendorID == nil || *rec.WinnerVendorID != "v2" {
		t.Fatalf("winner = %v, want deterministic max v2", rec.WinnerVendorID)
	}
}

func TestRecommendEmptyScores(t *testing.T) {
	stub := &stubRunner{response: "unused"}

	rec := New(stub, zap.NewNop()).Recommend(context.Background(), &store.RFP{}, nil)

	if rec.WinnerVendorID != nil {
		t.Fatalf("winner = %v, want nil", *rec.WinnerVendorID)
	}
	if rec.ScoreOutOf5 != "N/A" {
		t.Errorf("score = %q, want N/A", rec.ScoreOutOf5)
	}
	if stub.lastPrompt != "" {
		t.Error("model should not be called for an empty score list")
	}
}

func TestRecommendCoercesNumericScore(t *testing.T) {
	stub := &stubRunner{response: `{"winnerVendorId": "v2", "explanation": "ok", "scoreOutof5": 4.25}`}

	rec := New(stub, zap.NewNop()).Recommend(context.Background(), &store.RFP{}, sampleScores())
	if rec.ScoreOutOf5 != "4.25" {
		t.Errorf("score = %q, want coerced 4.25", rec.ScoreOutOf5)
	}
}
