package scoring

import (
	"math"
	"testing"

	"github.com/procupilot/procupilot/internal/store"
)

func floatPtr(v float64) *float64 { return &v }

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1000", 1000},
		{" 10 days ", 10},
		{"24 months", 24},
		{"12.5", 12.5},
		{"-3", -3},
		{"about 10", math.NaN()},
		{"", math.NaN()},
	}
	for _, c := range cases {
		got := ParseAmount(c.in)
		if math.IsNaN(c.want) {
			if !math.IsNaN(got) {
				t.Errorf("ParseAmount(%q) = %v, want NaN", c.in, got)
			}
			continue
		}
		if got != c.want {
			t.Errorf("ParseAmount(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestPriceScoreBands(t *testing.T) {
	cases := []struct {
		budget  string
		offered *float64
		want    int
	}{
		{"1000", floatPtr(950), 5},
		{"1000", floatPtr(1000), 5},
		{"1000", floatPtr(1045), 4},
		{"1000", floatPtr(1050), 4},
		{"1000", floatPtr(1100), 3},
		{"1000", floatPtr(1200), 2},
		{"1000", floatPtr(1201), 1},
		{"1000", nil, 1},
		{"no budget set", floatPtr(950), 1},
	}
	for _, c := range cases {
		if got := PriceScore(c.budget, c.offered); got != c.want {
			t.Errorf("PriceScore(%q, %v) = %d, want %d", c.budget, c.offered, got, c.want)
		}
	}
}

func TestPriceScoreMonotone(t *testing.T) {
	prev := 5
	for offered := 900.0; offered <= 1400; offered += 10 {
		got := PriceScore("1000", floatPtr(offered))
		if got > prev {
			t.Fatalf("score increased from %d to %d at offered=%v", prev, got, offered)
		}
		prev = got
	}
}

func TestDeliveryScoreBands(t *testing.T) {
	cases := []struct {
		required, offered string
		want              int
	}{
		{"10 days", "8 days", 5},
		{"10 days", "10 days", 5},
		{"10 days", "13 days", 4},
		{"10 days", "17 days", 3},
		{"10 days", "24 days", 2},
		{"10 days", "25 days", 1},
		{"10 days", "", 1},
		{"asap", "5 days", 1},
	}
	for _, c := range cases {
		if got := DeliveryScore(c.required, c.offered); got != c.want {
			t.Errorf("DeliveryScore(%q, %q) = %d, want %d", c.required, c.offered, got, c.want)
		}
	}
}

func TestWarrantyScoreLongerIsBetter(t *testing.T) {
	cases := []struct {
		required, offered string
		want              int
	}{
		{"24 months", "36 months", 5},
		{"24 months", "24 months", 5},
		{"24 months", "23 months", 4},
		{"24 months", "22 months", 3},
		{"24 months", "20 months", 2},
		{"24 months", "12 months", 1},
		{"24 months", "", 1},
		{"", "36 months", 1},
	}
	for _, c := range cases {
		if got := WarrantyScore(c.required, c.offered); got != c.want {
			t.Errorf("WarrantyScore(%q, %q) = %d, want %d", c.required, c.offered, got, c.want)
		}
	}
}

func TestItemScore(t *testing.T) {
	required := []store.Item{{Name: "Laptops"}, {Name: "Monitors"}}

	if got := ItemScore(required, []store.Item{{Name: "laptops"}, {Name: "MONITORS"}}); got != 5 {
		t.Errorf("full case-insensitive coverage = %d, want 5", got)
	}
	if got := ItemScore(required, []store.Item{{Name: "laptops"}}); got != 4 {
		t.Errorf("one missing item = %d, want 4", got)
	}
	if got := ItemScore(required, nil); got != 1 {
		t.Errorf("missing offered list = %d, want 1", got)
	}
	if got := ItemScore(nil, []store.Item{{Name: "laptops"}}); got != 1 {
		t.Errorf("missing required list = %d, want 1", got)
	}

	many := []store.Item{
		{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}, {Name: "e"}, {Name: "f"},
	}
	if got := ItemScore(many, []store.Item{}); got != 1 {
		t.Errorf("six missing items = %d, want clamped 1", got)
	}
}

func TestItemScoreIgnoresUnnamedItems(t *testing.T) {
	required := []store.Item{{Name: "Laptops"}, {Name: ""}, {Name: "  "}}
	offered := []store.Item{{Name: "laptops"}, {Name: ""}}

	if got := ItemScore(required, offered); got != 5 {
		t.Errorf("unnamed items counted as missing: score = %d, want 5", got)
	}
}

func TestScoreProposalAggregate(t *testing.T) {
	vendorID := "v1"
	rfp := &store.RFP{
		Structured: store.Requirements{
			Budget:       "1000",
			DeliveryTime: "10 days",
			Warranty:     "24 months",
			Items:        []store.Item{{Name: "Laptops"}, {Name: "Monitors"}},
		},
	}
	proposal := &store.Proposal{
		ID:       "p1",
		VendorID: &vendorID,
		Vendor:   &store.Vendor{ID: vendorID, Name: "Acme"},
		Parsed: store.ParsedProposal{
			TotalPrice:   floatPtr(1045),
			DeliveryTime: "13 days",
			Warranty:     "24 months",
			LineItems:    []store.Item{{Name: "laptops"}},
		},
	}

	score := ScoreProposal(rfp, proposal)

	if score.PriceScore != 4 || score.DeliveryScore != 4 || score.WarrantyScore != 5 || score.ItemScore != 4 {
		t.Fatalf("unexpected bands: %+v", score)
	}
	if score.Aggregate != 4.25 {
		t.Errorf("aggregate = %v, want 4.25", score.Aggregate)
	}
	if score.VendorName != "Acme" || score.VendorID != "v1" {
		t.Errorf("vendor fields not carried: %+v", score)
	}
}

func TestScoreProposalsAggregateRange(t *testing.T) {
	rfp := &store.RFP{}
	proposals := []store.Proposal{
		{ID: "p1"},
		{ID: "p2", Parsed: store.ParsedProposal{Error: "ERROR_LLM_FAILED"}},
	}

	for _, score := range ScoreProposals(rfp, proposals) {
		if score.Aggregate < 1 || score.Aggregate > 5 {
			t.Errorf("aggregate %v out of range for %s", score.Aggregate, score.ProposalID)
		}
	}
}
