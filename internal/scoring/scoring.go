// Package scoring turns parsed proposals into banded 1-5 criterion scores
// against an RFP's structured requirements. All scorers are total: any
// missing or unparseable input lands in the worst band instead of erroring.
package scoring

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/procupilot/procupilot/internal/store"
)

// Score holds the per-criterion bands and the aggregate for one proposal.
type Score struct {
	ProposalID    string  `json:"proposalId"`
	VendorID      string  `json:"vendorId"`
	VendorName    string  `json:"vendorName"`
	PriceScore    int     `json:"priceScore"`
	DeliveryScore int     `json:"deliveryScore"`
	WarrantyScore int     `json:"warrantyScore"`
	ItemScore     int     `json:"itemScore"`
	Aggregate     float64 `json:"aggregate"`
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d+)?|\.\d+)`)

// ParseAmount reads the leading numeric part of a free-text quantity, so
// "10 days" and "24 months" parse as 10 and 24. Returns NaN when the text
// does not start with a number.
func ParseAmount(s string) float64 {
	m := leadingNumber.FindString(strings.TrimSpace(s))
	if m == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// valueBand scores a smaller-is-better pair: meeting or beating the required
// amount is a 5, then bands by how far the offer overshoots, as a fraction
// of the required amount.
func valueBand(required, offered float64) int {
	if math.IsNaN(required) || math.IsNaN(offered) {
		return 1
	}
	diff := offered - required
	switch {
	case diff <= 0:
		return 5
	case diff <= 0.05*required:
		return 4
	case diff <= 0.10*required:
		return 3
	case diff <= 0.20*required:
		return 2
	default:
		return 1
	}
}

// PriceScore bands the offered total price against the RFP budget.
// A missing price is the worst band.
func PriceScore(budget string, totalPrice *float64) int {
	if totalPrice == nil {
		return 1
	}
	return valueBand(ParseAmount(budget), *totalPrice)
}

// DeliveryScore bands the offered delivery time against the required one,
// in absolute days over.
func DeliveryScore(required, offered string) int {
	requiredDays := ParseAmount(required)
	offeredDays := ParseAmount(offered)
	if math.IsNaN(requiredDays) || math.IsNaN(offeredDays) {
		return 1
	}
	diff := offeredDays - requiredDays
	switch {
	case diff <= 0:
		return 5
	case diff <= 3:
		return 4
	case diff <= 7:
		return 3
	case diff <= 14:
		return 2
	default:
		return 1
	}
}

// WarrantyScore bands the offered warranty against the required one. Longer
// warranties are better, so the bands measure how far the offer falls short
// of the required months.
func WarrantyScore(required, offered string) int {
	return valueBand(ParseAmount(offered), ParseAmount(required))
}

// ItemScore counts required item names without a case-insensitive exact
// match among the offered line items. Items with no name are ignored on both
// sides. Zero missing is a 5; each missing item drops one band down to 1 at
// four or more.
func ItemScore(required, offered []store.Item) int {
	if required == nil || offered == nil {
		return 1
	}

	offeredNames := make(map[string]bool, len(offered))
	for _, item := range offered {
		if name := strings.ToLower(strings.TrimSpace(item.Name)); name != "" {
			offeredNames[name] = true
		}
	}

	missing := 0
	for _, item := range required {
		name := strings.ToLower(strings.TrimSpace(item.Name))
		if name == "" {
			continue
		}
		if !offeredNames[name] {
			missing++
		}
	}
	if missing > 4 {
		missing = 4
	}
	return 5 - missing
}

// ScoreProposal scores one proposal against the RFP requirements.
func ScoreProposal(rfp *store.RFP, proposal *store.Proposal) Score {
	req := rfp.Structured

	score := Score{
		ProposalID:    proposal.ID,
		PriceScore:    PriceScore(req.Budget, proposal.Parsed.TotalPrice),
		DeliveryScore: DeliveryScore(req.DeliveryTime, proposal.Parsed.DeliveryTime),
		WarrantyScore: WarrantyScore(req.Warranty, proposal.Parsed.Warranty),
		ItemScore:     ItemScore(req.Items, proposal.Parsed.LineItems),
	}
	if proposal.VendorID != nil {
		score.VendorID = *proposal.VendorID
	}
	if proposal.Vendor != nil {
		score.VendorName = proposal.Vendor.Name
	}

	sum := score.PriceScore + score.DeliveryScore + score.WarrantyScore + score.ItemScore
	score.Aggregate = math.Round(float64(sum)/4*100) / 100

	return score
}

// ScoreProposals scores every proposal, preserving input order.
func ScoreProposals(rfp *store.RFP, proposals []store.Proposal) []Score {
	scores := make([]Score, 0, len(proposals))
	for i := range proposals {
		scores = append(scores, ScoreProposal(rfp, &proposals[i]))
	}
	return scores
}
