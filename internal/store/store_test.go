package store

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(sqlite.Open(":memory:"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	return s
}

func TestVendorByEmailExactMatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateVendor(ctx, &Vendor{Name: "Acme Supplies", Email: "Sales@Acme.example"}))

	vendor, err := s.VendorByEmail(ctx, "sales@acme.example")
	require.NoError(t, err)
	require.NotNil(t, vendor)
	assert.Equal(t, "Acme Supplies", vendor.Name)

	missing, err := s.VendorByEmail(ctx, "unknown@acme.example")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestRFPByTitleLike(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreateRFP(ctx, &RFP{Title: "Office Laptops Q3"}))
	require.NoError(t, s.CreateRFP(ctx, &RFP{Title: "Warehouse Forklifts"}))

	rfp, err := s.RFPByTitleLike(ctx, "laptops")
	require.NoError(t, err)
	require.NotNil(t, rfp)
	assert.Equal(t, "Office Laptops Q3", rfp.Title)

	none, err := s.RFPByTitleLike(ctx, "submarines")
	require.NoError(t, err)
	assert.Nil(t, none)

	blank, err := s.RFPByTitleLike(ctx, "   ")
	require.NoError(t, err)
	assert.Nil(t, blank)
}

func TestProposalExists(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rfp := &RFP{Title: "Office Laptops Q3"}
	vendor := &Vendor{Name: "Acme", Email: "sales@acme.example"}
	require.NoError(t, s.CreateRFP(ctx, rfp))
	require.NoError(t, s.CreateVendor(ctx, vendor))

	exists, err := s.ProposalExists(ctx, rfp.ID, vendor.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, s.CreateProposal(ctx, &Proposal{
		RFPID:      &rfp.ID,
		VendorID:   &vendor.ID,
		RawEmail:   "our offer",
		ReceivedAt: time.Now(),
	}))

	exists, err = s.ProposalExists(ctx, rfp.ID, vendor.ID)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestProposalsByRFPJoinsVendor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rfp := &RFP{Title: "Office Laptops Q3"}
	vendor := &Vendor{Name: "Acme", Email: "sales@acme.example"}
	require.NoError(t, s.CreateRFP(ctx, rfp))
	require.NoError(t, s.CreateVendor(ctx, vendor))

	price := 950.0
	require.NoError(t, s.CreateProposal(ctx, &Proposal{
		RFPID:      &rfp.ID,
		VendorID:   &vendor.ID,
		Parsed:     ParsedProposal{TotalPrice: &price, Currency: "USD"},
		ReceivedAt: time.Now(),
	}))

	proposals, err := s.ProposalsByRFP(ctx, rfp.ID)
	require.NoError(t, err)
	require.Len(t, proposals, 1)
	require.NotNil(t, proposals[0].Vendor)
	assert.Equal(t, "Acme", proposals[0].Vendor.Name)
	require.NotNil(t, proposals[0].Parsed.TotalPrice)
	assert.Equal(t, 950.0, *proposals[0].Parsed.TotalPrice)
}

func TestProposalNullRefsSurviveRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	vendor := &Vendor{Name: "Acme", Email: "sales@acme.example"}
	require.NoError(t, s.CreateVendor(ctx, vendor))

	proposal := &Proposal{
		VendorID:   &vendor.ID,
		RawEmail:   "offer without a matched rfp",
		Parsed:     ParsedProposal{Error: "JSON block not found", Raw: "garbage"},
		ReceivedAt: time.Now(),
	}
	require.NoError(t, s.CreateProposal(ctx, proposal))

	got, err := s.ProposalByID(ctx, proposal.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.RFPID)
	assert.True(t, got.Parsed.Failed())
	assert.Equal(t, "garbage", got.Parsed.Raw)
}

func TestAppendVendorsSentDeduplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rfp := &RFP{Title: "Office Laptops Q3"}
	require.NoError(t, s.CreateRFP(ctx, rfp))

	require.NoError(t, s.AppendVendorsSent(ctx, rfp.ID, []string{"v1", "v2"}))
	require.NoError(t, s.AppendVendorsSent(ctx, rfp.ID, []string{"v2", "v3"}))

	got, err := s.RFPByID(ctx, rfp.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, StringList{"v1", "v2", "v3"}, got.VendorsSent)
}

func TestRequirementsItemsAlwaysArray(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rfp := &RFP{Title: "Bare RFP"}
	require.NoError(t, s.CreateRFP(ctx, rfp))

	got, err := s.RFPByID(ctx, rfp.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.NotNil(t, got.Structured.Items)
	assert.Empty(t, got.Structured.Items)
}

func TestDashboardCounts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rfpA := &RFP{Title: "A"}
	rfpB := &RFP{Title: "B"}
	vendor := &Vendor{Name: "Acme", Email: "sales@acme.example"}
	require.NoError(t, s.CreateRFP(ctx, rfpA))
	require.NoError(t, s.CreateRFP(ctx, rfpB))
	require.NoError(t, s.CreateVendor(ctx, vendor))

	require.NoError(t, s.CreateProposal(ctx, &Proposal{RFPID: &rfpA.ID, VendorID: &vendor.ID, ReceivedAt: time.Now()}))

	rfps, err := s.CountRFPs(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, rfps)

	vendors, err := s.CountVendors(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, vendors)

	ready, err := s.CountComparisonReady(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, ready)

	recent, err := s.CountRFPsUpdatedSince(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, recent)
}
