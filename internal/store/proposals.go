package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateProposal persists a new proposal, assigning an id when none is set.
func (s *Store) CreateProposal(ctx context.Context, proposal *Proposal) error {
	if proposal.ID == "" {
		proposal.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(proposal).Error; err != nil {
		return fmt.Errorf("create proposal: %w", err)
	}
	return nil
}

// ProposalExists reports whether a proposal already exists for the
// (rfp, vendor) pair. This is the dedup guard: it must run before extraction
// so a duplicate message never costs a model call.
func (s *Store) ProposalExists(ctx context.Context, rfpID, vendorID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Proposal{}).
		Where("rfp_id = ? AND vendor_id = ?", rfpID, vendorID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check proposal existence: %w", err)
	}
	return count > 0, nil
}

// ProposalsByRFP returns all proposals for the RFP with vendors joined,
// ordered by arrival.
func (s *Store) ProposalsByRFP(ctx context.Context, rfpID string) ([]Proposal, error) {
	var proposals []Proposal
	err := s.db.WithContext(ctx).
		Preload("Vendor").
		Where("rfp_id = ?", rfpID).
		Order("received_at").
		Find(&proposals).Error
	if err != nil {
		return nil, fmt.Errorf("list proposals for rfp %s: %w", rfpID, err)
	}
	return proposals, nil
}

// ProposalByID returns the proposal with vendor and RFP joined, or nil when
// it does not exist.
func (s *Store) ProposalByID(ctx context.Context, id string) (*Proposal, error) {
	var proposal Proposal
	err := s.db.WithContext(ctx).
		Preload("Vendor").
		Preload("RFP").
		First(&proposal, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get proposal %s: %w", id, err)
	}
	return &proposal, nil
}

// CountComparisonReady returns the number of RFPs with at least one proposal.
func (s *Store) CountComparisonReady(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&Proposal{}).
		Where("rfp_id IS NOT NULL").
		Distinct("rfp_id").
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count comparison-ready rfps: %w", err)
	}
	return count, nil
}
