package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateRFP persists a new RFP, assigning an id when none is set.
func (s *Store) CreateRFP(ctx context.Context, rfp *RFP) error {
	if rfp.ID == "" {
		rfp.ID = uuid.NewString()
	}
	if err := s.db.WithContext(ctx).Create(rfp).Error; err != nil {
		return fmt.Errorf("create rfp: %w", err)
	}
	return nil
}

// RFPByID returns the RFP with the given id, or nil when it does not exist.
func (s *Store) RFPByID(ctx context.Context, id string) (*RFP, error) {
	var rfp RFP
	err := s.db.WithContext(ctx).First(&rfp, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get rfp %s: %w", id, err)
	}
	return &rfp, nil
}

// ListRFPs returns all RFPs ordered by creation time.
func (s *Store) ListRFPs(ctx context.Context) ([]RFP, error) {
	var rfps []RFP
	if err := s.db.WithContext(ctx).Order("created_at").Find(&rfps).Error; err != nil {
		return nil, fmt.Errorf("list rfps: %w", err)
	}
	return rfps, nil
}

// RFPByTitleLike returns the first RFP whose title contains the fragment,
// case-insensitively, or nil when none matches.
func (s *Store) RFPByTitleLike(ctx context.Context, fragment string) (*RFP, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, nil
	}

	var rfp RFP
	err := s.db.WithContext(ctx).
		Where("LOWER(title) LIKE ?", "%"+strings.ToLower(fragment)+"%").
		Order("created_at").
		First(&rfp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find rfp by title %q: %w", fragment, err)
	}
	return &rfp, nil
}

// AppendVendorsSent records that the RFP was dispatched to the given vendors,
// keeping the stored set free of duplicates.
func (s *Store) AppendVendorsSent(ctx context.Context, rfpID string, vendorIDs []string) error {
	rfp, err := s.RFPByID(ctx, rfpID)
	if err != nil {
		return err
	}
	if rfp == nil {
		return fmt.Errorf("rfp %s not found", rfpID)
	}

	seen := make(map[string]bool, len(rfp.VendorsSent))
	for _, id := range rfp.VendorsSent {
		seen[id] = true
	}
	for _, id := range vendorIDs {
		if !seen[id] {
			rfp.VendorsSent = append(rfp.VendorsSent, id)
			seen[id] = true
		}
	}

	err = s.db.WithContext(ctx).Model(&RFP{}).
		Where("id = ?", rfpID).
		Update("vendors_sent", rfp.VendorsSent).Error
	if err != nil {
		return fmt.Errorf("update vendors sent for rfp %s: %w", rfpID, err)
	}
	return nil
}

// CountRFPs returns the total number of RFPs.
func (s *Store) CountRFPs(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&RFP{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count rfps: %w", err)
	}
	return count, nil
}

// CountRFPsUpdatedSince returns the number of RFPs updated at or after t.
func (s *Store) CountRFPsUpdatedSince(ctx context.Context, t time.Time) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&RFP{}).
		Where("updated_at >= ?", t).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("count recently updated rfps: %w", err)
	}
	return count, nil
}
