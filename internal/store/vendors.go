package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateVendor persists a new vendor, assigning an id when none is set.
// The email must be unique across vendors.
func (s *Store) CreateVendor(ctx context.Context, vendor *Vendor) error {
	if vendor.ID == "" {
		vendor.ID = uuid.NewString()
	}
	vendor.Email = strings.ToLower(strings.TrimSpace(vendor.Email))
	if vendor.Email == "" {
		return errors.New("vendor email is required")
	}
	if err := s.db.WithContext(ctx).Create(vendor).Error; err != nil {
		return fmt.Errorf("create vendor: %w", err)
	}
	return nil
}

// VendorByEmail resolves a vendor by exact sender address, or nil when the
// address is unknown.
func (s *Store) VendorByEmail(ctx context.Context, email string) (*Vendor, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, nil
	}

	var vendor Vendor
	err := s.db.WithContext(ctx).First(&vendor, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vendor by email %s: %w", email, err)
	}
	return &vendor, nil
}

// VendorByID returns the vendor with the given id, or nil when it does not exist.
func (s *Store) VendorByID(ctx context.Context, id string) (*Vendor, error) {
	var vendor Vendor
	err := s.db.WithContext(ctx).First(&vendor, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vendor %s: %w", id, err)
	}
	return &vendor, nil
}

// VendorsByIDs returns vendors matching the given ids. Unknown ids are
// silently skipped.
func (s *Store) VendorsByIDs(ctx context.Context, ids []string) ([]Vendor, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	var vendors []Vendor
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&vendors).Error; err != nil {
		return nil, fmt.Errorf("get vendors by ids: %w", err)
	}
	return vendors, nil
}

// ListVendors returns all vendors ordered by name.
func (s *Store) ListVendors(ctx context.Context) ([]Vendor, error) {
	var vendors []Vendor
	if err := s.db.WithContext(ctx).Order("name").Find(&vendors).Error; err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	return vendors, nil
}

// CountVendors returns the total number of vendors.
func (s *Store) CountVendors(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&Vendor{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count vendors: %w", err)
	}
	return count, nil
}
