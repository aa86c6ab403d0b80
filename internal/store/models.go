package store

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Item is a single required or offered line item. Specs is an open map of
// quantifiable attributes; only keys actually consumed are ever validated.
type Item struct {
	Name  string            `json:"name"`
	Brand string            `json:"brand,omitempty"`
	Qty   float64           `json:"qty,omitempty"`
	Unit  string            `json:"unit,omitempty"`
	Specs map[string]string `json:"specs,omitempty"`
}

// Requirements holds the structured half of an RFP. Numeric fields are kept
// as text because they arrive from model extraction and may be absent.
type Requirements struct {
	Client       string `json:"client,omitempty"`
	Summary      string `json:"summary,omitempty"`
	Budget       string `json:"budget,omitempty"`
	DeliveryTime string `json:"delivery_time,omitempty"`
	PaymentTerms string `json:"payment_terms,omitempty"`
	Warranty     string `json:"warranty,omitempty"`
	Items        []Item `json:"items"`
}

func (r Requirements) Value() (driver.Value, error) {
	// Items is always an array, never null.
	if r.Items == nil {
		r.Items = []Item{}
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (r *Requirements) Scan(value any) error {
	if err := scanJSON(value, r); err != nil {
		return err
	}
	if r.Items == nil {
		r.Items = []Item{}
	}
	return nil
}

// ParsedProposal is either a well-formed extraction result or an explicit
// error-tagged object carrying the raw model output. It is never a bare
// string.
type ParsedProposal struct {
	TotalPrice   *float64 `json:"total_price"`
	Currency     string   `json:"currency,omitempty"`
	LineItems    []Item   `json:"line_items"`
	DeliveryTime string   `json:"delivery_time,omitempty"`
	PaymentTerms string   `json:"payment_terms,omitempty"`
	Warranty     string   `json:"warranty,omitempty"`
	Notes        string   `json:"notes,omitempty"`

	Error string `json:"error,omitempty"`
	Raw   string `json:"raw,omitempty"`
}

// Failed reports whether the extraction result is the error-tagged variant.
func (p ParsedProposal) Failed() bool {
	return p.Error != ""
}

func (p ParsedProposal) Value() (driver.Value, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (p *ParsedProposal) Scan(value any) error {
	return scanJSON(value, p)
}

// StringList is a JSON-encoded list column.
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

func (l *StringList) Scan(value any) error {
	return scanJSON(value, l)
}

func scanJSON(value, target any) error {
	switch data := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(data, target)
	case string:
		return json.Unmarshal([]byte(data), target)
	default:
		return fmt.Errorf("unsupported column type %T", value)
	}
}

// RFP is a buyer requirement document. It is created once from extracted
// text and immutable afterwards except for the appended VendorsSent set.
type RFP struct {
	ID          string       `gorm:"primaryKey" json:"id"`
	Title       string       `gorm:"index" json:"title"`
	Description string       `json:"description"`
	Structured  Requirements `gorm:"type:text" json:"structured"`
	VendorsSent StringList   `gorm:"type:text" json:"vendors_sent"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// Vendor is a supplier. Email is the unique key used to match inbound mail.
type Vendor struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `json:"name"`
	Email     string    `gorm:"uniqueIndex" json:"email"`
	Contact   string    `json:"contact,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Proposal is a vendor reply tied to at most one (rfp, vendor) pair. Refs are
// nullable: an unmatched RFP or unknown vendor is a recognized state, not an
// error. Never mutated after persistence.
type Proposal struct {
	ID         string         `gorm:"primaryKey" json:"id"`
	RFPID      *string        `gorm:"index" json:"rfp_id"`
	VendorID   *string        `gorm:"index" json:"vendor_id"`
	RawEmail   string         `json:"raw_email"`
	Parsed     ParsedProposal `gorm:"type:text" json:"parsed"`
	ReceivedAt time.Time      `json:"received_at"`

	RFP    *RFP    `gorm:"foreignKey:RFPID" json:"rfp,omitempty"`
	Vendor *Vendor `gorm:"foreignKey:VendorID" json:"vendor,omitempty"`
}
