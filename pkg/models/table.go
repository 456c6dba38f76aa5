package models

import (
	"fmt"
	"time"
)

type Table struct {
	ID          string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	DisplayName string    `gorm:"type:varchar(50);not null" json:"display_name"`
	QRCode      string    `gorm:"type:varchar(100)" json:"qr_code"`
	Occupied    bool      `gorm:"not null;default:false" json:"occupied"`
	Disabled    bool      `gorm:"not null;default:false" json:"disabled"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Table) TableName() string {
	return "dining_tables"
}

// Name returns the display name, falling back to a short form of the id.
func (t Table) Name() string {
	if t.DisplayName != "" {
		return t.DisplayName
	}
	return FallbackTableName(t.ID)
}

func FallbackTableName(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("TBL-%s", id)
}

// Free reports whether a new party may be seated.
func (t Table) Free() bool {
	return !t.Occupied && !t.Disabled
}

// TableFields is a partial update of a table. Occupancy is derived from
// customer assignment and cannot be edited directly.
type TableFields struct {
	DisplayName *string `json:"display_name,omitempty"`
	QRCode      *string `json:"qr_code,omitempty"`
	Disabled    *bool   `json:"disabled,omitempty"`
}
