// internal/models/listing.go
package models

import (
	"math"

	"github.com/google/uuid"
)

// MaxPrice is the largest value the decimal(10,2) price column holds.
const MaxPrice = 99999999.99

type Listing struct {
	BaseModel
	Title       string     `json:"title" gorm:"type:text;not null"`
	Description string     `json:"description" gorm:"type:text;not null"`
	Price       float64    `json:"price" gorm:"type:decimal(10,2);not null;check:price >= 0 AND price <> 'NaN'"`
	Condition   Condition  `json:"condition" gorm:"type:varchar(10);not null;default:'New'"`
	Category    string     `json:"category" gorm:"type:text;not null;index"`
	ImageURL    string     `json:"image_url,omitempty" gorm:"type:text"`
	SellerName  string     `json:"seller_name" gorm:"type:text;not null"`
	SellerPhone string     `json:"seller_phone" gorm:"type:text;not null"`
	OwnerID     *uuid.UUID `json:"owner_id" gorm:"type:uuid;index"`
}

// OwnedBy reports whether the listing's owner is userID. Legacy rows
// without an owner are owned by nobody.
func (l *Listing) OwnedBy(userID uuid.UUID) bool {
	return l.OwnerID != nil && *l.OwnerID == userID
}

// ValidPrice reports whether p is a finite, non-negative amount that fits
// the price column.
func ValidPrice(p float64) bool {
	return !math.IsNaN(p) && !math.IsInf(p, 0) && p >= 0 && p <= MaxPrice
}

// Clone returns a copy that shares no pointers with l.
func (l *Listing) Clone() *Listing {
	c := *l
	if l.OwnerID != nil {
		owner := *l.OwnerID
		c.OwnerID = &owner
	}
	return &c
}
