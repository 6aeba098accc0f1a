// internal/policy/policy.go

// Package policy holds the access rules for the listings table. The same
// rules are installed as PostgreSQL row-level-security policies by the
// database migrations; Evaluate is what every repository implementation
// runs inside its own write path.
package policy

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/javajoker/campus-market/internal/apperr"
	"github.com/javajoker/campus-market/internal/models"
)

type Operation string

const (
	Select Operation = "SELECT"
	Insert Operation = "INSERT"
	Update Operation = "UPDATE"
	Delete Operation = "DELETE"
)

// Caller is the identity a request runs as. A nil *Caller or a Caller
// with a nil UserID is unauthenticated.
type Caller struct {
	UserID uuid.UUID
}

func (c *Caller) authenticated() bool {
	return c != nil && c.UserID != uuid.Nil
}

// Evaluate decides whether caller may perform op. existing is the stored
// row (UPDATE only); proposed is the row being written (INSERT, UPDATE).
func Evaluate(op Operation, caller *Caller, existing, proposed *models.Listing) error {
	if !caller.authenticated() {
		return apperr.Authentication("sign in to access listings")
	}

	switch op {
	case Select:
		return nil

	case Insert:
		if proposed == nil || !proposed.OwnedBy(caller.UserID) {
			return apperr.Authorization("new listing must be owned by the signed-in account")
		}
		return nil

	case Update:
		if existing == nil || !existing.OwnedBy(caller.UserID) {
			return apperr.Authorization("only the owner can edit this listing")
		}
		if proposed == nil || !proposed.OwnedBy(caller.UserID) {
			return apperr.Authorization("listing owner cannot be changed")
		}
		return nil

	case Delete:
		return apperr.Authorization("listings cannot be deleted")

	default:
		return apperr.Authorization(fmt.Sprintf("operation %q is not permitted", op))
	}
}
