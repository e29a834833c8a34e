// Package tokens declares the repository contract over the tokens transition
// table and provides SQL and in-memory implementations.
package tokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/tokenexpiry/internal/models"
)

// Repository defines the statements one expiration run needs.
type Repository interface {
	// Now returns the store's current timestamp.
	Now(ctx context.Context) (time.Time, error)

	// FindExpirable returns active rows with expires_at <= now whose token_id
	// has no expired row yet.
	FindExpirable(ctx context.Context, now time.Time) ([]models.Token, error)

	// InsertExpired appends the expired counterpart of the active row src.
	// Existing rows are never modified.
	InsertExpired(ctx context.Context, src models.Token) error
}
