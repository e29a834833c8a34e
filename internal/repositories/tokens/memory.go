package tokens

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/tokenexpiry/internal/models"
)

// InMemoryRepository keeps the transition log in a slice. The clock stands in
// for the store's NOW() so runs can be replayed at any reference time.
type InMemoryRepository struct {
	mu    sync.Mutex
	rows  []models.Token
	clock func() time.Time
}

// NewInMemoryRepository returns a repository seeded with rows whose server
// time is reported by clock.
func NewInMemoryRepository(clock func() time.Time, rows ...models.Token) *InMemoryRepository {
	return &InMemoryRepository{
		rows:  append([]models.Token(nil), rows...),
		clock: clock,
	}
}

func (r *InMemoryRepository) Now(ctx context.Context) (time.Time, error) {
	if err := ctx.Err(); err != nil {
		return time.Time{}, err
	}
	return r.clock(), nil
}

func (r *InMemoryRepository) FindExpirable(ctx context.Context, now time.Time) ([]models.Token, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	closed := make(map[string]struct{})
	for _, row := range r.rows {
		if row.Status == models.StatusExpired {
			closed[row.TokenID] = struct{}{}
		}
	}

	var result []models.Token
	for _, row := range r.rows {
		if row.Status != models.StatusActive || !row.Lapsed(now) {
			continue
		}
		if _, ok := closed[row.TokenID]; ok {
			continue
		}
		result = append(result, row)
	}
	return result, nil
}

func (r *InMemoryRepository) InsertExpired(ctx context.Context, src models.Token) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, src.Expired())
	return nil
}

// Rows returns a copy of every stored row in insertion order.
func (r *InMemoryRepository) Rows() []models.Token {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Token(nil), r.rows...)
}
