package sweeper

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/tokenexpiry/internal/common"
	"github.com/dmitrijs2005/tokenexpiry/internal/dbx"
	"github.com/dmitrijs2005/tokenexpiry/internal/logging"
	"github.com/dmitrijs2005/tokenexpiry/internal/models"
	"github.com/dmitrijs2005/tokenexpiry/internal/repositories/repomanager"
	"github.com/dmitrijs2005/tokenexpiry/internal/repositories/tokens"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func clock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func active(id string, expires time.Time) models.Token {
	return models.Token{
		TokenID:   id,
		ReserveID: "R-" + id,
		Amount:    "250.0000",
		IssuedAt:  at(2022, 12, 1),
		ExpiresAt: expires,
		Status:    models.StatusActive,
	}
}

func expiredOf(rows []models.Token, tokenID string) []models.Token {
	var out []models.Token
	for _, r := range rows {
		if r.TokenID == tokenID && r.Status == models.StatusExpired {
			out = append(out, r)
		}
	}
	return out
}

func newMemorySweeper(now time.Time, opts Options, rows ...models.Token) (*Sweeper, *tokens.InMemoryRepository) {
	repo := tokens.NewInMemoryRepository(clock(now), rows...)
	return New(nil, repomanager.NewInMemoryRepositoryManager(repo), logging.Discard(), opts), repo
}

func TestRun_ExpiresLapsedToken(t *testing.T) {
	src := active("T1", at(2023, 1, 1))
	s, repo := newMemorySweeper(at(2023, 6, 1), Options{}, src)

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, res.Candidates)
	assert.Equal(t, 1, res.Inserted)
	assert.Equal(t, at(2023, 6, 1), res.ReferenceTime)
	assert.Equal(t, "expiration processing complete, 1 records inserted", res.Summary())

	got := expiredOf(repo.Rows(), "T1")
	require.Len(t, got, 1)
	assert.Equal(t, src.Expired(), got[0])
	assert.Len(t, repo.Rows(), 2, "the active row is kept")
}

func TestRun_BeforeExpiry(t *testing.T) {
	s, repo := newMemorySweeper(at(2022, 1, 1), Options{}, active("T1", at(2023, 1, 1)))

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, "expiration processing complete, 0 records inserted", res.Summary())
	assert.Len(t, repo.Rows(), 1)
}

func TestRun_ExpiryEqualToNowIsIncluded(t *testing.T) {
	s, repo := newMemorySweeper(at(2023, 1, 1), Options{}, active("T1", at(2023, 1, 1)))

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Inserted)
	assert.Len(t, expiredOf(repo.Rows(), "T1"), 1)
}

func TestRun_SecondRunInsertsNothing(t *testing.T) {
	s, repo := newMemorySweeper(at(2023, 6, 1), Options{},
		active("T1", at(2023, 1, 1)), active("T2", at(2023, 2, 1)))

	first, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, first.Inserted)

	second, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Inserted)
	assert.Len(t, repo.Rows(), 4)
}

func TestRun_AlreadyExpiredTokenSkipped(t *testing.T) {
	closed := active("T1", at(2023, 1, 1))
	s, repo := newMemorySweeper(at(2023, 6, 1), Options{}, closed, closed.Expired())

	res, err := s.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.Inserted)
	assert.Len(t, expiredOf(repo.Rows(), "T1"), 1)
}

func TestRun_MixedTable(t *testing.T) {
	closed := active("T4", at(2023, 3, 1))
	s, repo := newMemorySweeper(at(2023, 6, 1), Options{},
		active("T1", at(2023, 1, 1)),
		active("T2", at(2023, 5, 31)),
		active("T3", at(2024, 1, 1)),
		closed, closed.Expired(),
	)

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, res.Candidates)
	assert.Equal(t, 2, res.Inserted)
	assert.Len(t, expiredOf(repo.Rows(), "T1"), 1)
	assert.Len(t, expiredOf(repo.Rows(), "T2"), 1)
	assert.Empty(t, expiredOf(repo.Rows(), "T3"))
	assert.Len(t, expiredOf(repo.Rows(), "T4"), 1)
}

func TestRun_DryRun(t *testing.T) {
	s, repo := newMemorySweeper(at(2023, 6, 1), Options{DryRun: true},
		active("T1", at(2023, 1, 1)), active("T2", at(2023, 2, 1)))

	res, err := s.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.DryRun)
	assert.Equal(t, 2, res.Candidates)
	assert.Equal(t, 0, res.Inserted)
	assert.Equal(t, "expiration dry run complete, 2 records eligible", res.Summary())
	assert.Len(t, repo.Rows(), 2)
}

// failingRepo delegates to an in-memory repository and fails the insert for
// one token, or the reference time lookup when nowErr is set.
type failingRepo struct {
	tokens.Repository
	failOn string
	nowErr error
}

func (r *failingRepo) Now(ctx context.Context) (time.Time, error) {
	if r.nowErr != nil {
		return time.Time{}, r.nowErr
	}
	return r.Repository.Now(ctx)
}

func (r *failingRepo) InsertExpired(ctx context.Context, src models.Token) error {
	if src.TokenID == r.failOn {
		return &common.InsertError{TokenID: src.TokenID, Err: errors.New("constraint violation")}
	}
	return r.Repository.InsertExpired(ctx, src)
}

type failingManager struct {
	repomanager.RepositoryManager
	repo tokens.Repository
}

func (m *failingManager) Tokens(dbx.DBTX) tokens.Repository { return m.repo }

func TestRun_InsertFailureStopsRun(t *testing.T) {
	repo := tokens.NewInMemoryRepository(clock(at(2023, 6, 1)),
		active("T1", at(2023, 1, 1)), active("T2", at(2023, 2, 1)), active("T3", at(2023, 3, 1)))
	mgr := &failingManager{
		RepositoryManager: repomanager.NewInMemoryRepositoryManager(repo),
		repo:              &failingRepo{Repository: repo, failOn: "T2"},
	}

	res, err := New(nil, mgr, logging.Discard(), Options{}).Run(context.Background())
	require.Error(t, err)

	var insertErr *common.InsertError
	require.ErrorAs(t, err, &insertErr)
	assert.Equal(t, "T2", insertErr.TokenID)
	assert.Equal(t, common.ExitFailure, common.ExitCode(err))

	assert.Equal(t, 3, res.Candidates)
	assert.Equal(t, 1, res.Inserted, "rows before the failure stay committed")
	assert.Len(t, expiredOf(repo.Rows(), "T1"), 1)
	assert.Empty(t, expiredOf(repo.Rows(), "T3"), "nothing after the failure is attempted")
}

func TestRun_NowFailure(t *testing.T) {
	repo := tokens.NewInMemoryRepository(clock(at(2023, 6, 1)), active("T1", at(2023, 1, 1)))
	mgr := &failingManager{
		RepositoryManager: repomanager.NewInMemoryRepositoryManager(repo),
		repo:              &failingRepo{Repository: repo, nowErr: &common.QueryError{Op: "now", Err: errors.New("gone")}},
	}

	res, err := New(nil, mgr, logging.Discard(), Options{}).Run(context.Background())
	require.Error(t, err)
	assert.Equal(t, "query", common.FailureKind(err))
	assert.Equal(t, 0, res.Inserted)
	assert.Len(t, repo.Rows(), 1)
}

func TestRun_CancelledContext(t *testing.T) {
	s, _ := newMemorySweeper(at(2023, 6, 1), Options{}, active("T1", at(2023, 1, 1)))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
