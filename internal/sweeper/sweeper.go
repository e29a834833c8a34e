// Package sweeper implements one expiration pass over the tokens table: every
// active token whose expiry has been reached at the store's current time and
// that has no expired record yet gets exactly one expired record appended.
package sweeper

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tokenexpiry/internal/dbx"
	"github.com/dmitrijs2005/tokenexpiry/internal/logging"
	"github.com/dmitrijs2005/tokenexpiry/internal/repositories/repomanager"
	"github.com/dmitrijs2005/tokenexpiry/internal/repositories/tokens"
)

// Options tune a run.
//
// Atomic inserts every expired record in one transaction, so a failure leaves
// no partial result. DryRun selects candidates and inserts nothing.
type Options struct {
	Atomic bool
	DryRun bool
}

// Result describes what a run did. It is returned even when the run fails;
// Inserted then counts rows written before the failure (0 for atomic runs,
// which roll back).
type Result struct {
	ReferenceTime time.Time
	Candidates    int
	Inserted      int
	DryRun        bool
}

// Summary is the completion line reported to the operator.
func (r *Result) Summary() string {
	if r.DryRun {
		return fmt.Sprintf("expiration dry run complete, %d records eligible", r.Candidates)
	}
	return fmt.Sprintf("expiration processing complete, %d records inserted", r.Inserted)
}

type Sweeper struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	logger logging.Logger
	opts   Options
}

// New returns a Sweeper running statements on db through repositories vended
// by repos.
func New(db *sql.DB, repos repomanager.RepositoryManager, logger logging.Logger, opts Options) *Sweeper {
	return &Sweeper{db: db, repos: repos, logger: logger, opts: opts}
}

// Run performs one pass. It stops at the first failing statement.
func (s *Sweeper) Run(ctx context.Context) (*Result, error) {
	res := &Result{DryRun: s.opts.DryRun}

	if !s.opts.Atomic || s.opts.DryRun {
		err := s.sweep(ctx, s.repos.Tokens(s.db), res)
		return res, err
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.sweep(ctx, s.repos.Tokens(tx), res)
	})
	if err != nil {
		s.logger.Warn(ctx, "transaction rolled back", "uncommitted", res.Inserted)
		res.Inserted = 0
		return res, err
	}
	return res, nil
}

func (s *Sweeper) sweep(ctx context.Context, repo tokens.Repository, res *Result) error {
	now, err := repo.Now(ctx)
	if err != nil {
		return err
	}
	res.ReferenceTime = now
	s.logger.Debug(ctx, "reference time fetched", "now", now)

	candidates, err := repo.FindExpirable(ctx, now)
	if err != nil {
		return err
	}
	res.Candidates = len(candidates)
	s.logger.Info(ctx, "expiration candidates selected", "candidates", len(candidates))

	if s.opts.DryRun {
		for _, c := range candidates {
			s.logger.Info(ctx, "token eligible for expiration",
				"token_id", c.TokenID, "reserve_id", c.ReserveID, "expires_at", c.ExpiresAt)
		}
		return nil
	}

	for _, c := range candidates {
		if err := repo.InsertExpired(ctx, c); err != nil {
			s.logger.Error(ctx, "insert failed", "token_id", c.TokenID, "inserted", res.Inserted, "error", err)
			return err
		}
		res.Inserted++
		s.logger.Debug(ctx, "token expired", "token_id", c.TokenID)
	}
	return nil
}
