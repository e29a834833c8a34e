package tokens

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/tokenexpiry/internal/common"
	"github.com/dmitrijs2005/tokenexpiry/internal/dbx"
	"github.com/dmitrijs2005/tokenexpiry/internal/models"
)

const selectExpirableQuery = `
	SELECT t1.token_id, t1.reserve_id, t1.amount, t1.issued_at, t1.expires_at, t1.status
	FROM tokens t1
	WHERE t1.expires_at <= ?
	  AND t1.status = 'active'
	  AND NOT EXISTS (
		SELECT 1
		FROM tokens t2
		WHERE t2.token_id = t1.token_id
		  AND t2.status = 'expired'
	  )
`

const insertExpiredQuery = `
	INSERT INTO tokens (token_id, reserve_id, amount, issued_at, expires_at, status)
	VALUES (?, ?, ?, ?, ?, 'expired')
`

// SQLRepository runs the token statements over dbx.DBTX (*sql.DB or *sql.Tx)
// using the placeholder syntax of its dialect.
type SQLRepository struct {
	db      dbx.DBTX
	dialect dbx.Dialect
}

// NewSQLRepository constructs a repository bound to db.
func NewSQLRepository(db dbx.DBTX, dialect dbx.Dialect) *SQLRepository {
	return &SQLRepository{db: db, dialect: dialect}
}

// Now reads the server clock once. Every comparison in a run uses this value.
func (r *SQLRepository) Now(ctx context.Context) (time.Time, error) {
	var now timestamp
	if err := r.db.QueryRowContext(ctx, r.dialect.NowQuery).Scan(&now); err != nil {
		return time.Time{}, &common.QueryError{Op: "now", Err: err}
	}
	return now.Time, nil
}

// FindExpirable selects the candidates for expiration at now. Rows come back
// in whatever order the store produces.
func (r *SQLRepository) FindExpirable(ctx context.Context, now time.Time) ([]models.Token, error) {
	rows, err := r.db.QueryContext(ctx, r.dialect.Rebind(selectExpirableQuery), now)
	if err != nil {
		return nil, &common.QueryError{Op: "select", Err: err}
	}
	defer rows.Close()

	var result []models.Token
	for rows.Next() {
		var (
			tok       models.Token
			status    string
			issuedAt  timestamp
			expiresAt timestamp
		)
		if err := rows.Scan(&tok.TokenID, &tok.ReserveID, &tok.Amount, &issuedAt, &expiresAt, &status); err != nil {
			return nil, &common.QueryError{Op: "select", Err: fmt.Errorf("scan token row: %w", err)}
		}
		tok.IssuedAt = issuedAt.Time
		tok.ExpiresAt = expiresAt.Time
		tok.Status = models.Status(status)
		result = append(result, tok)
	}

	if err := rows.Err(); err != nil {
		return nil, &common.QueryError{Op: "select", Err: err}
	}

	return result, nil
}

// InsertExpired writes one expired row carrying src's immutable fields.
func (r *SQLRepository) InsertExpired(ctx context.Context, src models.Token) error {
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(insertExpiredQuery),
		src.TokenID, src.ReserveID, src.Amount, src.IssuedAt, src.ExpiresAt)
	if err != nil {
		return &common.InsertError{TokenID: src.TokenID, Err: err}
	}
	return nil
}
