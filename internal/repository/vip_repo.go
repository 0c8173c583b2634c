package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ricoauto/gatepass/internal/domain"
)

type vipPassRepository struct {
	pool *pgxpool.Pool
}

func NewVipPassRepository(pool *pgxpool.Pool) VipPassRepository {
	return &vipPassRepository{pool: pool}
}

const vipPassCols = `id, vip_access_id, label, status, issue_count,
last_issued_pass_id, last_issued_at, created_at, updated_at`

func scanVipPass(row pgx.Row) (*domain.VipAccessCode, error) {
	var c domain.VipAccessCode
	err := row.Scan(
		&c.ID, &c.VipAccessID, &c.Label, &c.Status, &c.IssueCount,
		&c.LastIssuedPassID, &c.LastIssuedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *vipPassRepository) Create(ctx context.Context, code *domain.VipAccessCode) (*domain.VipAccessCode, error) {
	const q = `INSERT INTO vip_passes (vip_access_id, label, status)
		VALUES ($1, $2, $3)
		RETURNING ` + vipPassCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	created, err := scanVipPass(r.pool.QueryRow(ctx, q, code.VipAccessID, code.Label, code.Status))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateVipAccessID
		}
		return nil, err
	}
	return created, nil
}

func (r *vipPassRepository) CountByPrefix(ctx context.Context, prefix string) (int, error) {
	const q = `SELECT count(*) FROM vip_passes WHERE vip_access_id LIKE $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var count int
	err := r.pool.QueryRow(ctx, q, escapeLike(prefix)+"%").Scan(&count)
	return count, err
}

func (r *vipPassRepository) Exists(ctx context.Context, vipAccessID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM vip_passes WHERE vip_access_id = $1)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx, q, vipAccessID).Scan(&exists)
	return exists, err
}

func (r *vipPassRepository) FindActiveByID(ctx context.Context, vipAccessID string) (*domain.VipAccessCode, error) {
	const q = `SELECT ` + vipPassCols + ` FROM vip_passes
		WHERE vip_access_id = $1 AND status = 'active'`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	c, err := scanVipPass(r.pool.QueryRow(ctx, q, vipAccessID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// RecordIssue increments the code's issue counter atomically alongside the
// last-issued bookkeeping.
func (r *vipPassRepository) RecordIssue(ctx context.Context, vipAccessID, passID string, at time.Time) error {
	const q = `UPDATE vip_passes
		SET issue_count = issue_count + 1,
		    last_issued_pass_id = $2,
		    last_issued_at = $3,
		    updated_at = now()
		WHERE vip_access_id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, vipAccessID, passID, at)
	return err
}
