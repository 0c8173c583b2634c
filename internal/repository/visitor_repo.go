package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ricoauto/gatepass/internal/domain"
)

type visitorRepository struct {
	pool *pgxpool.Pool
}

func NewVisitorRepository(pool *pgxpool.Pool) VisitorRepository {
	return &visitorRepository{pool: pool}
}

const visitorCols = `id, pass_id, name, phone, visitor_type,
company_type, company, rico_unit, visit_type, person_to_meet,
department, id_proof_type, id_proof_number, carries_laptop, laptop_serial_number,
remarks, is_vip, vip_access_id, qr_payload, status,
date, time_in, time_out, created_at, updated_at`

func scanVisitor(row pgx.Row) (*domain.VisitorPass, error) {
	var v domain.VisitorPass
	err := row.Scan(
		&v.ID, &v.PassID, &v.Name, &v.Phone, &v.VisitorType,
		&v.CompanyType, &v.Company, &v.RicoUnit, &v.VisitType, &v.PersonToMeet,
		&v.Department, &v.IDProofType, &v.IDProofNumber, &v.CarriesLaptop, &v.LaptopSerialNumber,
		&v.Remarks, &v.IsVip, &v.VipAccessID, &v.QRPayload, &v.Status,
		&v.Date, &v.TimeIn, &v.TimeOut, &v.CreatedAt, &v.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func collectVisitors(rows pgx.Rows) ([]domain.VisitorPass, error) {
	defer rows.Close()

	var visitors []domain.VisitorPass
	for rows.Next() {
		v, err := scanVisitor(rows)
		if err != nil {
			return nil, err
		}
		visitors = append(visitors, *v)
	}
	return visitors, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// escapeLike escapes LIKE/ILIKE metacharacters so user input matches
// literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (r *visitorRepository) Create(ctx context.Context, v *domain.VisitorPass) (*domain.VisitorPass, error) {
	const q = `INSERT INTO visitors (
		pass_id, name, phone, visitor_type,
		company_type, company, rico_unit, visit_type, person_to_meet,
		department, id_proof_type, id_proof_number, carries_laptop, laptop_serial_number,
		remarks, is_vip, vip_access_id, qr_payload, status,
		date, time_in, time_out
	) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
	RETURNING ` + visitorCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	created, err := scanVisitor(r.pool.QueryRow(ctx, q,
		v.PassID, v.Name, v.Phone, v.VisitorType,
		v.CompanyType, v.Company, v.RicoUnit, v.VisitType, v.PersonToMeet,
		v.Department, v.IDProofType, v.IDProofNumber, v.CarriesLaptop, v.LaptopSerialNumber,
		v.Remarks, v.IsVip, v.VipAccessID, v.QRPayload, v.Status,
		v.Date, v.TimeIn, v.TimeOut,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicatePassID
		}
		return nil, err
	}
	return created, nil
}

func (r *visitorRepository) CountByPassIDPrefix(ctx context.Context, prefix string) (int, error) {
	const q = `SELECT count(*) FROM visitors WHERE pass_id LIKE $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var count int
	err := r.pool.QueryRow(ctx, q, escapeLike(prefix)+"%").Scan(&count)
	return count, err
}

func (r *visitorRepository) PassIDExists(ctx context.Context, passID string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM visitors WHERE pass_id = $1)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx, q, passID).Scan(&exists)
	return exists, err
}

func (r *visitorRepository) PhoneExists(ctx context.Context, phone string) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM visitors WHERE phone = $1)`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var exists bool
	err := r.pool.QueryRow(ctx, q, phone).Scan(&exists)
	return exists, err
}

func (r *visitorRepository) FindByPassID(ctx context.Context, passID, phone string) (*domain.VisitorPass, error) {
	q := `SELECT ` + visitorCols + ` FROM visitors WHERE pass_id = $1`
	args := []any{passID}
	if phone != "" {
		q += ` AND phone = $2`
		args = append(args, phone)
	}
	q += ` ORDER BY created_at DESC LIMIT 1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	v, err := scanVisitor(r.pool.QueryRow(ctx, q, args...))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return v, err
}

func (r *visitorRepository) FindLatestByNameAndPhone(ctx context.Context, name, phone string) (*domain.VisitorPass, error) {
	const q = `SELECT ` + visitorCols + ` FROM visitors
		WHERE lower(name) = lower($1) AND phone = $2
		ORDER BY created_at DESC LIMIT 1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	v, err := scanVisitor(r.pool.QueryRow(ctx, q, name, phone))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return v, err
}

func (r *visitorRepository) FindLatestByPhone(ctx context.Context, phone string) (*domain.VisitorPass, error) {
	const q = `SELECT ` + visitorCols + ` FROM visitors
		WHERE phone = $1
		ORDER BY created_at DESC LIMIT 1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	v, err := scanVisitor(r.pool.QueryRow(ctx, q, phone))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return v, err
}

func (r *visitorRepository) FindLatestByName(ctx context.Context, name string) (*domain.VisitorPass, error) {
	const q = `SELECT ` + visitorCols + ` FROM visitors
		WHERE lower(name) = lower($1)
		ORDER BY created_at DESC LIMIT 1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	v, err := scanVisitor(r.pool.QueryRow(ctx, q, name))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return v, err
}

func (r *visitorRepository) SuggestNames(ctx context.Context, prefix string, limit int) ([]string, error) {
	if limit <= 0 || limit > 200 {
		limit = 100
	}

	const q = `SELECT name FROM visitors
		WHERE name ILIKE $1
		ORDER BY created_at DESC
		LIMIT $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, escapeLike(prefix)+"%", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (r *visitorRepository) SetCompleted(ctx context.Context, id int64, at time.Time) error {
	const q = `UPDATE visitors
		SET status = 'completed', time_out = $2, updated_at = now()
		WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	_, err := r.pool.Exec(ctx, q, id, at)
	return err
}

func (r *visitorRepository) DeleteByPassID(ctx context.Context, passID string) (bool, error) {
	const q = `DELETE FROM visitors WHERE pass_id = $1`
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, passID)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() > 0, nil
}

func (r *visitorRepository) ListBetween(ctx context.Context, start, end time.Time) ([]domain.VisitorPass, error) {
	const q = `SELECT ` + visitorCols + ` FROM visitors
		WHERE date >= $1 AND date <= $2
		ORDER BY time_in DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, start, end)
	if err != nil {
		return nil, err
	}
	return collectVisitors(rows)
}

// ListActive matches tolerantly: a normalized active status, or a legacy
// record not yet marked completed and without an exit time.
func (r *visitorRepository) ListActive(ctx context.Context) ([]domain.VisitorPass, error) {
	const q = `SELECT ` + visitorCols + ` FROM visitors
		WHERE lower(status) = 'active'
		   OR (time_out IS NULL AND lower(status) <> 'completed')
		ORDER BY time_in ASC, created_at ASC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return collectVisitors(rows)
}

func (r *visitorRepository) ListHistory(ctx context.Context, start, end *time.Time) ([]domain.VisitorPass, error) {
	q := `SELECT ` + visitorCols + ` FROM visitors`
	var args []any

	if start != nil && end != nil {
		q += ` WHERE (date BETWEEN $1 AND $2)
			OR (time_in BETWEEN $1 AND $2)
			OR (created_at BETWEEN $1 AND $2)`
		args = append(args, *start, *end)
	}
	q += ` ORDER BY time_in DESC, created_at DESC`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return collectVisitors(rows)
}

func (r *visitorRepository) FindLatestVip(ctx context.Context, passID, vipAccessID string, activeOnly bool) (*domain.VisitorPass, error) {
	q := `SELECT ` + visitorCols + ` FROM visitors WHERE is_vip`
	var args []any

	if passID != "" {
		q += ` AND pass_id = $1`
		args = append(args, passID)
	} else {
		q += ` AND vip_access_id = $1`
		args = append(args, vipAccessID)
	}
	if activeOnly {
		q += ` AND status = 'active'`
	}
	q += ` ORDER BY time_in DESC LIMIT 1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	v, err := scanVisitor(r.pool.QueryRow(ctx, q, args...))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return v, err
}

func (r *visitorRepository) ListVipLogs(ctx context.Context, limit int) ([]domain.VisitorPass, error) {
	if limit <= 0 || limit > 200 {
		limit = 30
	}

	const q = `SELECT ` + visitorCols + ` FROM visitors
		WHERE is_vip
		ORDER BY time_in DESC
		LIMIT $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	return collectVisitors(rows)
}
