package resident

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carehq/carehq/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type residentRepoPG struct{ pool *pgxpool.Pool }

func NewResidentRepoPG(pool *pgxpool.Pool) ResidentRepository {
	return &residentRepoPG{pool: pool}
}

func (r *residentRepoPG) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return r.pool
}

const residentCols = `id, organization_id, team_id, first_name, last_name,
	date_of_birth, nhs_number, room_number, gp_name, admission_date, status,
	created_at, updated_at`

func scanResident(row pgx.Row) (*Resident, error) {
	var res Resident
	err := row.Scan(&res.ID, &res.OrganizationID, &res.TeamID, &res.FirstName, &res.LastName,
		&res.DateOfBirth, &res.NHSNumber, &res.RoomNumber, &res.GPName, &res.AdmissionDate, &res.Status,
		&res.CreatedAt, &res.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *residentRepoPG) Create(ctx context.Context, res *Resident) error {
	res.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO resident (id, organization_id, team_id, first_name, last_name,
			date_of_birth, nhs_number, room_number, gp_name, admission_date, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at, updated_at`,
		res.ID, res.OrganizationID, res.TeamID, res.FirstName, res.LastName,
		res.DateOfBirth, res.NHSNumber, res.RoomNumber, res.GPName, res.AdmissionDate, res.Status,
	).Scan(&res.CreatedAt, &res.UpdatedAt)
}

func (r *residentRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Resident, error) {
	return scanResident(r.conn(ctx).QueryRow(ctx,
		`SELECT `+residentCols+` FROM resident WHERE id = $1`, id))
}

func (r *residentRepoPG) Update(ctx context.Context, res *Resident) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE resident SET organization_id=$2, team_id=$3, first_name=$4, last_name=$5,
			date_of_birth=$6, nhs_number=$7, room_number=$8, gp_name=$9,
			admission_date=$10, status=$11, updated_at=NOW()
		WHERE id = $1`,
		res.ID, res.OrganizationID, res.TeamID, res.FirstName, res.LastName,
		res.DateOfBirth, res.NHSNumber, res.RoomNumber, res.GPName,
		res.AdmissionDate, res.Status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *residentRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM resident WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *residentRepoPG) List(ctx context.Context, limit, offset int) ([]*Resident, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM resident`).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+residentCols+` FROM resident ORDER BY last_name, first_name LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var items []*Resident
	for rows.Next() {
		res, err := scanResident(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, res)
	}
	return items, total, rows.Err()
}
