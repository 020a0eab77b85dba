package assessment

import (
	"context"
	"errors"
	"fmt"

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

// PGStore persists assessment records in the tenant's `assessment` table.
// All form kinds share one table; the payload column is JSONB.
type PGStore struct{ pool *pgxpool.Pool }

func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

func (s *PGStore) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return s.pool
}

const recordCols = `id, form_kind, resident_id, organization_id, team_id, status,
	submitted_at, created_by, last_modified_by,
	pdf_file_id, pdf_generated_at, pdf_status, pdf_error,
	payload, created_at`

func scanRecord(row pgx.Row) (*Record, error) {
	var rec Record
	err := row.Scan(&rec.ID, &rec.FormKind, &rec.ResidentID, &rec.OrganizationID, &rec.TeamID, &rec.Status,
		&rec.SubmittedAt, &rec.CreatedBy, &rec.LastModifiedBy,
		&rec.PDFFileID, &rec.PDFGeneratedAt, &rec.PDFStatus, &rec.PDFError,
		&rec.Payload, &rec.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *PGStore) Insert(ctx context.Context, rec *Record) error {
	rec.ID = uuid.New()
	err := s.conn(ctx).QueryRow(ctx, `
		INSERT INTO assessment (id, form_kind, resident_id, organization_id, team_id, status,
			submitted_at, created_by, last_modified_by, pdf_status, payload)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at`,
		rec.ID, rec.FormKind, rec.ResidentID, rec.OrganizationID, rec.TeamID, rec.Status,
		rec.SubmittedAt, rec.CreatedBy, rec.LastModifiedBy, rec.PDFStatus, rec.Payload,
	).Scan(&rec.CreatedAt)

	// The partial unique index on (resident_id, form_kind) WHERE
	// status='draft' turns a concurrent draft insert into a conflict.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrDraftExists
	}
	return err
}

func (s *PGStore) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	return scanRecord(s.conn(ctx).QueryRow(ctx,
		`SELECT `+recordCols+` FROM assessment WHERE id = $1`, id))
}

func (s *PGStore) Patch(ctx context.Context, id uuid.UUID, p Patch) error {
	set := make([]string, 0, 8)
	args := []interface{}{id}
	add := func(col string, v interface{}) {
		args = append(args, v)
		set = append(set, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if p.Payload != nil {
		add("payload", p.Payload)
	}
	if p.LastModifiedBy != nil {
		add("last_modified_by", *p.LastModifiedBy)
	}
	if p.Status != nil {
		add("status", *p.Status)
	}
	if p.SubmittedAt != nil {
		add("submitted_at", *p.SubmittedAt)
	}
	if p.PDFFileID != nil {
		if *p.PDFFileID == "" {
			add("pdf_file_id", nil)
		} else {
			add("pdf_file_id", *p.PDFFileID)
		}
	}
	if p.PDFGeneratedAt != nil {
		add("pdf_generated_at", *p.PDFGeneratedAt)
	}
	if p.PDFStatus != nil {
		add("pdf_status", *p.PDFStatus)
	}
	if p.PDFError != nil {
		if *p.PDFError == "" {
			add("pdf_error", nil)
		} else {
			add("pdf_error", *p.PDFError)
		}
	}
	if len(set) == 0 {
		return nil
	}

	sql := "UPDATE assessment SET " + set[0]
	for _, clause := range set[1:] {
		sql += ", " + clause
	}
	sql += " WHERE id = $1"

	tag, err := s.conn(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.conn(ctx).Exec(ctx, `DELETE FROM assessment WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PGStore) ListByResident(ctx context.Context, formKind string, residentID uuid.UUID) ([]*Record, error) {
	rows, err := s.conn(ctx).Query(ctx, `
		SELECT `+recordCols+` FROM assessment
		WHERE form_kind = $1 AND resident_id = $2
		ORDER BY created_at DESC, id DESC`,
		formKind, residentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rec)
	}
	return items, rows.Err()
}

func (s *PGStore) FindDraft(ctx context.Context, formKind string, residentID uuid.UUID) (*Record, error) {
	return scanRecord(s.conn(ctx).QueryRow(ctx, `
		SELECT `+recordCols+` FROM assessment
		WHERE form_kind = $1 AND resident_id = $2 AND status = 'draft'`,
		formKind, residentID))
}
