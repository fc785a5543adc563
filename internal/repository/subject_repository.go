package repository

import (
	"context"
	"fmt"

	"github.com/avoroshilov/lessonbook/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SubjectRepository struct {
	pool *pgxpool.Pool
}

func NewSubjectRepository(pool *pgxpool.Pool) *SubjectRepository {
	return &SubjectRepository{pool: pool}
}

// Create inserts a new subject.
func (r *SubjectRepository) Create(ctx context.Context, subject *model.Subject) error {
	query := `
		INSERT INTO subjects (name, code)
		VALUES ($1, NULLIF($2, ''))
		RETURNING id
	`

	err := r.pool.QueryRow(ctx, query, subject.Name, subject.Code).Scan(&subject.ID)
	if err != nil {
		return fmt.Errorf("create subject: %w", err)
	}

	return nil
}

// GetByID returns a subject or nil when absent.
func (r *SubjectRepository) GetByID(ctx context.Context, id int64) (*model.Subject, error) {
	query := `SELECT id, name, COALESCE(code, '') FROM subjects WHERE id = $1`

	var subject model.Subject
	err := r.pool.QueryRow(ctx, query, id).Scan(&subject.ID, &subject.Name, &subject.Code)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get subject by id: %w", err)
	}

	return &subject, nil
}

// ExistingIDs returns which of the given subject ids are present.
func (r *SubjectRepository) ExistingIDs(ctx context.Context, ids []int64) (map[int64]bool, error) {
	if len(ids) == 0 {
		return map[int64]bool{}, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT id FROM subjects WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("check subject ids: %w", err)
	}
	defer rows.Close()

	found := make(map[int64]bool, len(ids))
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan subject id: %w", err)
		}
		found[id] = true
	}

	return found, nil
}

// List returns a page of subjects plus the filtered total.
func (r *SubjectRepository) List(ctx context.Context, query string, limit, offset int) ([]*model.Subject, int64, error) {
	where := ` WHERE TRUE`
	args := []any{}

	if query != "" {
		args = append(args, "%"+query+"%")
		n := len(args)
		where += fmt.Sprintf(" AND (name ILIKE $%d OR code ILIKE $%d)", n, n)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM subjects`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count subjects: %w", err)
	}

	args = append(args, limit, offset)
	sql := `SELECT id, name, COALESCE(code, '') FROM subjects` + where +
		fmt.Sprintf(" ORDER BY id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	var subjects []*model.Subject
	for rows.Next() {
		var subject model.Subject
		if err := rows.Scan(&subject.ID, &subject.Name, &subject.Code); err != nil {
			return nil, 0, fmt.Errorf("scan subject: %w", err)
		}
		subjects = append(subjects, &subject)
	}

	return subjects, total, nil
}

// Update persists name/code changes.
func (r *SubjectRepository) Update(ctx context.Context, subject *model.Subject) error {
	query := `UPDATE subjects SET name = $1, code = NULLIF($2, '') WHERE id = $3`

	result, err := r.pool.Exec(ctx, query, subject.Name, subject.Code, subject.ID)
	if err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

// ReferenceCounts returns how many teacher links and slots still point at
// the subject. Deletion is refused while either is non-zero.
func (r *SubjectRepository) ReferenceCounts(ctx context.Context, id int64) (teacherLinks, slots int64, err error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM teacher_subjects WHERE subject_id = $1),
			(SELECT COUNT(*) FROM slots WHERE subject_id = $1)
	`

	if err := r.pool.QueryRow(ctx, query, id).Scan(&teacherLinks, &slots); err != nil {
		return 0, 0, fmt.Errorf("count subject references: %w", err)
	}

	return teacherLinks, slots, nil
}

// Delete removes a subject.
func (r *SubjectRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete subject: %w", err)
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}
