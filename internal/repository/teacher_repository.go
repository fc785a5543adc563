package repository

import (
	"context"
	"fmt"

	"github.com/avoroshilov/lessonbook/internal/model"
	"github.com/avoroshilov/lessonbook/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type TeacherRepository struct {
	pool *pgxpool.Pool
}

func NewTeacherRepository(pool *pgxpool.Pool) *TeacherRepository {
	return &TeacherRepository{pool: pool}
}

// Create inserts a teacher card for an existing user. Runs on the caller's
// querier so card creation, subject links and role promotion commit together.
func (r *TeacherRepository) Create(ctx context.Context, q base.Querier, teacher *model.Teacher) error {
	query := `
		INSERT INTO teachers (id, default_mode, bio)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''))
		RETURNING created_at
	`

	err := q.QueryRow(ctx, query, teacher.ID, string(teacher.DefaultMode), teacher.Bio).Scan(&teacher.CreatedAt)
	if err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}

	return nil
}

// GetByID returns a teacher card with its user, or nil when absent.
func (r *TeacherRepository) GetByID(ctx context.Context, id int64) (*model.Teacher, error) {
	query := `
		SELECT t.id, COALESCE(t.default_mode, ''), COALESCE(t.bio, ''), t.created_at,
		       ` + prefixedUserColumns("u") + `
		FROM teachers t
		JOIN users u ON u.id = t.id
		WHERE t.id = $1
	`

	teacher, err := scanTeacher(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get teacher by id: %w", err)
	}

	return teacher, nil
}

// Exists reports whether the user already has a teacher card.
func (r *TeacherRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM teachers WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check teacher exists: %w", err)
	}
	return exists, nil
}

// LockForGeneration takes the teacher row lock that serializes concurrent
// slot generation for one teacher. Returns false when the teacher is absent.
func (r *TeacherRepository) LockForGeneration(ctx context.Context, q base.Querier, id int64) (bool, error) {
	var locked int64
	err := q.QueryRow(ctx, `SELECT id FROM teachers WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		if err == pgx.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("lock teacher: %w", err)
	}
	return true, nil
}

// TeacherFilter narrows List.
type TeacherFilter struct {
	Query     string
	SubjectID int64
}

// List returns teacher cards with users plus the filtered total.
func (r *TeacherRepository) List(ctx context.Context, filter TeacherFilter, limit, offset int) ([]*model.Teacher, int64, error) {
	from := ` FROM teachers t JOIN users u ON u.id = t.id`
	where := ` WHERE TRUE`
	args := []any{}

	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		n := len(args)
		where += fmt.Sprintf(
			" AND (u.first_name ILIKE $%d OR u.last_name ILIKE $%d OR u.username ILIKE $%d OR u.email ILIKE $%d OR u.phone ILIKE $%d)",
			n, n, n, n, n,
		)
	}
	if filter.SubjectID != 0 {
		args = append(args, filter.SubjectID)
		where += fmt.Sprintf(
			" AND EXISTS(SELECT 1 FROM teacher_subjects ts WHERE ts.teacher_id = t.id AND ts.subject_id = $%d)",
			len(args),
		)
	}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*)`+from+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}

	args = append(args, limit, offset)
	query := `SELECT t.id, COALESCE(t.default_mode, ''), COALESCE(t.bio, ''), t.created_at, ` +
		prefixedUserColumns("u") + from + where +
		fmt.Sprintf(" ORDER BY t.created_at, t.id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}
	defer rows.Close()

	var teachers []*model.Teacher
	for rows.Next() {
		teacher, err := scanTeacher(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan teacher: %w", err)
		}
		teachers = append(teachers, teacher)
	}

	return teachers, total, nil
}

// Update persists default_mode/bio changes.
func (r *TeacherRepository) Update(ctx context.Context, teacher *model.Teacher) error {
	query := `UPDATE teachers SET default_mode = NULLIF($1, ''), bio = NULLIF($2, '') WHERE id = $3`

	result, err := r.pool.Exec(ctx, query, string(teacher.DefaultMode), teacher.Bio, teacher.ID)
	if err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

// Delete removes the teacher card. Slots and subject links are handled by
// the service before this call.
func (r *TeacherRepository) Delete(ctx context.Context, q base.Querier, id int64) error {
	result, err := q.Exec(ctx, `DELETE FROM teachers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete teacher: %w", err)
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

// SetSubjects replaces the teacher's subject set.
func (r *TeacherRepository) SetSubjects(ctx context.Context, q base.Querier, teacherID int64, subjectIDs []int64) error {
	if _, err := q.Exec(ctx, `DELETE FROM teacher_subjects WHERE teacher_id = $1`, teacherID); err != nil {
		return fmt.Errorf("clear teacher subjects: %w", err)
	}

	for _, subjectID := range subjectIDs {
		_, err := q.Exec(ctx,
			`INSERT INTO teacher_subjects (teacher_id, subject_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			teacherID, subjectID,
		)
		if err != nil {
			return fmt.Errorf("link teacher subject: %w", err)
		}
	}

	return nil
}

// SubjectIDs returns subject ids per teacher for the given teachers.
func (r *TeacherRepository) SubjectIDs(ctx context.Context, teacherIDs []int64) (map[int64][]int64, error) {
	out := make(map[int64][]int64, len(teacherIDs))
	if len(teacherIDs) == 0 {
		return out, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT teacher_id, subject_id FROM teacher_subjects WHERE teacher_id = ANY($1) ORDER BY subject_id`,
		teacherIDs,
	)
	if err != nil {
		return nil, fmt.Errorf("get teacher subjects: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var teacherID, subjectID int64
		if err := rows.Scan(&teacherID, &subjectID); err != nil {
			return nil, fmt.Errorf("scan teacher subject: %w", err)
		}
		out[teacherID] = append(out[teacherID], subjectID)
	}

	return out, nil
}

func prefixedUserColumns(alias string) string {
	return alias + `.id, ` + alias + `.telegram_id, ` + alias + `.role, ` +
		`COALESCE(` + alias + `.first_name, ''), COALESCE(` + alias + `.last_name, ''), ` +
		`COALESCE(` + alias + `.username, ''), COALESCE(` + alias + `.phone, ''), ` +
		`COALESCE(` + alias + `.email, ''), ` + alias + `.is_verified, ` + alias + `.created_at`
}

func scanTeacher(row pgx.Row) (*model.Teacher, error) {
	var t model.Teacher
	var u model.User
	var mode string
	err := row.Scan(
		&t.ID, &mode, &t.Bio, &t.CreatedAt,
		&u.ID, &u.TelegramID, &u.Role, &u.FirstName, &u.LastName,
		&u.Username, &u.Phone, &u.Email, &u.IsVerified, &u.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.DefaultMode = model.TeacherMode(mode)
	t.User = &u
	t.UserName = u.DisplayName()
	t.SubjectIDs = []int64{}
	return &t, nil
}
