package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/avoroshilov/lessonbook/internal/model"
	"github.com/avoroshilov/lessonbook/internal/repository/base"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SlotRepository struct {
	pool *pgxpool.Pool
}

func NewSlotRepository(pool *pgxpool.Pool) *SlotRepository {
	return &SlotRepository{pool: pool}
}

// Slot reads always derive free_spots from the live booking count; a stored
// counter would add a drift invariant for nothing.
const slotSelect = `
	SELECT s.id, s.teacher_id, s.subject_id, s.start_time, s.end_time,
	       COALESCE(s.mode, ''), s.lesson_type, s.capacity, s.status,
	       s.generation_id, s.created_at,
	       s.capacity - COALESCE(b.active_count, 0) AS free_spots
	FROM slots s
	LEFT JOIN (
		SELECT slot_id, COUNT(*) AS active_count
		FROM bookings
		WHERE status <> 'cancelled'
		GROUP BY slot_id
	) b ON b.slot_id = s.id
`

func scanSlot(row pgx.Row) (*model.Slot, error) {
	var s model.Slot
	err := row.Scan(
		&s.ID,
		&s.TeacherID,
		&s.SubjectID,
		&s.StartTime,
		&s.EndTime,
		&s.Mode,
		&s.LessonType,
		&s.Capacity,
		&s.Status,
		&s.GenerationID,
		&s.CreatedAt,
		&s.FreeSpots,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Create inserts a new slot on the caller's querier.
func (r *SlotRepository) Create(ctx context.Context, q base.Querier, slot *model.Slot) error {
	query := `
		INSERT INTO slots (teacher_id, subject_id, start_time, end_time, mode, lesson_type, capacity, status, generation_id)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9)
		RETURNING id, created_at
	`

	err := q.QueryRow(
		ctx, query,
		slot.TeacherID,
		slot.SubjectID,
		slot.StartTime,
		slot.EndTime,
		slot.Mode,
		slot.LessonType,
		slot.Capacity,
		slot.Status,
		slot.GenerationID,
	).Scan(&slot.ID, &slot.CreatedAt)

	if err != nil {
		return fmt.Errorf("create slot: %w", err)
	}

	return nil
}

// GetByID returns a slot with derived free_spots, or nil when absent.
func (r *SlotRepository) GetByID(ctx context.Context, id int64) (*model.Slot, error) {
	slot, err := scanSlot(r.pool.QueryRow(ctx, slotSelect+` WHERE s.id = $1`, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot by id: %w", err)
	}

	return slot, nil
}

// GetForUpdate loads the slot row under FOR UPDATE so the capacity check and
// the booking insert are serialized per slot. Must run inside a transaction.
func (r *SlotRepository) GetForUpdate(ctx context.Context, q base.Querier, id int64) (*model.Slot, error) {
	query := `
		SELECT id, teacher_id, subject_id, start_time, end_time,
		       COALESCE(mode, ''), lesson_type, capacity, status, generation_id, created_at
		FROM slots
		WHERE id = $1
		FOR UPDATE
	`

	var s model.Slot
	err := q.QueryRow(ctx, query, id).Scan(
		&s.ID,
		&s.TeacherID,
		&s.SubjectID,
		&s.StartTime,
		&s.EndTime,
		&s.Mode,
		&s.LessonType,
		&s.Capacity,
		&s.Status,
		&s.GenerationID,
		&s.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get slot for update: %w", err)
	}

	return &s, nil
}

// ExistsExact reports whether a non-cancelled slot with the identical
// (teacher, start, end) triple already exists. Generation idempotency check.
func (r *SlotRepository) ExistsExact(ctx context.Context, q base.Querier, teacherID int64, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM slots
			WHERE teacher_id = $1 AND start_time = $2 AND end_time = $3 AND status <> 'cancelled'
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, teacherID, start, end).Scan(&exists); err != nil {
		return false, fmt.Errorf("check exact slot: %w", err)
	}

	return exists, nil
}

// HasOverlap reports whether any non-cancelled slot of the teacher
// intersects [start, end).
func (r *SlotRepository) HasOverlap(ctx context.Context, q base.Querier, teacherID int64, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM slots
			WHERE teacher_id = $1
			  AND status <> 'cancelled'
			  AND start_time < $3
			  AND end_time > $2
		)
	`

	var exists bool
	if err := q.QueryRow(ctx, query, teacherID, start, end).Scan(&exists); err != nil {
		return false, fmt.Errorf("check slot overlap: %w", err)
	}

	return exists, nil
}

// SlotFilter narrows List; zero values mean "no filter".
type SlotFilter struct {
	TeacherID  int64
	SubjectID  int64
	Mode       string
	LessonType model.LessonType
	Status     model.SlotStatus
	FreeOnly   bool
	From       time.Time
	To         time.Time
}

// List returns a page of slots plus the filtered total, ordered by start.
func (r *SlotRepository) List(ctx context.Context, filter SlotFilter, limit, offset int) ([]*model.Slot, int64, error) {
	where := ` WHERE TRUE`
	args := []any{}

	if filter.TeacherID != 0 {
		args = append(args, filter.TeacherID)
		where += fmt.Sprintf(" AND s.teacher_id = $%d", len(args))
	}
	if filter.SubjectID != 0 {
		args = append(args, filter.SubjectID)
		where += fmt.Sprintf(" AND s.subject_id = $%d", len(args))
	}
	if filter.Mode != "" {
		args = append(args, filter.Mode)
		where += fmt.Sprintf(" AND s.mode = $%d", len(args))
	}
	if filter.LessonType != "" {
		args = append(args, filter.LessonType)
		where += fmt.Sprintf(" AND s.lesson_type = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		where += fmt.Sprintf(" AND s.status = $%d", len(args))
	}
	if !filter.From.IsZero() {
		args = append(args, filter.From)
		where += fmt.Sprintf(" AND s.start_time >= $%d", len(args))
	}
	if !filter.To.IsZero() {
		args = append(args, filter.To)
		where += fmt.Sprintf(" AND s.start_time < $%d", len(args))
	}
	if filter.FreeOnly {
		where += " AND s.capacity - COALESCE(b.active_count, 0) > 0"
	}

	countQuery := `
		SELECT COUNT(*)
		FROM slots s
		LEFT JOIN (
			SELECT slot_id, COUNT(*) AS active_count
			FROM bookings
			WHERE status <> 'cancelled'
			GROUP BY slot_id
		) b ON b.slot_id = s.id
	` + where

	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count slots: %w", err)
	}

	args = append(args, limit, offset)
	query := slotSelect + where +
		fmt.Sprintf(" ORDER BY s.start_time, s.id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list slots: %w", err)
	}
	defer rows.Close()

	var slots []*model.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan slot: %w", err)
		}
		slots = append(slots, slot)
	}

	return slots, total, nil
}

// IDsByTeacher returns ids of the teacher's non-cancelled slots.
func (r *SlotRepository) IDsByTeacher(ctx context.Context, q base.Querier, teacherID int64) ([]int64, error) {
	rows, err := q.Query(ctx,
		`SELECT id FROM slots WHERE teacher_id = $1 AND status <> 'cancelled'`, teacherID)
	if err != nil {
		return nil, fmt.Errorf("get teacher slot ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan slot id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, nil
}

// Update persists mutable slot fields.
func (r *SlotRepository) Update(ctx context.Context, q base.Querier, slot *model.Slot) error {
	query := `
		UPDATE slots
		SET mode = NULLIF($1, ''), lesson_type = $2, capacity = $3, status = $4
		WHERE id = $5
	`

	result, err := q.Exec(ctx, query, slot.Mode, slot.LessonType, slot.Capacity, slot.Status, slot.ID)
	if err != nil {
		return fmt.Errorf("update slot: %w", err)
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

// DeleteByTeacher removes all slots of a teacher on the caller's querier.
func (r *SlotRepository) DeleteByTeacher(ctx context.Context, q base.Querier, teacherID int64) error {
	if _, err := q.Exec(ctx, `DELETE FROM slots WHERE teacher_id = $1`, teacherID); err != nil {
		return fmt.Errorf("delete teacher slots: %w", err)
	}
	return nil
}

// Delete removes a single slot.
func (r *SlotRepository) Delete(ctx context.Context, q base.Querier, id int64) error {
	result, err := q.Exec(ctx, `DELETE FROM slots WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete slot: %w", err)
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}
