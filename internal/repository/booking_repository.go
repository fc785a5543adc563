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

type BookingRepository struct {
	pool *pgxpool.Pool
}

func NewBookingRepository(pool *pgxpool.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

// Create inserts a new booking on the caller's querier. The capacity check
// and this insert must share a transaction holding the slot row lock.
func (r *BookingRepository) Create(ctx context.Context, q base.Querier, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (slot_id, student_id, status)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query, booking.SlotID, booking.StudentID, booking.Status).
		Scan(&booking.ID, &booking.CreatedAt, &booking.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}

	return nil
}

// GetByID returns a booking or nil when absent.
func (r *BookingRepository) GetByID(ctx context.Context, id int64) (*model.Booking, error) {
	query := `
		SELECT id, slot_id, student_id, status, reminded_at, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`

	var b model.Booking
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&b.ID, &b.SlotID, &b.StudentID, &b.Status, &b.RemindedAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get booking by id: %w", err)
	}

	return &b, nil
}

// CountActiveForSlot counts non-cancelled bookings on a slot.
func (r *BookingRepository) CountActiveForSlot(ctx context.Context, q base.Querier, slotID int64) (int64, error) {
	var count int64
	err := q.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE slot_id = $1 AND status <> 'cancelled'`, slotID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active bookings: %w", err)
	}
	return count, nil
}

// HasActiveForStudent reports whether the student already holds a
// non-cancelled booking on the slot.
func (r *BookingRepository) HasActiveForStudent(ctx context.Context, q base.Querier, slotID, studentID int64) (bool, error) {
	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM bookings WHERE slot_id = $1 AND student_id = $2 AND status <> 'cancelled')`,
		slotID, studentID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check duplicate booking: %w", err)
	}
	return exists, nil
}

// UpdateStatus moves the booking from one status to another in a single
// guarded statement, so a concurrent writer cannot slip between the
// transition check and the write. Returns false when the row is gone or no
// longer holds from.
func (r *BookingRepository) UpdateStatus(ctx context.Context, q base.Querier, id int64, from, to model.BookingStatus) (bool, error) {
	query := `UPDATE bookings SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3`

	result, err := q.Exec(ctx, query, to, id, from)
	if err != nil {
		return false, fmt.Errorf("update booking status: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// CancelForSlot bulk-cancels every active booking on a slot. Idempotent:
// zero affected rows is not an error.
func (r *BookingRepository) CancelForSlot(ctx context.Context, q base.Querier, slotID int64) (int64, error) {
	query := `
		UPDATE bookings
		SET status = 'cancelled', updated_at = NOW()
		WHERE slot_id = $1 AND status <> 'cancelled'
	`

	result, err := q.Exec(ctx, query, slotID)
	if err != nil {
		return 0, fmt.Errorf("cancel bookings for slot: %w", err)
	}

	return result.RowsAffected(), nil
}

// CountActiveForStudent counts the student's non-cancelled bookings.
func (r *BookingRepository) CountActiveForStudent(ctx context.Context, studentID int64) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings WHERE student_id = $1 AND status <> 'cancelled'`, studentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count student bookings: %w", err)
	}
	return count, nil
}

// BookingFilter narrows List; zero values mean "no filter".
type BookingFilter struct {
	Status    model.BookingStatus
	SlotID    int64
	StudentID int64
	TeacherID int64
	SubjectID int64
	From      time.Time
	To        time.Time
}

func (f BookingFilter) whereClause() (string, []any) {
	where := ` WHERE TRUE`
	args := []any{}

	if f.Status != "" {
		args = append(args, f.Status)
		where += fmt.Sprintf(" AND b.status = $%d", len(args))
	}
	if f.SlotID != 0 {
		args = append(args, f.SlotID)
		where += fmt.Sprintf(" AND b.slot_id = $%d", len(args))
	}
	if f.StudentID != 0 {
		args = append(args, f.StudentID)
		where += fmt.Sprintf(" AND b.student_id = $%d", len(args))
	}
	if f.TeacherID != 0 {
		args = append(args, f.TeacherID)
		where += fmt.Sprintf(" AND s.teacher_id = $%d", len(args))
	}
	if f.SubjectID != 0 {
		args = append(args, f.SubjectID)
		where += fmt.Sprintf(" AND s.subject_id = $%d", len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		where += fmt.Sprintf(" AND s.start_time >= $%d", len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		where += fmt.Sprintf(" AND s.start_time < $%d", len(args))
	}

	return where, args
}

const bookingRowSelect = `
	SELECT b.id, b.status, b.slot_id, b.student_id,
	       s.start_time, s.end_time, s.teacher_id, s.subject_id
	FROM bookings b
	JOIN slots s ON s.id = b.slot_id
`

// List returns a page of denormalized booking rows plus the filtered total,
// newest lessons first.
func (r *BookingRepository) List(ctx context.Context, filter BookingFilter, limit, offset int) ([]*model.BookingRow, int64, error) {
	where, args := filter.whereClause()

	var total int64
	countQuery := `SELECT COUNT(*) FROM bookings b JOIN slots s ON s.id = b.slot_id` + where
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bookings: %w", err)
	}

	args = append(args, limit, offset)
	query := bookingRowSelect + where +
		fmt.Sprintf(" ORDER BY s.start_time DESC, b.id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	items, err := scanBookingRows(rows)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// ListAll returns every row matching the filter, oldest lessons first.
// Used by the CSV export.
func (r *BookingRepository) ListAll(ctx context.Context, filter BookingFilter) ([]*model.BookingRow, error) {
	where, args := filter.whereClause()
	query := bookingRowSelect + where + ` ORDER BY s.start_time, b.id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("export bookings: %w", err)
	}
	defer rows.Close()

	return scanBookingRows(rows)
}

func scanBookingRows(rows pgx.Rows) ([]*model.BookingRow, error) {
	var items []*model.BookingRow
	for rows.Next() {
		var row model.BookingRow
		err := rows.Scan(
			&row.ID, &row.Status, &row.SlotID, &row.StudentID,
			&row.StartTime, &row.EndTime, &row.TeacherID, &row.SubjectID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan booking row: %w", err)
		}
		items = append(items, &row)
	}
	return items, nil
}

// ListByStudent returns the student's bookings with slot details attached.
func (r *BookingRepository) ListByStudent(ctx context.Context, studentID int64) ([]*model.Booking, error) {
	query := `
		SELECT b.id, b.slot_id, b.student_id, b.status, b.reminded_at, b.created_at, b.updated_at,
		       s.teacher_id, s.subject_id, s.start_time, s.end_time, COALESCE(s.mode, ''), s.lesson_type, s.capacity, s.status
		FROM bookings b
		JOIN slots s ON s.id = b.slot_id
		WHERE b.student_id = $1
		ORDER BY s.start_time DESC
	`

	rows, err := r.pool.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("get bookings by student: %w", err)
	}
	defer rows.Close()

	var bookings []*model.Booking
	for rows.Next() {
		var b model.Booking
		var s model.Slot
		err := rows.Scan(
			&b.ID, &b.SlotID, &b.StudentID, &b.Status, &b.RemindedAt, &b.CreatedAt, &b.UpdatedAt,
			&s.TeacherID, &s.SubjectID, &s.StartTime, &s.EndTime, &s.Mode, &s.LessonType, &s.Capacity, &s.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("scan booking: %w", err)
		}
		s.ID = b.SlotID
		b.Slot = &s
		bookings = append(bookings, &b)
	}

	return bookings, nil
}

// Delete removes a booking.
func (r *BookingRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.pool.Exec(ctx, `DELETE FROM bookings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete booking: %w", err)
	}
	if result.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	return nil
}

// Reminder is one due reminder with everything the worker needs to notify.
type Reminder struct {
	BookingID        int64
	StudentTelegram  int64
	StudentFirstName string
	SubjectName      string
	StartTime        time.Time
}

// DueReminders finds confirmed bookings whose slot starts within lead from
// now and that have not been reminded yet.
func (r *BookingRepository) DueReminders(ctx context.Context, lead time.Duration) ([]*Reminder, error) {
	query := `
		SELECT b.id, u.telegram_id, COALESCE(u.first_name, ''), subj.name, s.start_time
		FROM bookings b
		JOIN slots s ON s.id = b.slot_id
		JOIN users u ON u.id = b.student_id
		JOIN subjects subj ON subj.id = s.subject_id
		WHERE b.status = 'confirmed'
		  AND b.reminded_at IS NULL
		  AND s.start_time > NOW()
		  AND s.start_time <= NOW() + $1::interval
	`

	rows, err := r.pool.Query(ctx, query, fmt.Sprintf("%d minutes", int(lead.Minutes())))
	if err != nil {
		return nil, fmt.Errorf("find due reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*Reminder
	for rows.Next() {
		var rem Reminder
		err := rows.Scan(&rem.BookingID, &rem.StudentTelegram, &rem.StudentFirstName, &rem.SubjectName, &rem.StartTime)
		if err != nil {
			return nil, fmt.Errorf("scan reminder: %w", err)
		}
		reminders = append(reminders, &rem)
	}

	return reminders, nil
}

// TeacherLoadRow aggregates a teacher's confirmed workload over a period.
type TeacherLoadRow struct {
	TeacherID    int64
	TeacherName  string
	Confirmed    int64
	TotalMinutes int64
}

// TeacherLoad sums confirmed bookings and lesson minutes per teacher for
// slots starting inside [from, to). Teachers without confirmed bookings in
// the period are omitted.
func (r *BookingRepository) TeacherLoad(ctx context.Context, from, to time.Time) ([]*TeacherLoadRow, error) {
	query := `
		SELECT s.teacher_id,
		       TRIM(COALESCE(u.first_name, '') || ' ' || COALESCE(u.last_name, '')),
		       COUNT(*),
		       COALESCE(SUM(EXTRACT(EPOCH FROM (s.end_time - s.start_time)) / 60), 0)::bigint
		FROM bookings b
		JOIN slots s ON s.id = b.slot_id
		JOIN users u ON u.id = s.teacher_id
		WHERE b.status = 'confirmed'
		  AND s.start_time >= $1
		  AND s.start_time < $2
		GROUP BY s.teacher_id, u.first_name, u.last_name
		ORDER BY COUNT(*) DESC, s.teacher_id
	`

	rows, err := r.pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("teacher load report: %w", err)
	}
	defer rows.Close()

	var report []*TeacherLoadRow
	for rows.Next() {
		var row TeacherLoadRow
		if err := rows.Scan(&row.TeacherID, &row.TeacherName, &row.Confirmed, &row.TotalMinutes); err != nil {
			return nil, fmt.Errorf("scan teacher load row: %w", err)
		}
		report = append(report, &row)
	}

	return report, nil
}

// MarkReminded stamps the booking so the reminder is sent once.
func (r *BookingRepository) MarkReminded(ctx context.Context, bookingID int64) error {
	if _, err := r.pool.Exec(ctx, `UPDATE bookings SET reminded_at = NOW() WHERE id = $1`, bookingID); err != nil {
		return fmt.Errorf("mark reminded: %w", err)
	}
	return nil
}
