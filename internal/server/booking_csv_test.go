package server

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avoroshilov/lessonbook/internal/model"
)

func TestBookingsCSV(t *testing.T) {
	start := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	rows := []*model.BookingRow{
		{
			ID: 7, Status: model.BookingStatusConfirmed,
			SlotID: 3, StudentID: 11, TeacherID: 2, SubjectID: 5,
			StartTime: start, EndTime: start.Add(45 * time.Minute),
		},
		{
			ID: 8, Status: model.BookingStatusNew,
			SlotID: 4, StudentID: 12, TeacherID: 2, SubjectID: 5,
			StartTime: start.Add(time.Hour), EndTime: start.Add(time.Hour + 45*time.Minute),
		},
	}

	data, err := bookingsCSV(rows)
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(data, []byte("\ufeff")), "export starts with a UTF-8 BOM")

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(string(data), "\ufeff")), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "id;status;slot_id;student_id;teacher_id;subject_id;start_time;end_time", lines[0])
	assert.Equal(t, "7;confirmed;3;11;2;5;2026-04-10T09:00:00Z;2026-04-10T09:45:00Z", lines[1])
	assert.Equal(t, "8;new;4;12;2;5;2026-04-10T10:00:00Z;2026-04-10T10:45:00Z", lines[2])
}

func TestBookingsCSVEmpty(t *testing.T) {
	data, err := bookingsCSV(nil)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(strings.TrimPrefix(string(data), "\ufeff")), "\n")
	require.Len(t, lines, 1, "header only")
}
