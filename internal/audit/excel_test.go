package audit

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"turfbook/internal/models"
)

func sampleRequests() []models.BookingRequest {
	created := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	return []models.BookingRequest{
		{
			ID: 1, Name: "Player One", RollNo: "23b0001", Email: "23b0001@example.edu",
			Purpose: "practice", PlayerCount: 8, Slot: 3, Date: "2025-06-01",
			Status: models.StatusAccepted, CreatedAt: created,
		},
		{
			ID: 2, Name: "Player Two", RollNo: "23b0002", Email: "23b0002@example.edu",
			Purpose: "match", PlayerCount: 11, Slot: 3, Date: "2025-06-01",
			Status: models.StatusDeclined, CreatedAt: created.Add(time.Minute),
		},
		{
			ID: 3, Name: "Player Three", RollNo: "23b0003", Email: "23b0003@example.edu",
			Purpose: "practice", PlayerCount: 6, Slot: 5, Date: "2025-06-02",
			Status: models.StatusPending, CreatedAt: created.Add(2 * time.Minute),
		},
	}
}

func TestWriteRequests(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRequests(&buf, sampleRequests()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	// One sheet per date.
	assert.ElementsMatch(t, []string{"2025-06-01", "2025-06-02"}, f.GetSheetList())

	rows, err := f.GetRows("2025-06-01")
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + two requests
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "23b0001", rows[1][2])
	assert.Equal(t, models.SlotTime(3), rows[1][7])
	assert.Equal(t, models.StatusDeclined, rows[2][9])

	rows, err = f.GetRows("2025-06-02")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "23b0003", rows[1][2])
}

func TestWriteRequestsEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRequests(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Requests"}, f.GetSheetList())

	rows, err := f.GetRows("Requests")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Roll No", rows[0][2])
}
