package export

import (
	"bytes"
	"testing"
	"time"

	"cleanbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestWriteBookings(t *testing.T) {
	date := "2026-02-20"
	created := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)
	bookings := []models.Booking{
		{
			ID: 2, ServiceType: "Windows Cleaning", Quantity: "3 Windows", Price: "R60",
			CustomerName: "John Doe", CustomerEmail: "john@example.com", CustomerPhone: "+27 71 359 3615",
			ServiceDate: &date, Status: models.StatusConfirmed, CreatedAt: created,
		},
		{
			ID: 1, ServiceType: "Carpet", Quantity: "1", Price: "R100",
			CustomerName: "Jane Doe", CustomerEmail: "jane@example.com", CustomerPhone: "+27 82 843 4110",
			Status: models.StatusPending, CreatedAt: created.Add(-time.Hour),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteBookings(&buf, bookings))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{sheetName}, f.GetSheetList())

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, headers, rows[0])
	assert.Equal(t, "2", rows[1][0])
	assert.Equal(t, "2026-02-01T09:30:00Z", rows[1][1])
	assert.Equal(t, "confirmed", rows[1][2])
	assert.Equal(t, "2026-02-20", rows[1][9])
	assert.Equal(t, "Jane Doe", rows[2][6])
	assert.Equal(t, "pending", rows[2][2])
}

func TestWriteBookings_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteBookings(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "bookings_2026-02-01_093000.xlsx", FileName(time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)))
}
