package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLateDays(t *testing.T) {
	t.Parallel()

	due := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name       string
		returnedAt time.Time
		want       int64
	}{
		{"before due", due.Add(-time.Hour), 0},
		{"exactly at due", due, 0},
		{"same calendar day", due.Add(23 * time.Hour), 0},
		{"next morning", due.AddDate(0, 0, 1).Add(9 * time.Hour), 1},
		{"six days later", due.AddDate(0, 0, 6).Add(14 * time.Hour), 6},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, LateDays(due, tc.returnedAt))
		})
	}
}

func TestFineAmount(t *testing.T) {
	t.Parallel()

	due := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, int64(30), FineAmount(due, due.AddDate(0, 0, 6).Add(10*time.Hour), 5))
	assert.Equal(t, int64(0), FineAmount(due, due.Add(6*time.Hour), 5))
	assert.Equal(t, int64(0), FineAmount(due, due.AddDate(0, 0, 2), 0))
}

func TestRequestDueDate(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2025, 3, 1, 16, 45, 12, 0, time.UTC)
	want := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, want, RequestDueDate(issuedAt, 14))
}

func TestReservationDueDate(t *testing.T) {
	t.Parallel()

	issuedAt := time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC)
	// AddDate normalizes January 31 plus one month to March 3.
	want := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, want, ReservationDueDate(issuedAt))
}
