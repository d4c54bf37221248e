package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCopyBarcode(t *testing.T) {
	t.Parallel()

	bookID := "0f8fad5b-d9cb-469f-a165-70867728950e"

	assert.Equal(t, "0F8FAD5B-C0001", CopyBarcode(bookID, 1))
	assert.Equal(t, "0F8FAD5B-C0042", CopyBarcode(bookID, 42))

	// Barcodes for the same book sort by sequence.
	assert.Less(t, CopyBarcode(bookID, 9), CopyBarcode(bookID, 10))
}

func TestReservationExpiredAt(t *testing.T) {
	t.Parallel()

	expires := time.Date(2025, 3, 3, 12, 0, 0, 0, time.UTC)
	res := BookReservation{ExpiresAt: expires}

	assert.False(t, res.ExpiredAt(expires.Add(-time.Second)))
	assert.False(t, res.ExpiredAt(expires))
	assert.True(t, res.ExpiredAt(expires.Add(time.Second)))
}
