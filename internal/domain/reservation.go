package domain

import "time"

type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusFulfilled ReservationStatus = "fulfilled"
	ReservationStatusCancelled ReservationStatus = "cancelled"
	ReservationStatusExpired   ReservationStatus = "expired"
)

// HoldWindow is how long a reservation stays valid before it expires.
const HoldWindow = 48 * time.Hour

// BookReservation is a time-boxed hold on a copy without an approval step.
// It terminates exactly once into Fulfilled, Cancelled or Expired.
type BookReservation struct {
	ID          string
	MemberID    string
	CopyBarcode string
	BranchID    string
	Status      ReservationStatus
	ReservedAt  time.Time
	ExpiresAt   time.Time
}

// ExpiredAt reports whether the reservation is past its hold window at now.
// The boundary is exclusive: a reservation fulfilled exactly at ExpiresAt is
// still valid. Readers must treat an overdue Active reservation as expired
// even before any process has written the Expired status.
func (r BookReservation) ExpiredAt(now time.Time) bool {
	return now.After(r.ExpiresAt)
}
