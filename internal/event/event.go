package event

import "time"

type Kind string

const (
	KindRequestApproved         Kind = "request_approved"
	KindReservationExpiringSoon Kind = "reservation_expiring_soon"
	KindFineImposed             Kind = "fine_imposed"
)

// Event is a notification emitted after a circulation transaction commits.
// EntityID identifies the request, reservation or fine the event refers to.
type Event struct {
	Kind        Kind
	MemberID    string
	CopyBarcode string
	BranchID    string
	EntityID    string
	Amount      int64
	OccurredAt  time.Time
}

// Publisher hands events to interested collaborators, fire-and-forget: a
// failing or slow consumer never affects the transaction that produced the
// event.
type Publisher interface {
	Publish(e Event)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(Event) {}
