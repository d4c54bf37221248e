package domain

import (
	"fmt"
	"strings"
)

type CopyStatus string

const (
	CopyStatusAvailable  CopyStatus = "available"
	CopyStatusPending    CopyStatus = "pending"
	CopyStatusReserved   CopyStatus = "reserved"
	CopyStatusCheckedOut CopyStatus = "checked_out"
)

// Copy is one physical, barcoded unit of a Book. Status changes only through
// the circulation engine, always inside the same transaction as the ledger
// record and counter updates that justify the change.
type Copy struct {
	Barcode  string
	BookID   string
	BranchID string
	Sequence int
	Status   CopyStatus
}

// CopyBarcode derives the globally unique barcode for the n-th copy of a
// book: the first 8 hex characters of the book's UUID followed by a 4-digit
// sequence. Barcodes therefore sort by book and then by copy sequence.
func CopyBarcode(bookID string, sequence int) string {
	compact := strings.ToUpper(strings.ReplaceAll(bookID, "-", ""))
	if len(compact) > 8 {
		compact = compact[:8]
	}
	return fmt.Sprintf("%s-C%04d", compact, sequence)
}
