package dedup

import (
	"log"

	"notascan/internal/domain"
)

// Action is the persistence decision for an extraction result.
type Action string

const (
	// ActionCreate persists a new record with status PENDING.
	ActionCreate Action = "create"
	// ActionReturnExisting echoes the status of the already-stored record
	// without writing anything.
	ActionReturnExisting Action = "return_existing"
	// ActionReturnUnpersisted returns the result with status CHECKING
	// without writing anything.
	ActionReturnUnpersisted Action = "return_unpersisted"
)

// Record is the slice of a stored invoice the gate needs: its identifier for
// the earliest-inserted tiebreak and its lifecycle status.
type Record struct {
	ID     int64
	Status domain.InvoiceStatus
}

// Decision is the outcome of the gate: what the caller should do and which
// status to attach to the result.
type Decision struct {
	Action Action
	Status domain.InvoiceStatus
}

// Decide resolves the persistence outcome for a fingerprint. existing is the
// set of stored records sharing the fingerprint, ordered by ascending id; the
// gate performs no I/O itself.
//
// A save-intent request over a non-empty set fails with
// domain.ErrDuplicateImage: a duplicate upload is a hard rejection, never a
// merge.
func Decide(saveIntent bool, existing []Record) (Decision, error) {
	if len(existing) > 1 {
		// The image_hash uniqueness constraint makes this unreachable;
		// if it ever happens, make it visible instead of picking silently.
		log.Printf("dedup.Decide: %d records share one fingerprint, using earliest (id=%d)",
			len(existing), existing[0].ID)
	}

	if saveIntent {
		if len(existing) > 0 {
			return Decision{}, domain.ErrDuplicateImage
		}
		return Decision{Action: ActionCreate, Status: domain.StatusPending}, nil
	}

	if len(existing) > 0 {
		return Decision{Action: ActionReturnExisting, Status: existing[0].Status}, nil
	}
	return Decision{Action: ActionReturnUnpersisted, Status: domain.StatusChecking}, nil
}
