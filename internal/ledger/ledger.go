package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"quill/internal/checksum"
	"quill/internal/logging"
	"quill/internal/staging"
	"quill/internal/state"
)

// Ledger connects the staging tree to the persisted pending set.
type Ledger struct {
	store  *state.Store
	source staging.Source
	logger *slog.Logger
}

// New creates a Ledger over the given store and staging source.
func New(store *state.Store, source staging.Source, logger *slog.Logger) *Ledger {
	return &Ledger{
		store:  store,
		source: source,
		logger: logging.NewComponentLogger(logger, "ledger"),
	}
}

// Summary reports what a registration pass changed.
type Summary struct {
	ContactsSeen    int
	ContactsCreated int
	UnitsRegistered int
	UnitsUnchanged  int
	UnitsPending    int
}

// RegisterAll scans every contact in the staging tree. See RegisterContact.
func (l *Ledger) RegisterAll(ctx context.Context) (Summary, error) {
	contacts, err := l.source.Contacts()
	if err != nil {
		return Summary{}, err
	}

	var total Summary
	for _, contact := range contacts {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		summary, err := l.RegisterContact(ctx, contact)
		if err != nil {
			return total, err
		}
		total.ContactsSeen += summary.ContactsSeen
		total.ContactsCreated += summary.ContactsCreated
		total.UnitsRegistered += summary.UnitsRegistered
		total.UnitsUnchanged += summary.UnitsUnchanged
		total.UnitsPending += summary.UnitsPending
	}
	return total, nil
}

// RegisterContact ensures the contact exists in state and marks its changed
// units pending. Units whose digest matches the committed digest are left
// alone; units already pending stay pending without duplication.
func (l *Ledger) RegisterContact(ctx context.Context, contact string) (Summary, error) {
	summary := Summary{ContactsSeen: 1}

	created, err := l.store.EnsureContact(contact, 0, time.Now())
	if err != nil {
		return summary, fmt.Errorf("register contact %q: %w", contact, err)
	}
	if created {
		summary.ContactsCreated++
		l.logger.Info("discovered new contact", logging.String(logging.FieldContact, contact))
	}

	units, err := l.source.Units(contact)
	if err != nil {
		return summary, err
	}

	for _, unitKey := range units {
		if err := ctx.Err(); err != nil {
			return summary, err
		}
		stored, committed := l.store.UnitDigest(contact, unitKey)
		if committed && !checksum.Changed(l.source.UnitPath(contact, unitKey), stored) {
			summary.UnitsUnchanged++
			continue
		}
		added, err := l.store.AddPending(contact, unitKey)
		if err != nil {
			return summary, fmt.Errorf("register unit %s/%s: %w", contact, unitKey, err)
		}
		if added {
			summary.UnitsRegistered++
			l.logger.Debug("unit registered",
				logging.String(logging.FieldContact, contact),
				logging.String(logging.FieldUnit, unitKey))
		}
	}

	summary.UnitsPending = len(l.store.PendingUnits(contact))
	return summary, nil
}

// Pending returns the contact's pending unit keys in registration order.
func (l *Ledger) Pending(contact string) []string {
	return l.store.PendingUnits(contact)
}

// Drop removes a unit from the pending set without committing a digest.
// Used when the staged file disappeared between registration and processing.
func (l *Ledger) Drop(contact, unitKey string) error {
	l.logger.Warn("dropping pending unit with missing staged file",
		logging.String(logging.FieldContact, contact),
		logging.String(logging.FieldUnit, unitKey))
	return l.store.DropPending(contact, unitKey)
}

// Commit finalizes a processed unit. The digest, pending removal, and
// counters land in one state transaction.
func (l *Ledger) Commit(contact, unitKey string, digest checksum.Digest, records int, totals state.StageTotals) error {
	return l.store.CommitUnit(contact, unitKey, digest, records, totals)
}
