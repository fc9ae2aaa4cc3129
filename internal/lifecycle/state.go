// Package lifecycle drives one open document through creation, saving and
// the two-phase edit handshake that guards changes to saved documents.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/diewo77/go-erpdocs/internal/document"
)

// State is where a session stands in the document lifecycle.
type State string

const (
	StateNew           State = "NEW"
	StateSavedLocked   State = "SAVED_LOCKED"
	StateEditRequested State = "EDIT_REQUESTED"
	StateEditable      State = "EDITABLE"
)

// Editable reports whether the document may be mutated in this state.
func (s State) Editable() bool { return s == StateNew || s == StateEditable }

var (
	ErrInvalidTransition = errors.New("invalid lifecycle transition")
	ErrReadOnly          = errors.New("document is read-only")
	ErrBusy              = errors.New("another request is in flight")
	ErrClosed            = errors.New("session closed")
	ErrNoCatalog         = errors.New("no product catalog configured")
)

// EditGateRejected is returned when the edit confirmation round trip fails.
// The session is back in SAVED_LOCKED when callers see it.
type EditGateRejected struct {
	DocNo        string
	MessageTypes []string
	Err          error
}

func (e *EditGateRejected) Error() string {
	return fmt.Sprintf("edit of %s rejected: %v", e.DocNo, e.Err)
}

func (e *EditGateRejected) Unwrap() error { return e.Err }

// Store loads and persists documents of any kind.
type Store interface {
	Get(ctx context.Context, k document.Kind, docNo string) (document.Document, error)
	// Insert persists a new document and returns the number it was stored under.
	Insert(ctx context.Context, d document.Document) (string, error)
	Update(ctx context.Context, d document.Document) error
}

// EditGate is the backend side of the edit handshake.
type EditGate interface {
	// Check returns the message types describing side effects of editing.
	Check(ctx context.Context, k document.Kind, docNo string) ([]string, error)
	Confirm(ctx context.Context, k document.Kind, docNo string, messageTypes []string) error
}

// Series is the state of a numbering series.
type Series struct {
	LastNo   int64
	Editable bool
}

type Numbering interface {
	NextNumber(ctx context.Context, prefix string) (Series, error)
}

// ProductCatalog resolves products picked on a line.
type ProductCatalog interface {
	Product(ctx context.Context, code string) (document.Product, error)
}

func transitionError(op string, s State) error {
	return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, op, s)
}

func joinTypes(t []string) string { return strings.Join(t, ",") }
