package lifecycle

import (
	"context"
	"sync"
	"time"

	"github.com/diewo77/go-erpdocs/internal/document"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Deps are the collaborators a session talks to. Numbering and Catalog are
// optional.
type Deps struct {
	Store     Store
	Gate      EditGate
	Numbering Numbering
	Catalog   ProductCatalog
	Log       logrus.FieldLogger
}

// Session owns one open document. Remote calls run outside the lock; their
// results are dropped when the context is done or the session was closed
// meanwhile.
type Session struct {
	deps Deps

	mu             sync.Mutex
	doc            document.Document
	saved          document.Document
	state          State
	pending        []string
	numberEditable bool
	busy           bool
	closed         bool
}

func newSession(deps Deps, d document.Document, st State) *Session {
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	s := &Session{deps: deps, doc: document.Recompute(d), state: st}
	s.saved = s.doc.Clone()
	return s
}

// New starts an unsaved document of kind k. When a numbering series is
// configured the next number is proposed up front.
func New(ctx context.Context, deps Deps, k document.Kind, date time.Time) (*Session, error) {
	return start(ctx, deps, document.New(k, date))
}

// NewDerived starts an unsaved session from a draft built by derive.Builder.
func NewDerived(ctx context.Context, deps Deps, draft document.Document) (*Session, error) {
	return start(ctx, deps, draft)
}

func start(ctx context.Context, deps Deps, d document.Document) (*Session, error) {
	editable := true
	if deps.Numbering != nil {
		series, err := deps.Numbering.NextNumber(ctx, d.Kind.Prefix)
		if err != nil {
			return nil, err
		}
		d.Header.DocumentNo = d.Kind.FormatNumber(series.LastNo + 1)
		editable = series.Editable
	}
	s := newSession(deps, d, StateNew)
	s.numberEditable = editable
	return s, nil
}

// Open loads a saved document. It starts locked.
func Open(ctx context.Context, deps Deps, k document.Kind, docNo string) (*Session, error) {
	d, err := deps.Store.Get(ctx, k, docNo)
	if err != nil {
		return nil, err
	}
	d.Kind = k
	return newSession(deps, d, StateSavedLocked), nil
}

// Document returns a copy of the current document.
func (s *Session) Document() document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// MessageTypes returns the side effects awaiting confirmation while the
// session is in EDIT_REQUESTED.
func (s *Session) MessageTypes() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.pending...)
}

// NumberEditable reports whether the user may override the proposed number.
func (s *Session) NumberEditable() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateNew && s.numberEditable
}

// Apply runs cmd through the document reducer. It is refused while a remote
// call is in flight. Changing the document number is only possible on a new
// document whose series allows it.
func (s *Session) Apply(cmd document.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.busy {
		return ErrBusy
	}
	if !s.state.Editable() {
		return ErrReadOnly
	}
	if _, ok := cmd.(document.SetDocumentNo); ok && !(s.state == StateNew && s.numberEditable) {
		return document.ErrDocumentNoNotAvailable
	}
	next, err := document.Reduce(s.doc, cmd)
	if err != nil {
		return err
	}
	s.doc = next
	return nil
}

func (s *Session) SetDocumentNo(v string) error {
	return s.Apply(document.SetDocumentNo{Value: v})
}

// SelectProduct fills a line from the catalog product with the given code.
func (s *Session) SelectProduct(ctx context.Context, lineID uuid.UUID, code string) error {
	if s.deps.Catalog == nil {
		return ErrNoCatalog
	}
	var p document.Product
	err := s.roundTrip(ctx, "select product", []State{StateNew, StateEditable}, func(document.Document, State) (func(), error) {
		var err error
		p, err = s.deps.Catalog.Product(ctx, code)
		return nil, err
	})
	if err != nil {
		return err
	}
	return s.Apply(document.SetProduct{ID: lineID, Product: p})
}

// Save validates locally, then inserts a new document or updates an
// editable one. Amounts are stored rounded to two decimals. On success the
// session is locked and addressed by its document number.
func (s *Session) Save(ctx context.Context) error {
	return s.roundTrip(ctx, "save", []State{StateNew, StateEditable}, func(d document.Document, st State) (func(), error) {
		if err := document.Validate(d); err != nil {
			return nil, err
		}
		out := document.RoundForSave(d)
		wasNew := st == StateNew

		if wasNew {
			docNo, err := s.deps.Store.Insert(ctx, out)
			if err != nil {
				return nil, err
			}
			if docNo != "" {
				out.Header.DocumentNo = docNo
			}
		} else if err := s.deps.Store.Update(ctx, out); err != nil {
			return nil, err
		}
		return func() {
			s.doc = out
			s.saved = out.Clone()
			s.state = StateSavedLocked
			s.numberEditable = false
			s.deps.Log.WithFields(logrus.Fields{"kind": out.Kind.Code, "doc_no": out.Header.DocumentNo, "insert": wasNew}).Info("[lifecycle] saved")
		}, nil
	})
}

// RequestEdit asks the backend whether the locked document may be edited.
// Without side effects the session becomes editable at once. Otherwise it
// waits in EDIT_REQUESTED for ConfirmEdit or DeclineEdit, and the returned
// message types describe what confirming implies.
func (s *Session) RequestEdit(ctx context.Context) ([]string, error) {
	var types []string
	err := s.roundTrip(ctx, "request edit", []State{StateSavedLocked}, func(d document.Document, _ State) (func(), error) {
		var err error
		types, err = s.deps.Gate.Check(ctx, d.Kind, d.Header.DocumentNo)
		if err != nil {
			return nil, err
		}
		return func() {
			if len(types) == 0 {
				s.state = StateEditable
				return
			}
			s.state = StateEditRequested
			s.pending = append([]string(nil), types...)
			s.deps.Log.WithField("message_types", joinTypes(types)).Info("[lifecycle] edit needs confirmation")
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return types, nil
}

// ConfirmEdit confirms the pending message types. A failed confirmation
// sends the session back to SAVED_LOCKED and returns *EditGateRejected.
func (s *Session) ConfirmEdit(ctx context.Context) error {
	return s.roundTrip(ctx, "confirm edit", []State{StateEditRequested}, func(d document.Document, _ State) (func(), error) {
		s.mu.Lock()
		types := append([]string(nil), s.pending...)
		s.mu.Unlock()

		err := s.deps.Gate.Confirm(ctx, d.Kind, d.Header.DocumentNo, types)
		if err != nil {
			return func() {
				s.lock()
				s.deps.Log.WithError(err).WithField("doc_no", d.Header.DocumentNo).Warn("[lifecycle] edit rejected")
			}, &EditGateRejected{DocNo: d.Header.DocumentNo, MessageTypes: types, Err: err}
		}
		return func() {
			if s.state != StateEditRequested {
				return
			}
			s.pending = nil
			s.state = StateEditable
		}, nil
	})
}

// DeclineEdit abandons a pending edit request.
func (s *Session) DeclineEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if s.busy {
		return ErrBusy
	}
	if s.state != StateEditRequested {
		return transitionError("decline edit", s.state)
	}
	s.lock()
	return nil
}

// CancelEdit discards every in-memory change and reloads the saved
// document. If the reload fails the last saved copy is restored and the
// error returned.
func (s *Session) CancelEdit(ctx context.Context) error {
	return s.roundTrip(ctx, "cancel edit", []State{StateEditable, StateEditRequested}, func(d document.Document, _ State) (func(), error) {
		fresh, err := s.deps.Store.Get(ctx, d.Kind, d.Header.DocumentNo)
		if err != nil {
			return s.lock, err
		}
		return func() {
			fresh.Kind = d.Kind
			s.saved = document.Recompute(fresh)
			s.lock()
		}, nil
	})
}

// Close ends the session. Unsaved edits of a saved document are discarded
// and results of requests still in flight are dropped.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if s.state == StateEditable || s.state == StateEditRequested {
		s.lock()
	}
	s.closed = true
}

// lock returns to SAVED_LOCKED with the last saved document. Callers hold mu.
func (s *Session) lock() {
	s.doc = s.saved.Clone()
	s.pending = nil
	s.state = StateSavedLocked
}

// roundTrip runs remote outside the lock with a snapshot of the document.
// The commit func it returns is applied under the lock, even alongside an
// error, unless ctx is done or the session closed in the meantime.
func (s *Session) roundTrip(ctx context.Context, op string, allowed []State, remote func(document.Document, State) (func(), error)) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.busy {
		s.mu.Unlock()
		return ErrBusy
	}
	if !stateIn(s.state, allowed) {
		err := transitionError(op, s.state)
		s.mu.Unlock()
		return err
	}
	s.busy = true
	snapshot, st := s.doc.Clone(), s.state
	s.mu.Unlock()

	commit, err := remote(snapshot, st)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false
	if s.closed {
		return ErrClosed
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if commit != nil {
		commit()
	}
	return err
}

func stateIn(s State, allowed []State) bool {
	for _, a := range allowed {
		if s == a {
			return true
		}
	}
	return false
}
