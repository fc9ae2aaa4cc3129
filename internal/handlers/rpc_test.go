package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/diewo77/go-erpdocs/internal/config"
	"github.com/diewo77/go-erpdocs/internal/db"
	"github.com/diewo77/go-erpdocs/internal/derive"
	"github.com/diewo77/go-erpdocs/internal/document"
	"github.com/diewo77/go-erpdocs/internal/lifecycle"
	"github.com/diewo77/go-erpdocs/internal/metrics"
	"github.com/diewo77/go-erpdocs/internal/refdata"
	"github.com/diewo77/go-erpdocs/internal/rpc"
	"github.com/diewo77/go-erpdocs/internal/services"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus/hooks/test"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var day = time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)

func setupRPC(t *testing.T) (*RPCHandler, *document.Registry, *metrics.Metrics) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	kinds, err := config.LoadKinds("")
	if err != nil {
		t.Fatalf("kinds: %v", err)
	}
	if err := db.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.Seed(conn, kinds.Kinds()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	log, _ := test.NewNullLogger()
	m := metrics.Nop()
	h := NewRPCHandler(kinds, services.NewDocumentService(conn, log, m), services.NewRefDataService(conn), m, log)
	return h, kinds, m
}

func mustKind(t *testing.T, r *document.Registry, code string) document.Kind {
	t.Helper()
	k, ok := r.Lookup(code)
	if !ok {
		t.Fatalf("kind %s not configured", code)
	}
	return k
}

func TestRPCHandler_HTTPErrors(t *testing.T) {
	h, _, _ := setupRPC(t)

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rpc", nil))
	if w.Code != http.StatusMethodNotAllowed || w.Header().Get("Allow") != "POST" {
		t.Errorf("GET /rpc = %d allow=%q", w.Code, w.Header().Get("Allow"))
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/rpc", strings.NewReader("{not json")))
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad body = %d", w.Code)
	}
}

func TestRPCHandler_Dispatch(t *testing.T) {
	h, _, m := setupRPC(t)
	ctx := context.Background()

	cases := []struct {
		name    string
		req     rpc.Request
		success bool
		message string
	}{
		{"list products", rpc.Request{Key: rpc.RefProducts, Type: rpc.TypeList}, true, ""},
		{"unknown list", rpc.Request{Key: "planets", Type: rpc.TypeList}, false, "unknown reference list"},
		{"next number", rpc.Request{Key: rpc.KeyNumberSeries, Type: rpc.TypeNextNumber, Prefix: "INV"}, true, ""},
		{"next number without prefix", rpc.Request{Key: rpc.KeyNumberSeries, Type: rpc.TypeNextNumber}, false, "prefix is required"},
		{"unknown kind", rpc.Request{Key: "quote", Type: rpc.TypeGet, DocNo: "Q-1"}, false, "unknown document kind"},
		{"missing document", rpc.Request{Key: "salesInvoice", Type: rpc.TypeGet, DocNo: "INV-000777"}, false, "document not found"},
		{"insert without header", rpc.Request{Key: "salesInvoice", Type: rpc.TypeInsert}, false, "header is required"},
		{"unsupported type", rpc.Request{Key: "salesInvoice", Type: "DELETE"}, false, "unsupported request type"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := h.Call(ctx, tc.req)
			if err != nil {
				t.Fatalf("Call: %v", err)
			}
			if resp.Success != tc.success {
				t.Fatalf("success = %v (%s)", resp.Success, resp.Message)
			}
			if !strings.Contains(resp.Message, tc.message) {
				t.Errorf("message = %q, want it to contain %q", resp.Message, tc.message)
			}
		})
	}

	if got := testutil.ToFloat64(m.RPCRequests.WithLabelValues("LIST", metrics.OutcomeOK)); got != 1 {
		t.Errorf("LIST ok counter = %v", got)
	}
	if got := testutil.ToFloat64(m.RPCRequests.WithLabelValues("GET", metrics.OutcomeRejected)); got != 2 {
		t.Errorf("GET rejected counter = %v", got)
	}
}

func TestRPCHandler_InsertRejectsInvalidDocument(t *testing.T) {
	h, kinds, _ := setupRPC(t)
	d := document.New(mustKind(t, kinds, "invoice"), day)
	header, lines := rpc.FromDocument(d)

	resp, err := h.Call(context.Background(), rpc.Request{Key: "salesInvoice", Type: rpc.TypeInsert, Header: &header, Lines: lines})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Success || !strings.Contains(resp.Message, "validation failed") {
		t.Errorf("response = %+v", resp)
	}
}

func TestRPCHandler_OverHTTP(t *testing.T) {
	h, _, _ := setupRPC(t)
	srv := httptest.NewServer(h)
	defer srv.Close()

	refs := rpc.RefData{Caller: rpc.NewHTTPCaller(srv.URL, 5*time.Second)}
	items, err := refs.List(context.Background(), rpc.RefCounterparties)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 || items[0].Code != "C-001" {
		t.Errorf("counterparties = %+v", items)
	}

	_, err = refs.List(context.Background(), "planets")
	var rf *rpc.RemoteFailure
	if !errors.As(err, &rf) || !strings.Contains(rf.Message, "planets") {
		t.Errorf("err = %v, want remote failure naming the list", err)
	}
}

// The full cycle: create an invoice, derive a credit note from it, then
// edit the invoice through the handshake that warns about the note.
func TestRPCHandler_DocumentLifecycle(t *testing.T) {
	h, kinds, _ := setupRPC(t)
	ctx := context.Background()
	invoiceKind := mustKind(t, kinds, "invoice")
	creditKind := mustKind(t, kinds, "credit_note")

	docs := rpc.Documents{Caller: h}
	log, _ := test.NewNullLogger()
	deps := lifecycle.Deps{
		Store:     docs,
		Gate:      docs,
		Numbering: docs,
		Catalog:   refdata.Catalog{Lister: refdata.NewCachedLister(rpc.RefData{Caller: h}, time.Minute)},
		Log:       log,
	}

	inv, err := lifecycle.New(ctx, deps, invoiceKind, day)
	if err != nil {
		t.Fatal(err)
	}
	lineID := inv.Document().Lines[0].ID
	if err := inv.SelectProduct(ctx, lineID, "P-001"); err != nil {
		t.Fatal(err)
	}
	for _, cmd := range []document.Command{
		document.SetQuantity{ID: lineID, Input: "2"},
		document.SetCounterparty{Ref: "C-001"},
		document.SetSalesperson{Ref: "S-01"},
		document.SetLocation{Ref: "MAIN"},
		document.SetPaymentMode{Mode: document.PaymentCash},
	} {
		if err := inv.Apply(cmd); err != nil {
			t.Fatalf("apply %T: %v", cmd, err)
		}
	}
	if err := inv.Save(ctx); err != nil {
		t.Fatalf("save invoice: %v", err)
	}
	saved := inv.Document()
	if saved.Header.DocumentNo != "INV-000001" || inv.State() != lifecycle.StateSavedLocked {
		t.Fatalf("after save: %s in %s", saved.Header.DocumentNo, inv.State())
	}
	if !saved.Header.NetAmount.Equal(decimal.NewFromInt(240)) {
		t.Errorf("invoice net = %s, want 240", saved.Header.NetAmount)
	}

	b, err := derive.NewBuilder(creditKind, saved)
	if err != nil {
		t.Fatal(err)
	}
	sel := b.Selection()
	sel.SelectAll()
	draft, added, err := b.Confirm(b.Start(day), sel)
	if err != nil || added != 1 {
		t.Fatalf("confirm = %d, %v", added, err)
	}
	note, err := lifecycle.NewDerived(ctx, deps, draft)
	if err != nil {
		t.Fatal(err)
	}
	if err := note.Apply(document.SetPaymentMode{Mode: document.PaymentCash}); err != nil {
		t.Fatal(err)
	}
	if err := note.Save(ctx); err != nil {
		t.Fatalf("save note: %v", err)
	}
	if got := note.Document().Header.DocumentNo; got != "CN-000001" {
		t.Errorf("note number = %s", got)
	}

	reloaded, err := docs.Get(ctx, creditKind, "CN-000001")
	if err != nil {
		t.Fatal(err)
	}
	lin := reloaded.Lines[0].Lineage
	if lin == nil || lin.SourceDocNo != "000001" || lin.SourceLineNo != 1 {
		t.Errorf("lineage = %+v", lin)
	}

	types, err := inv.RequestEdit(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(types) != 1 || types[0] != services.MessageLinkedDocuments || inv.State() != lifecycle.StateEditRequested {
		t.Fatalf("request edit = %v in %s", types, inv.State())
	}
	if err := inv.ConfirmEdit(ctx); err != nil {
		t.Fatal(err)
	}
	if err := inv.Apply(document.SetQuantity{ID: inv.Document().Lines[0].ID, Input: "3"}); err != nil {
		t.Fatal(err)
	}
	if err := inv.Save(ctx); err != nil {
		t.Fatalf("update invoice: %v", err)
	}

	stored, err := docs.Get(ctx, invoiceKind, "INV-000001")
	if err != nil {
		t.Fatal(err)
	}
	if !stored.Header.NetAmount.Equal(decimal.NewFromInt(360)) {
		t.Errorf("stored net = %s, want 360", stored.Header.NetAmount)
	}
}

func TestRPCHandler_StaleConfirmation(t *testing.T) {
	h, kinds, _ := setupRPC(t)
	ctx := context.Background()
	docs := rpc.Documents{Caller: h}
	k := mustKind(t, kinds, "invoice")

	d := document.New(k, day)
	id := d.Lines[0].ID
	for _, cmd := range []document.Command{
		document.SetDescription{ID: id, Value: "Consulting"},
		document.SetQuantity{ID: id, Input: "1"},
		document.SetUnitPrice{ID: id, Input: "80"},
		document.SetCounterparty{Ref: "C-001"},
		document.SetSalesperson{Ref: "S-01"},
		document.SetLocation{Ref: "MAIN"},
		document.SetPaymentMode{Mode: document.PaymentTT},
	} {
		var err error
		if d, err = document.Reduce(d, cmd); err != nil {
			t.Fatal(err)
		}
	}
	docNo, err := docs.Insert(ctx, d)
	if err != nil {
		t.Fatal(err)
	}

	err = docs.Confirm(ctx, k, docNo, []string{services.MessageLinkedDocuments})
	var rf *rpc.RemoteFailure
	if !errors.As(err, &rf) || !strings.Contains(rf.Message, "does not match") {
		t.Errorf("confirm err = %v", err)
	}
	if err := docs.Confirm(ctx, k, docNo, nil); err != nil {
		t.Errorf("confirm with current types: %v", err)
	}
}
