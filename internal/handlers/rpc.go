package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/diewo77/go-erpdocs/httpx"
	"github.com/diewo77/go-erpdocs/internal/document"
	"github.com/diewo77/go-erpdocs/internal/metrics"
	"github.com/diewo77/go-erpdocs/internal/rpc"
	"github.com/diewo77/go-erpdocs/internal/services"
	"github.com/sirupsen/logrus"
)

const maxRequestBody = 8 << 20

// RPCHandler serves the generic request/response contract on POST /rpc.
// It is also an rpc.Caller for in-process use.
type RPCHandler struct {
	kinds   *document.Registry
	docs    *services.DocumentService
	refs    *services.RefDataService
	metrics *metrics.Metrics
	log     logrus.FieldLogger
}

var _ rpc.Caller = (*RPCHandler)(nil)

func NewRPCHandler(kinds *document.Registry, docs *services.DocumentService, refs *services.RefDataService, m *metrics.Metrics, log logrus.FieldLogger) *RPCHandler {
	return &RPCHandler{kinds: kinds, docs: docs, refs: refs, metrics: m, log: log}
}

func (h *RPCHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	var req rpc.Request
	if err := httpx.DecodeJSON(w, r, maxRequestBody, &req); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.ID == "" {
		req.ID = r.Header.Get("X-Request-ID")
	}
	resp, err := h.Call(r.Context(), req)
	if err != nil {
		h.log.WithError(err).WithField("request_id", req.ID).Error("[rpc] encode response")
		httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// Call dispatches req by type. Failures of the operation itself come back
// as a response with success=false; the error is reserved for responses
// that could not be built.
func (h *RPCHandler) Call(ctx context.Context, req rpc.Request) (rpc.Response, error) {
	resp, err := h.dispatch(ctx, req)
	outcome := metrics.OutcomeOK
	switch {
	case err != nil:
		outcome = metrics.OutcomeFailed
	case !resp.Success:
		outcome = metrics.OutcomeRejected
	}
	h.metrics.RPCRequests.WithLabelValues(string(req.Type), outcome).Inc()
	return resp, err
}

func (h *RPCHandler) dispatch(ctx context.Context, req rpc.Request) (rpc.Response, error) {
	switch req.Type {
	case rpc.TypeList:
		items, err := h.refs.List(ctx, req.Key)
		if err != nil {
			return h.fail(req, err), nil
		}
		return rpc.OK(items)
	case rpc.TypeNextNumber:
		if req.Prefix == "" {
			return rpc.Fail("prefix is required"), nil
		}
		s, err := h.docs.NextNumber(ctx, req.Prefix)
		if err != nil {
			return h.fail(req, err), nil
		}
		return rpc.OK(rpc.SeriesData{LastNo: s.LastNo, IsEditable: s.IsEditable})
	case rpc.TypeGet, rpc.TypeInsert, rpc.TypeUpdate, rpc.TypeEditValidate, rpc.TypeEditConfirm:
		k, ok := h.kinds.ByKey(req.Key)
		if !ok {
			return rpc.Fail(fmt.Sprintf("unknown document kind %q", req.Key)), nil
		}
		return h.document(ctx, k, req)
	default:
		return rpc.Fail(fmt.Sprintf("unsupported request type %q", req.Type)), nil
	}
}

func (h *RPCHandler) document(ctx context.Context, k document.Kind, req rpc.Request) (rpc.Response, error) {
	switch req.Type {
	case rpc.TypeGet:
		d, err := h.docs.Get(ctx, k, req.DocNo)
		if err != nil {
			return h.fail(req, err), nil
		}
		header, lines := rpc.FromDocument(d)
		return rpc.OK(rpc.DocumentData{Header: header, Lines: lines})

	case rpc.TypeInsert, rpc.TypeUpdate:
		if req.Header == nil {
			return rpc.Fail("header is required"), nil
		}
		header := *req.Header
		if header.DocumentNo == "" {
			header.DocumentNo = req.DocNo
		}
		d := rpc.ToDocument(k, header, req.Lines)
		save := h.docs.Insert
		if req.Type == rpc.TypeUpdate {
			save = h.docs.Update
		}
		m, err := save(ctx, d)
		if err != nil {
			return h.fail(req, err), nil
		}
		return rpc.OK(rpc.SubmitResult{ID: m.ID, DocNo: m.DocNo})

	case rpc.TypeEditValidate:
		types, err := h.docs.EditValidate(ctx, k, req.DocNo)
		if err != nil {
			return h.fail(req, err), nil
		}
		return rpc.Response{Success: true, MessageTypes: types}, nil

	default:
		if err := h.docs.EditConfirm(ctx, k, req.DocNo, req.MessageTypes); err != nil {
			resp := h.fail(req, err)
			resp.MessageTypes = req.MessageTypes
			return resp, nil
		}
		return rpc.Response{Success: true}, nil
	}
}

// fail turns err into a failed response. Errors the caller can act on keep
// their message; anything else is logged and reported generically.
func (h *RPCHandler) fail(req rpc.Request, err error) rpc.Response {
	var ve *document.ValidationError
	switch {
	case errors.As(err, &ve),
		errors.Is(err, services.ErrNotFound),
		errors.Is(err, services.ErrDuplicateNumber),
		errors.Is(err, services.ErrStaleConfirmation),
		errors.Is(err, services.ErrUnknownList):
		return rpc.Fail(err.Error())
	}
	h.log.WithError(err).WithFields(logrus.Fields{
		"request_id": req.ID,
		"type":       req.Type,
		"key":        req.Key,
	}).Error("[rpc] request failed")
	return rpc.Fail("internal error")
}
