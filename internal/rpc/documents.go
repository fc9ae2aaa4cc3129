package rpc

import (
	"context"

	"github.com/diewo77/go-erpdocs/internal/document"
	"github.com/diewo77/go-erpdocs/internal/lifecycle"
)

// Documents adapts a Caller to the lifecycle collaborators.
type Documents struct {
	Caller Caller
}

var (
	_ lifecycle.Store     = Documents{}
	_ lifecycle.EditGate  = Documents{}
	_ lifecycle.Numbering = Documents{}
)

func (c Documents) Get(ctx context.Context, k document.Kind, docNo string) (document.Document, error) {
	req := Request{Key: k.Key, Type: TypeGet, DocNo: docNo}
	resp, err := do(ctx, c.Caller, req)
	if err != nil {
		return document.Document{}, err
	}
	var data DocumentData
	if err := decode(resp, req, &data); err != nil {
		return document.Document{}, err
	}
	return ToDocument(k, data.Header, data.Lines), nil
}

func (c Documents) Insert(ctx context.Context, d document.Document) (string, error) {
	res, err := c.submit(ctx, TypeInsert, d)
	if err != nil {
		return "", err
	}
	if res.DocNo == "" {
		return d.Header.DocumentNo, nil
	}
	return res.DocNo, nil
}

func (c Documents) Update(ctx context.Context, d document.Document) error {
	_, err := c.submit(ctx, TypeUpdate, d)
	return err
}

func (c Documents) submit(ctx context.Context, typ RequestType, d document.Document) (SubmitResult, error) {
	h, lines := FromDocument(d)
	req := Request{Key: d.Kind.Key, Type: typ, DocNo: d.Header.DocumentNo, Header: &h, Lines: lines}
	resp, err := do(ctx, c.Caller, req)
	if err != nil {
		return SubmitResult{}, err
	}
	var res SubmitResult
	if len(resp.Data) > 0 {
		if err := decode(resp, req, &res); err != nil {
			return SubmitResult{}, err
		}
	}
	return res, nil
}

func (c Documents) Check(ctx context.Context, k document.Kind, docNo string) ([]string, error) {
	resp, err := do(ctx, c.Caller, Request{Key: k.Key, Type: TypeEditValidate, DocNo: docNo})
	if err != nil {
		return nil, err
	}
	return resp.MessageTypes, nil
}

func (c Documents) Confirm(ctx context.Context, k document.Kind, docNo string, messageTypes []string) error {
	_, err := do(ctx, c.Caller, Request{Key: k.Key, Type: TypeEditConfirm, DocNo: docNo, MessageTypes: messageTypes})
	return err
}

func (c Documents) NextNumber(ctx context.Context, prefix string) (lifecycle.Series, error) {
	req := Request{Key: KeyNumberSeries, Type: TypeNextNumber, Prefix: prefix}
	resp, err := do(ctx, c.Caller, req)
	if err != nil {
		return lifecycle.Series{}, err
	}
	var s SeriesData
	if err := decode(resp, req, &s); err != nil {
		return lifecycle.Series{}, err
	}
	return lifecycle.Series{LastNo: s.LastNo, Editable: s.IsEditable}, nil
}
