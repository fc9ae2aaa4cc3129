// Package rpc is the client side of the generic request/response contract
// the document core uses to reach its backend: reference lists, document
// CRUD, the edit handshake and numbering.
package rpc

import (
	"context"
	"encoding/json"
	"fmt"
)

// RequestType selects the operation a request asks for.
type RequestType string

const (
	TypeList         RequestType = "LIST"
	TypeGet          RequestType = "GET"
	TypeInsert       RequestType = "INSERT"
	TypeUpdate       RequestType = "UPDATE"
	TypeEditValidate RequestType = "EDIT_VALIDATE"
	TypeEditConfirm  RequestType = "EDIT_CONFIRM"
	TypeNextNumber   RequestType = "NEXT_NUMBER"
)

// KeyNumberSeries addresses numbering requests.
const KeyNumberSeries = "numberSeries"

// Request is one call. Key names the document kind or reference list.
type Request struct {
	ID           string      `json:"id,omitempty"`
	Key          string      `json:"key"`
	Type         RequestType `json:"type"`
	DocNo        string      `json:"doc_no,omitempty"`
	Prefix       string      `json:"prefix,omitempty"`
	Header       *HeaderDTO  `json:"header,omitempty"`
	Lines        []LineDTO   `json:"lines,omitempty"`
	MessageTypes []string    `json:"message_types,omitempty"`
}

// Response is the envelope every call returns.
type Response struct {
	Success      bool            `json:"success"`
	Data         json.RawMessage `json:"data,omitempty"`
	Message      string          `json:"message,omitempty"`
	MessageTypes []string        `json:"message_types,omitempty"`
}

// OK builds a successful response around data.
func OK(data any) (Response, error) {
	if data == nil {
		return Response{Success: true}, nil
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return Response{}, fmt.Errorf("encode data: %w", err)
	}
	return Response{Success: true, Data: raw}, nil
}

// Fail builds an unsuccessful response.
func Fail(msg string) Response {
	return Response{Success: false, Message: msg}
}

// Caller performs one request.
type Caller interface {
	Call(ctx context.Context, req Request) (Response, error)
}

type CallerFunc func(ctx context.Context, req Request) (Response, error)

func (f CallerFunc) Call(ctx context.Context, req Request) (Response, error) { return f(ctx, req) }

// RemoteFailure is a response with success=false. Its message is the
// server's, unchanged.
type RemoteFailure struct {
	Op      string
	Key     string
	Message string
}

func (e *RemoteFailure) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s failed", e.Op, e.Key)
	}
	return e.Message
}

// DocumentData is the payload of GET.
type DocumentData struct {
	Header HeaderDTO `json:"header"`
	Lines  []LineDTO `json:"lines"`
}

// SubmitResult is the payload of INSERT and UPDATE.
type SubmitResult struct {
	ID    uint   `json:"id"`
	DocNo string `json:"doc_no"`
}

// SeriesData is the payload of NEXT_NUMBER.
type SeriesData struct {
	LastNo     int64 `json:"last_no"`
	IsEditable bool  `json:"is_editable"`
}

// do sends req and returns the response if it succeeded.
func do(ctx context.Context, c Caller, req Request) (Response, error) {
	resp, err := c.Call(ctx, req)
	if err != nil {
		return Response{}, fmt.Errorf("rpc %s %s: %w", req.Type, req.Key, err)
	}
	if !resp.Success {
		return resp, &RemoteFailure{Op: string(req.Type), Key: req.Key, Message: resp.Message}
	}
	return resp, nil
}

// decode unmarshals the data of a successful response into out.
func decode(resp Response, req Request, out any) error {
	if len(resp.Data) == 0 {
		return fmt.Errorf("rpc %s %s: empty data", req.Type, req.Key)
	}
	if err := json.Unmarshal(resp.Data, out); err != nil {
		return fmt.Errorf("rpc %s %s: decode data: %w", req.Type, req.Key, err)
	}
	return nil
}
