// Package httpstore talks to a hosted record API that stores remote-shape
// records. Every write is a batch call answered with one result per record.
package httpstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"

	"github.com/gurkanbulca/taskboard/internal/errs"
	"github.com/gurkanbulca/taskboard/internal/schema"
	"github.com/gurkanbulca/taskboard/internal/storage"
)

// FieldIssue is one field-level complaint attached to a failed record.
type FieldIssue struct {
	FieldLabel string `json:"fieldLabel"`
	Message    string `json:"message"`
}

// RecordResult is the outcome of one record of a batch call.
type RecordResult[R any] struct {
	Success bool         `json:"success"`
	Data    R            `json:"data"`
	Message string       `json:"message,omitempty"`
	Errors  []FieldIssue `json:"errors,omitempty"`
}

// BatchResponse answers a create, update or delete call. Success is false
// when the call failed as a whole; Results may then be empty.
type BatchResponse[R any] struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Results []RecordResult[R] `json:"results"`
}

type listResponse[R any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    []R    `json:"data"`
}

type getResponse[R any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    *R     `json:"data"`
}

type writeRequest[R any] struct {
	Records []R `json:"records"`
}

type deleteRequest struct {
	RecordIDs []int `json:"recordIds"`
}

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// Client overrides the default HTTP client; Timeout is then ignored.
	Client *http.Client
}

type Backend[R storage.Record[R]] struct {
	kind    string
	table   string
	baseURL string
	apiKey  string
	client  *http.Client
}

var (
	_ storage.Backend[schema.RemoteTask]     = (*Backend[schema.RemoteTask])(nil)
	_ storage.Backend[schema.RemoteCategory] = (*Backend[schema.RemoteCategory])(nil)
)

func New[R storage.Record[R]](cfg Config, table, kind string) *Backend[R] {
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Backend[R]{
		kind:    kind,
		table:   table,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  client,
	}
}

func (b *Backend[R]) recordsURL(id ...int) string {
	u := b.baseURL + "/tables/" + url.PathEscape(b.table) + "/records"
	if len(id) > 0 {
		u += "/" + strconv.Itoa(id[0])
	}
	return u
}

// do sends body (if any) and decodes a 2xx response into out. It returns the
// HTTP status so callers can tell a missing record from a failed call.
func (b *Backend[R]) do(ctx context.Context, method, target string, body, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := sonic.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if b.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+b.apiKey)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.StatusCode, fmt.Errorf("%s %s: status %d: %s", method, target, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out != nil {
		if err := sonic.Unmarshal(data, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

func (b *Backend[R]) List(ctx context.Context) ([]R, error) {
	var resp listResponse[R]
	if _, err := b.do(ctx, http.MethodGet, b.recordsURL(), nil, &resp); err != nil {
		return nil, errs.Backend("list "+b.kind, err)
	}
	if !resp.Success {
		return nil, errs.Backend("list "+b.kind, fmt.Errorf("%s", resp.Message))
	}
	if resp.Data == nil {
		return []R{}, nil
	}
	return resp.Data, nil
}

func (b *Backend[R]) Get(ctx context.Context, id int) (R, error) {
	var zero R
	var resp getResponse[R]
	status, err := b.do(ctx, http.MethodGet, b.recordsURL(id), nil, &resp)
	if status == http.StatusNotFound {
		return zero, errs.NotFound(b.kind, id)
	}
	if err != nil {
		return zero, errs.Backend("get "+b.kind, err)
	}
	if !resp.Success {
		return zero, errs.Backend("get "+b.kind, fmt.Errorf("%s", resp.Message))
	}
	if resp.Data == nil {
		return zero, errs.NotFound(b.kind, id)
	}
	return *resp.Data, nil
}

func (b *Backend[R]) Insert(ctx context.Context, records []R) []storage.Outcome[R] {
	return b.write(ctx, http.MethodPost, "create", records)
}

func (b *Backend[R]) Update(ctx context.Context, records []R) []storage.Outcome[R] {
	return b.write(ctx, http.MethodPatch, "update", records)
}

func (b *Backend[R]) write(ctx context.Context, method, op string, records []R) []storage.Outcome[R] {
	if len(records) == 0 {
		return []storage.Outcome[R]{}
	}
	var resp BatchResponse[R]
	if _, err := b.do(ctx, method, b.recordsURL(), writeRequest[R]{Records: records}, &resp); err != nil {
		return storage.FailAll[R](len(records), errs.Backend(op+" "+b.kind, err))
	}
	outcomes := collect(resp, len(records), op+" "+b.kind)
	out := make([]storage.Outcome[R], len(records))
	for i, o := range outcomes {
		out[i] = storage.Outcome[R]{Item: o.Item.Data, Err: o.Err}
	}
	return out
}

func (b *Backend[R]) Delete(ctx context.Context, ids []int) []storage.Outcome[int] {
	if len(ids) == 0 {
		return []storage.Outcome[int]{}
	}
	var resp BatchResponse[R]
	if _, err := b.do(ctx, http.MethodDelete, b.recordsURL(), deleteRequest{RecordIDs: ids}, &resp); err != nil {
		return storage.FailAll[int](len(ids), errs.Backend("delete "+b.kind, err))
	}
	outcomes := collect(resp, len(ids), "delete "+b.kind)
	out := make([]storage.Outcome[int], len(ids))
	for i, o := range outcomes {
		out[i].Err = o.Err
		if o.Err == nil {
			out[i].Item = ids[i]
		}
	}
	return out
}

// collect turns a batch response into n per-record outcomes. A call that
// failed without per-record results fails every record with its message.
func collect[R any](resp BatchResponse[R], n int, op string) []storage.Outcome[RecordResult[R]] {
	if !resp.Success && len(resp.Results) == 0 {
		msg := resp.Message
		if msg == "" {
			msg = "request rejected"
		}
		return storage.FailAll[RecordResult[R]](n, errs.Backend(op, fmt.Errorf("%s", msg)))
	}
	out := make([]storage.Outcome[RecordResult[R]], n)
	for i := range out {
		if i >= len(resp.Results) {
			out[i].Err = errs.Backend(op, fmt.Errorf("no result for record %d", i))
			continue
		}
		r := resp.Results[i]
		out[i].Item = r
		if !r.Success {
			out[i].Err = recordError(op, r)
		}
	}
	return out
}

// recordError reports field issues as validation failures and anything else
// as a backend failure.
func recordError[R any](op string, r RecordResult[R]) error {
	if len(r.Errors) > 0 {
		var v errs.ValidationErrors
		for _, issue := range r.Errors {
			v = append(v, errs.Invalid(issue.FieldLabel, issue.Message))
		}
		return v
	}
	msg := r.Message
	if msg == "" {
		msg = "record rejected"
	}
	return errs.Backend(op, fmt.Errorf("%s", msg))
}
