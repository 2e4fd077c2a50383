// Package tablestore keeps remote-shape records as Azure Table entities. Each
// kind lives in its own partition; ids come from a counter entity updated
// under optimistic concurrency.
package tablestore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/bytedance/sonic"

	"github.com/gurkanbulca/taskboard/internal/errs"
	"github.com/gurkanbulca/taskboard/internal/schema"
	"github.com/gurkanbulca/taskboard/internal/storage"
)

const (
	counterPartition = "counter"
	maxCounterTries  = 5
)

// NewServiceClient connects with the retry policy used for every table.
func NewServiceClient(connStr string) (*aztables.ServiceClient, error) {
	opts := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute,
				RetryDelay:    time.Second,
				MaxRetryDelay: 15 * time.Second,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
	return aztables.NewServiceClientFromConnectionString(connStr, &opts)
}

// EnsureTable creates the table unless it already exists.
func EnsureTable(ctx context.Context, client *aztables.Client) error {
	if _, err := client.CreateTable(ctx, nil); err != nil {
		var respErr *azcore.ResponseError
		if !(errors.As(err, &respErr) && respErr.ErrorCode == string(aztables.TableAlreadyExists)) {
			return fmt.Errorf("create table: %w", err)
		}
	}
	return nil
}

type Backend[R storage.Record[R]] struct {
	kind  string
	table *aztables.Client
}

var (
	_ storage.Backend[schema.RemoteTask]     = (*Backend[schema.RemoteTask])(nil)
	_ storage.Backend[schema.RemoteCategory] = (*Backend[schema.RemoteCategory])(nil)
)

func New[R storage.Record[R]](table *aztables.Client, kind string) *Backend[R] {
	return &Backend[R]{kind: kind, table: table}
}

// RowKey pads ids so the table's lexical order is numeric order.
func RowKey(id int) string {
	return fmt.Sprintf("%010d", id)
}

func statusOf(err error) int {
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode
	}
	return 0
}

// encodeEntity flattens r into entity properties. Null fields are left out
// so a replace removes them.
func encodeEntity[R storage.Record[R]](partition string, r R) ([]byte, error) {
	data, err := sonic.Marshal(r)
	if err != nil {
		return nil, err
	}
	props := map[string]any{}
	if err := sonic.Unmarshal(data, &props); err != nil {
		return nil, err
	}
	for k, v := range props {
		if v == nil {
			delete(props, k)
		}
	}
	props["PartitionKey"] = partition
	props["RowKey"] = RowKey(r.RecordID())
	return sonic.Marshal(props)
}

func decodeEntity[R any](data []byte) (R, error) {
	var r R
	err := sonic.Unmarshal(data, &r)
	return r, err
}

func (b *Backend[R]) List(ctx context.Context) ([]R, error) {
	filter := "PartitionKey eq '" + b.kind + "'"
	format := aztables.MetadataFormatNone
	pager := b.table.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter, Format: &format})
	out := []R{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, errs.Backend("list "+b.kind, err)
		}
		for _, e := range resp.Entities {
			r, err := decodeEntity[R](e)
			if err != nil {
				return nil, errs.Backend("list "+b.kind, err)
			}
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID() < out[j].RecordID() })
	return out, nil
}

func (b *Backend[R]) Get(ctx context.Context, id int) (R, error) {
	var zero R
	resp, err := b.table.GetEntity(ctx, b.kind, RowKey(id), nil)
	if statusOf(err) == http.StatusNotFound {
		return zero, errs.NotFound(b.kind, id)
	}
	if err != nil {
		return zero, errs.Backend("get "+b.kind, err)
	}
	r, err := decodeEntity[R](resp.Value)
	if err != nil {
		return zero, errs.Backend("get "+b.kind, err)
	}
	return r, nil
}

func (b *Backend[R]) Insert(ctx context.Context, records []R) []storage.Outcome[R] {
	out := make([]storage.Outcome[R], len(records))
	for i, r := range records {
		if r.RecordID() == 0 {
			id, err := b.nextID(ctx)
			if err != nil {
				out[i].Err = err
				continue
			}
			r = r.WithRecordID(id)
		}
		payload, err := encodeEntity(b.kind, r)
		if err != nil {
			out[i].Err = err
			continue
		}
		if _, err := b.table.AddEntity(ctx, payload, nil); err != nil {
			if statusOf(err) == http.StatusConflict {
				out[i].Err = fmt.Errorf("%s %d already exists", b.kind, r.RecordID())
			} else {
				out[i].Err = errs.Backend("insert "+b.kind, err)
			}
			continue
		}
		out[i].Item = r
	}
	return out
}

func (b *Backend[R]) Update(ctx context.Context, records []R) []storage.Outcome[R] {
	out := make([]storage.Outcome[R], len(records))
	for i, r := range records {
		payload, err := encodeEntity(b.kind, r)
		if err != nil {
			out[i].Err = err
			continue
		}
		et := azcore.ETagAny
		_, err = b.table.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeReplace})
		if statusOf(err) == http.StatusNotFound {
			out[i].Err = errs.NotFound(b.kind, r.RecordID())
			continue
		}
		if err != nil {
			out[i].Err = errs.Backend("update "+b.kind, err)
			continue
		}
		out[i].Item = r
	}
	return out
}

func (b *Backend[R]) Delete(ctx context.Context, ids []int) []storage.Outcome[int] {
	out := make([]storage.Outcome[int], len(ids))
	for i, id := range ids {
		match := azcore.ETagAny
		_, err := b.table.DeleteEntity(ctx, b.kind, RowKey(id), &aztables.DeleteEntityOptions{IfMatch: &match})
		if statusOf(err) == http.StatusNotFound {
			out[i].Err = errs.NotFound(b.kind, id)
			continue
		}
		if err != nil {
			out[i].Err = errs.Backend("delete "+b.kind, err)
			continue
		}
		out[i].Item = id
	}
	return out
}

type counterEntity struct {
	aztables.Entity
	Value int `json:"Value"`
}

// nextID increments the kind's counter entity. A missing counter starts
// after the highest stored id; a lost ETag race is retried.
func (b *Backend[R]) nextID(ctx context.Context) (int, error) {
	for attempt := 0; attempt < maxCounterTries; attempt++ {
		resp, err := b.table.GetEntity(ctx, counterPartition, b.kind, nil)
		if statusOf(err) == http.StatusNotFound {
			id, err := b.startCounter(ctx)
			if statusOf(err) == http.StatusConflict {
				continue
			}
			return id, err
		}
		if err != nil {
			return 0, errs.Backend("read "+b.kind+" counter", err)
		}

		var c counterEntity
		if err := sonic.Unmarshal(resp.Value, &c); err != nil {
			return 0, errs.Backend("read "+b.kind+" counter", err)
		}
		c.Value++
		payload, err := sonic.Marshal(c)
		if err != nil {
			return 0, err
		}
		etag := resp.ETag
		_, err = b.table.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &etag, UpdateMode: aztables.UpdateModeReplace})
		if statusOf(err) == http.StatusPreconditionFailed {
			continue
		}
		if err != nil {
			return 0, errs.Backend("advance "+b.kind+" counter", err)
		}
		return c.Value, nil
	}
	return 0, errs.Backend("advance "+b.kind+" counter", fmt.Errorf("gave up after %d attempts", maxCounterTries))
}

func (b *Backend[R]) startCounter(ctx context.Context) (int, error) {
	records, err := b.List(ctx)
	if err != nil {
		return 0, err
	}
	next := 1
	if n := len(records); n > 0 {
		next = records[n-1].RecordID() + 1
	}
	payload, err := sonic.Marshal(counterEntity{
		Entity: aztables.Entity{PartitionKey: counterPartition, RowKey: b.kind},
		Value:  next,
	})
	if err != nil {
		return 0, err
	}
	if _, err := b.table.AddEntity(ctx, payload, nil); err != nil {
		if statusOf(err) == http.StatusConflict {
			return 0, err
		}
		return 0, errs.Backend("start "+b.kind+" counter", err)
	}
	return next, nil
}
