package grpcapi

import (
	"context"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// Client calls taskboard.v1.TaskBoard over an existing connection.
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

// Call invokes method with req and returns the decoded response object.
func (c *Client) Call(ctx context.Context, method string, req map[string]any, opts ...grpc.CallOption) (map[string]any, error) {
	if req == nil {
		req = map[string]any{}
	}
	in, err := structpb.NewStruct(req)
	if err != nil {
		return nil, fmt.Errorf("encode %s request: %w", method, err)
	}
	out := new(structpb.Struct)
	if err := c.conn.Invoke(ctx, "/"+ServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out.AsMap(), nil
}

func (c *Client) CreateTask(ctx context.Context, fields map[string]any) (map[string]any, error) {
	return c.Call(ctx, "CreateTask", fields)
}

func (c *Client) ListTasks(ctx context.Context, filter map[string]any) ([]any, error) {
	out, err := c.Call(ctx, "ListTasks", filter)
	if err != nil {
		return nil, err
	}
	tasks, _ := out["tasks"].([]any)
	return tasks, nil
}

func (c *Client) ToggleTaskComplete(ctx context.Context, id int) (map[string]any, error) {
	return c.Call(ctx, "ToggleTaskComplete", map[string]any{"id": id})
}

func (c *Client) DeleteTask(ctx context.Context, id int) (map[string]any, error) {
	return c.Call(ctx, "DeleteTask", map[string]any{"id": id})
}

func (c *Client) ListCategories(ctx context.Context) ([]any, error) {
	out, err := c.Call(ctx, "ListCategories", nil)
	if err != nil {
		return nil, err
	}
	categories, _ := out["categories"].([]any)
	return categories, nil
}

func (c *Client) CreateCategory(ctx context.Context, fields map[string]any) (map[string]any, error) {
	return c.Call(ctx, "CreateCategory", fields)
}

func (c *Client) DeleteCategory(ctx context.Context, id int) (map[string]any, error) {
	return c.Call(ctx, "DeleteCategory", map[string]any{"id": id})
}
