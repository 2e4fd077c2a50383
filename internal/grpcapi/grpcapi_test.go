package grpcapi

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/gurkanbulca/taskboard/internal/middleware"
	"github.com/gurkanbulca/taskboard/internal/models"
	"github.com/gurkanbulca/taskboard/internal/schema"
	"github.com/gurkanbulca/taskboard/internal/service"
	"github.com/gurkanbulca/taskboard/internal/storage"
	"github.com/gurkanbulca/taskboard/internal/storage/memory"
)

var fixedNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	tasks := storage.NewStore[models.Task, models.TaskPatch, schema.LocalTask](
		"task", memory.New[schema.LocalTask]("task"), schema.LocalTaskMapper{})
	categories := storage.NewStore[models.Category, models.CategoryPatch, schema.LocalCategory](
		"category", memory.New[schema.LocalCategory]("category"), schema.LocalCategoryMapper{})
	gw := service.NewGateway(tasks, categories, service.WithClock(func() time.Time { return fixedNow }))

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		middleware.NewMetadataExtractorInterceptor().Unary(),
		middleware.NewErrorInterceptor().Unary(),
		middleware.LoggingInterceptor,
	))
	RegisterTaskBoardServer(srv, NewServer(gw))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return NewClient(conn)
}

func TestTaskLifecycleOverGRPC(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	cat, err := c.CreateCategory(ctx, map[string]any{"name": "Work"})
	require.NoError(t, err)
	assert.Equal(t, "#5B21B6", cat["color"])

	created, err := c.CreateTask(ctx, map[string]any{
		"title":      "Write report",
		"categoryId": cat["id"],
		"priority":   "high",
		"dueDate":    "2024-05-30",
	})
	require.NoError(t, err)
	assert.Equal(t, "Write report", created["title"])
	assert.Equal(t, true, created["overdue"])
	assert.Equal(t, false, created["completed"])

	id := int(created["id"].(float64))
	toggled, err := c.ToggleTaskComplete(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, true, toggled["completed"])
	assert.Equal(t, "2024-06-01T09:00:00Z", toggled["completedAt"])
	assert.Equal(t, false, toggled["overdue"])

	updated, err := c.Call(ctx, "UpdateTask", map[string]any{"id": id, "description": "final"})
	require.NoError(t, err)
	assert.Equal(t, "final", updated["description"])

	tasks, err := c.ListTasks(ctx, map[string]any{"status": []any{"completed"}, "search": "REPORT"})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	categories, err := c.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, categories, 1)
	assert.Equal(t, float64(1), categories[0].(map[string]any)["taskCount"])

	_, err = c.DeleteTask(ctx, id)
	require.NoError(t, err)
	_, err = c.Call(ctx, "GetTask", map[string]any{"id": id})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestValidationFailuresAreInvalidArgument(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	_, err := c.CreateTask(ctx, map[string]any{"title": "  "})
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	violations := middleware.FieldViolations(err)
	assert.Contains(t, violations, "title")
	assert.Contains(t, violations, "categoryId")

	_, err = c.Call(ctx, "GetTask", map[string]any{"id": "abc"})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
	assert.Contains(t, middleware.FieldViolations(err), "id")

	_, err = c.ListTasks(ctx, map[string]any{"priority": []any{"urgent"}})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestImportAndBoardOverGRPC(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(t)

	out, err := c.Call(ctx, "ImportTasks", map[string]any{"tasks": []any{
		map[string]any{"title": "one", "categoryId": 1},
		map[string]any{"title": "", "categoryId": 1},
		map[string]any{"title": "three", "categoryId": "2", "completed": true},
	}})
	require.NoError(t, err)
	assert.Len(t, out["created"], 2)
	failures := out["failures"].([]any)
	require.Len(t, failures, 1)
	assert.Equal(t, float64(1), failures[0].(map[string]any)["index"])

	board, err := c.Call(ctx, "GetBoard", nil)
	require.NoError(t, err)
	assert.Equal(t, float64(2), board["total"])
	assert.Len(t, board["active"], 1)
	assert.Len(t, board["completed"], 1)

	_, err = c.Call(ctx, "ImportTasks", map[string]any{"tasks": []any{map[string]any{}}})
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestRequestIDIsEchoed(t *testing.T) {
	c := newTestClient(t)
	ctx := metadata.AppendToOutgoingContext(context.Background(), middleware.RequestIDHeader, "trace-42")

	var header metadata.MD
	_, err := c.Call(ctx, "ListCategories", nil, grpc.Header(&header))
	require.NoError(t, err)
	assert.Equal(t, []string{"trace-42"}, header.Get(middleware.RequestIDHeader))
}
