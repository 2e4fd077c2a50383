package main

import (
	"bytes"
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"

	"github.com/gurkanbulca/taskboard/internal/grpcapi"
	"github.com/gurkanbulca/taskboard/internal/middleware"
	"github.com/gurkanbulca/taskboard/internal/models"
	"github.com/gurkanbulca/taskboard/internal/schema"
	"github.com/gurkanbulca/taskboard/internal/service"
	"github.com/gurkanbulca/taskboard/internal/storage"
	"github.com/gurkanbulca/taskboard/internal/storage/memory"
)

func startServer(t *testing.T) dialFunc {
	t.Helper()
	tasks := storage.NewStore[models.Task, models.TaskPatch, schema.LocalTask](
		"task", memory.New[schema.LocalTask]("task"), schema.LocalTaskMapper{})
	categories := storage.NewStore[models.Category, models.CategoryPatch, schema.LocalCategory](
		"category", memory.New[schema.LocalCategory]("category"), schema.LocalCategoryMapper{})

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(middleware.NewErrorInterceptor().Unary()))
	grpcapi.RegisterTaskBoardServer(srv, grpcapi.NewServer(service.NewGateway(tasks, categories)))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	return func(ctx context.Context, _ string) (*grpcapi.Client, func() error, error) {
		conn, err := grpc.NewClient("passthrough:///bufnet",
			grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
		if err != nil {
			return nil, nil, err
		}
		return grpcapi.NewClient(conn), conn.Close, nil
	}
}

func execute(t *testing.T, dial dialFunc, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(dial, &out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTaskCommands(t *testing.T) {
	dial := startServer(t)

	out, err := execute(t, dial, "categories", "add", "Work", "--icon", "Briefcase")
	require.NoError(t, err)
	assert.Contains(t, out, `created category 1 "Work"`)

	out, err = execute(t, dial, "tasks", "add", "Write report", "-c", "1", "-p", "high", "--due", "2030-01-01")
	require.NoError(t, err)
	assert.Contains(t, out, `created task 1 "Write report" (active, high)`)

	out, err = execute(t, dial, "tasks", "done", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "completed")

	out, err = execute(t, dial, "tasks", "list", "--status", "completed")
	require.NoError(t, err)
	assert.Contains(t, out, "Write report")
	assert.Contains(t, out, "2030-01-01")

	out, err = execute(t, dial, "categories", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Briefcase")
	assert.Contains(t, out, "TASKS")

	out, err = execute(t, dial, "--json", "tasks", "list", "--search", "nothing")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)

	_, err = execute(t, dial, "tasks", "rm", "1")
	require.NoError(t, err)
	_, err = execute(t, dial, "tasks", "rm", "1")
	assert.ErrorContains(t, err, "NotFound")
}

func TestCommandErrors(t *testing.T) {
	dial := startServer(t)

	_, err := execute(t, dial, "tasks", "add", "No category")
	assert.ErrorContains(t, err, "invalid input: categoryId")

	_, err = execute(t, dial, "tasks", "done", "abc")
	assert.ErrorContains(t, err, `invalid id "abc"`)

	_, err = execute(t, dial, "tasks", "list", "--priority", "urgent")
	assert.ErrorContains(t, err, "priority")
}
