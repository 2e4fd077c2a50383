package httpapi

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gurkanbulca/taskboard/internal/dto"
	"github.com/gurkanbulca/taskboard/internal/models"
	"github.com/gurkanbulca/taskboard/internal/schema"
	"github.com/gurkanbulca/taskboard/internal/service"
	"github.com/gurkanbulca/taskboard/internal/storage"
	"github.com/gurkanbulca/taskboard/internal/storage/memory"
)

var fixedNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func newTestAPI(t *testing.T) *echo.Echo {
	t.Helper()
	tasks := storage.NewStore[models.Task, models.TaskPatch, schema.LocalTask](
		"task", memory.New[schema.LocalTask]("task"), schema.LocalTaskMapper{})
	categories := storage.NewStore[models.Category, models.CategoryPatch, schema.LocalCategory](
		"category", memory.New[schema.LocalCategory]("category"), schema.LocalCategoryMapper{})
	return New(service.NewGateway(tasks, categories, service.WithClock(func() time.Time { return fixedNow })))
}

func do(t *testing.T, e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestTaskEndpoints(t *testing.T) {
	e := newTestAPI(t)

	rec := do(t, e, http.MethodPost, "/api/categories", `{"name":"Work","icon":"Briefcase"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	cat := decode[dto.Category](t, rec)
	assert.Equal(t, "Briefcase", cat.Icon)

	rec = do(t, e, http.MethodPost, "/api/tasks", `{"title":"Ship it","categoryId":1,"dueDate":"2024-06-01"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	task := decode[dto.Task](t, rec)
	assert.Equal(t, 1, task.ID)
	assert.Equal(t, "medium", task.Priority)
	assert.True(t, task.DueToday)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	rec = do(t, e, http.MethodPatch, "/api/tasks/1", `{"priority":"low","dueDate":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	task = decode[dto.Task](t, rec)
	assert.Equal(t, "low", task.Priority)
	assert.Nil(t, task.DueDate)

	rec = do(t, e, http.MethodPost, "/api/tasks/1/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[dto.Task](t, rec).Completed)

	rec = do(t, e, http.MethodGet, "/api/tasks?status=active,completed&category=1&search=SHIP", "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[map[string][]dto.Task](t, rec)
	assert.Len(t, list["tasks"], 1)

	rec = do(t, e, http.MethodGet, "/api/categories/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[dto.Category](t, rec).TaskCount)

	rec = do(t, e, http.MethodDelete, "/api/tasks/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, e, http.MethodGet, "/api/tasks/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestErrorResponses(t *testing.T) {
	e := newTestAPI(t)

	tests := []struct {
		name   string
		method string
		target string
		body   string
		code   int
		field  string
	}{
		{name: "empty title", method: http.MethodPost, target: "/api/tasks", body: `{"title":"","categoryId":1}`, code: http.StatusBadRequest, field: "title"},
		{name: "malformed body", method: http.MethodPost, target: "/api/tasks", body: `{"title":`, code: http.StatusBadRequest, field: "body"},
		{name: "non-numeric id", method: http.MethodGet, target: "/api/tasks/abc", code: http.StatusBadRequest, field: "id"},
		{name: "unknown status", method: http.MethodGet, target: "/api/tasks?status=archived", code: http.StatusBadRequest, field: "status"},
		{name: "missing category", method: http.MethodDelete, target: "/api/categories/9", code: http.StatusNotFound},
		{name: "unknown route", method: http.MethodGet, target: "/api/nothing", code: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, e, tt.method, tt.target, tt.body)
			require.Equal(t, tt.code, rec.Code)
			body := decode[dto.ErrorBody](t, rec)
			assert.NotEmpty(t, body.Error)
			if tt.field != "" {
				require.NotEmpty(t, body.Fields)
				assert.Equal(t, tt.field, body.Fields[0].Field)
			}
		})
	}
}

func TestImportAndBoardEndpoints(t *testing.T) {
	e := newTestAPI(t)

	rec := do(t, e, http.MethodPost, "/api/tasks/import", `{"tasks":[{"title":"a","categoryId":1},{"title":"b"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[dto.ImportResult](t, rec)
	assert.Len(t, res.Created, 1)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, 1, res.Failures[0].Index)
	assert.Equal(t, "categoryId", res.Failures[0].Fields[0].Field)

	rec = do(t, e, http.MethodPost, "/api/tasks/import", `{"tasks":[{"title":""}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, e, http.MethodGet, "/api/board?priority=medium", "")
	require.Equal(t, http.StatusOK, rec.Code)
	board := decode[dto.Board](t, rec)
	assert.Equal(t, 1, board.Total)
	assert.Len(t, board.Active, 1)
	assert.Empty(t, board.Completed)
}

func TestHealthAndMetrics(t *testing.T) {
	e := newTestAPI(t)

	assert.Equal(t, http.StatusOK, do(t, e, http.MethodGet, "/healthz", "").Code)

	do(t, e, http.MethodGet, "/api/categories", "")
	rec := do(t, e, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "taskboard_commands_total")
}
