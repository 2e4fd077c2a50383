package httpapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/gurkanbulca/taskboard/internal/dto"
	"github.com/gurkanbulca/taskboard/internal/errs"
	"github.com/gurkanbulca/taskboard/internal/service"
)

type handlers struct {
	gw *service.Gateway
}

func decodeObject(c echo.Context) (map[string]any, error) {
	var body map[string]any
	if err := c.Echo().JSONSerializer.Deserialize(c, &body); err != nil {
		return nil, err
	}
	if body == nil {
		return nil, errs.Invalid("body", "must be a JSON object")
	}
	return body, nil
}

// queryList collects repeated and comma-separated values of name.
func queryList(c echo.Context, name string) []string {
	var out []string
	for _, raw := range c.QueryParams()[name] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func filterFromQuery(c echo.Context) (service.Filter, error) {
	return service.ParseFilter(
		c.QueryParam("search"),
		queryList(c, "status"),
		queryList(c, "priority"),
		queryList(c, "category"),
	)
}

func (h *handlers) listTasks(c echo.Context) error {
	f, err := filterFromQuery(c)
	if err != nil {
		return err
	}
	tasks, err := h.gw.ListTasks(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"tasks": dto.NewTasks(tasks, h.gw.Now())})
}

func (h *handlers) createTask(c echo.Context) error {
	body, err := decodeObject(c)
	if err != nil {
		return err
	}
	in, err := service.TaskInputFromMap(body)
	if err != nil {
		return err
	}
	task, err := h.gw.CreateTask(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.NewTask(task, h.gw.Now()))
}

func (h *handlers) importTasks(c echo.Context) error {
	body, err := decodeObject(c)
	if err != nil {
		return err
	}
	inputs, err := service.TaskInputsFromList(body["tasks"])
	if err != nil {
		return err
	}
	res, err := h.gw.ImportTasks(c.Request().Context(), inputs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewImportResult(res, h.gw.Now()))
}

func (h *handlers) getTask(c echo.Context) error {
	task, err := h.gw.GetTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewTask(task, h.gw.Now()))
}

func (h *handlers) updateTask(c echo.Context) error {
	body, err := decodeObject(c)
	if err != nil {
		return err
	}
	in, err := service.TaskInputFromMap(body)
	if err != nil {
		return err
	}
	task, err := h.gw.UpdateTask(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewTask(task, h.gw.Now()))
}

func (h *handlers) deleteTask(c echo.Context) error {
	task, err := h.gw.DeleteTask(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewTask(task, h.gw.Now()))
}

func (h *handlers) toggleTask(c echo.Context) error {
	task, err := h.gw.ToggleTaskComplete(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewTask(task, h.gw.Now()))
}

func (h *handlers) listCategories(c echo.Context) error {
	categories, err := h.gw.ListCategories(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"categories": dto.NewCategories(categories)})
}

func (h *handlers) createCategory(c echo.Context) error {
	body, err := decodeObject(c)
	if err != nil {
		return err
	}
	in, err := service.CategoryInputFromMap(body)
	if err != nil {
		return err
	}
	category, err := h.gw.CreateCategory(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, dto.NewCategory(category))
}

func (h *handlers) getCategory(c echo.Context) error {
	category, err := h.gw.GetCategory(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewCategory(category))
}

func (h *handlers) updateCategory(c echo.Context) error {
	body, err := decodeObject(c)
	if err != nil {
		return err
	}
	in, err := service.CategoryInputFromMap(body)
	if err != nil {
		return err
	}
	category, err := h.gw.UpdateCategory(c.Request().Context(), c.Param("id"), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewCategory(category))
}

func (h *handlers) deleteCategory(c echo.Context) error {
	category, err := h.gw.DeleteCategory(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewCategory(category))
}

func (h *handlers) board(c echo.Context) error {
	f, err := filterFromQuery(c)
	if err != nil {
		return err
	}
	board, err := h.gw.Board(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dto.NewBoard(board, h.gw.Now()))
}
