package grpcapi

import (
	"context"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/gurkanbulca/taskboard/internal/dto"
	"github.com/gurkanbulca/taskboard/internal/service"
)

// Server implements TaskBoardServer over a Gateway. It returns domain
// errors; middleware.ErrorInterceptor turns them into statuses.
type Server struct {
	gw *service.Gateway
}

var _ TaskBoardServer = (*Server)(nil)

func NewServer(gw *service.Gateway) *Server {
	return &Server{gw: gw}
}

func (s *Server) CreateTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in, err := service.TaskInputFromMap(req.AsMap())
	if err != nil {
		return nil, err
	}
	task, err := s.gw.CreateTask(ctx, in)
	if err != nil {
		return nil, err
	}
	return toStruct(dto.NewTask(task, s.gw.Now()))
}

func (s *Server) GetTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	task, err := s.gw.GetTask(ctx, idOf(req))
	if err != nil {
		return nil, err
	}
	return toStruct(dto.NewTask(task, s.gw.Now()))
}

// ListTasks accepts search, status, priority and category; the last three
// as lists.
func (s *Server) ListTasks(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := filterOf(req.AsMap())
	if err != nil {
		return nil, err
	}
	tasks, err := s.gw.ListTasks(ctx, f)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"tasks": dto.NewTasks(tasks, s.gw.Now())})
}

func (s *Server) UpdateTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in, err := service.TaskInputFromMap(req.AsMap())
	if err != nil {
		return nil, err
	}
	task, err := s.gw.UpdateTask(ctx, idOf(req), in)
	if err != nil {
		return nil, err
	}
	return toStruct(dto.NewTask(task, s.gw.Now()))
}

func (s *Server) ToggleTaskComplete(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	task, err := s.gw.ToggleTaskComplete(ctx, idOf(req))
	if err != nil {
		return nil, err
	}
	return toStruct(dto.NewTask(task, s.gw.Now()))
}

func (s *Server) DeleteTask(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	task, err := s.gw.DeleteTask(ctx, idOf(req))
	if err != nil {
		return nil, err
	}
	return toStruct(dto.NewTask(task, s.gw.Now()))
}

// ImportTasks takes {"tasks": [...]} and reports created tasks alongside
// per-item failures. Only a batch where every item failed is an error.
func (s *Server) ImportTasks(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	inputs, err := service.TaskInputsFromList(req.AsMap()["tasks"])
	if err != nil {
		return nil, err
	}
	res, err := s.gw.ImportTasks(ctx, inputs)
	if err != nil {
		return nil, err
	}
	return toStruct(dto.NewImportResult(res, s.gw.Now()))
}

func (s *Server) CreateCategory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in, err := service.CategoryInputFromMap(req.AsMap())
	if err != nil {
		return nil, err
	}
	category, err := s.gw.CreateCategory(ctx, in)
	if err != nil {
		return nil, err
	}
	return toStruct(dto.NewCategory(category))
}

func (s *Server) GetCategory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	category, err := s.gw.GetCategory(ctx, idOf(req))
	if err != nil {
		return nil, err
	}
	return toStruct(dto.NewCategory(category))
}

func (s *Server) ListCategories(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	categories, err := s.gw.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	return toStruct(map[string]any{"categories": dto.NewCategories(categories)})
}

func (s *Server) UpdateCategory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	in, err := service.CategoryInputFromMap(req.AsMap())
	if err != nil {
		return nil, err
	}
	category, err := s.gw.UpdateCategory(ctx, idOf(req), in)
	if err != nil {
		return nil, err
	}
	return toStruct(dto.NewCategory(category))
}

func (s *Server) DeleteCategory(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	category, err := s.gw.DeleteCategory(ctx, idOf(req))
	if err != nil {
		return nil, err
	}
	return toStruct(dto.NewCategory(category))
}

func (s *Server) GetBoard(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	f, err := filterOf(req.AsMap())
	if err != nil {
		return nil, err
	}
	board, err := s.gw.Board(ctx, f)
	if err != nil {
		return nil, err
	}
	return toStruct(dto.NewBoard(board, s.gw.Now()))
}
