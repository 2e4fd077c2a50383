// Package grpcapi exposes the gateway as the taskboard.v1.TaskBoard gRPC
// service. Requests and responses are google.protobuf.Struct values using
// the same field names as the JSON API.
package grpcapi

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const ServiceName = "taskboard.v1.TaskBoard"

// TaskBoardServer is the server side of taskboard.v1.TaskBoard.
type TaskBoardServer interface {
	CreateTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListTasks(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ToggleTaskComplete(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteTask(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ImportTasks(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateCategory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCategory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListCategories(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateCategory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeleteCategory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetBoard(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(TaskBoardServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func method(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + ServiceName + "/" + name
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(TaskBoardServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(TaskBoardServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes taskboard.v1.TaskBoard for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*TaskBoardServer)(nil),
	Methods: []grpc.MethodDesc{
		method("CreateTask", TaskBoardServer.CreateTask),
		method("GetTask", TaskBoardServer.GetTask),
		method("ListTasks", TaskBoardServer.ListTasks),
		method("UpdateTask", TaskBoardServer.UpdateTask),
		method("ToggleTaskComplete", TaskBoardServer.ToggleTaskComplete),
		method("DeleteTask", TaskBoardServer.DeleteTask),
		method("ImportTasks", TaskBoardServer.ImportTasks),
		method("CreateCategory", TaskBoardServer.CreateCategory),
		method("GetCategory", TaskBoardServer.GetCategory),
		method("ListCategories", TaskBoardServer.ListCategories),
		method("UpdateCategory", TaskBoardServer.UpdateCategory),
		method("DeleteCategory", TaskBoardServer.DeleteCategory),
		method("GetBoard", TaskBoardServer.GetBoard),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "taskboard/v1/taskboard.proto",
}

func RegisterTaskBoardServer(s grpc.ServiceRegistrar, srv TaskBoardServer) {
	s.RegisterService(&ServiceDesc, srv)
}
