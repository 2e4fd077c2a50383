package middleware

import (
	"context"
	"errors"
	"strings"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gurkanbulca/taskboard/internal/errs"
)

// ErrorInterceptor turns domain errors returned by handlers into gRPC
// statuses. Errors that already carry a status pass through.
type ErrorInterceptor struct{}

func NewErrorInterceptor() *ErrorInterceptor {
	return &ErrorInterceptor{}
}

func (e *ErrorInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			return nil, ToStatus(err)
		}
		return resp, nil
	}
}

func (e *ErrorInterceptor) Stream() grpc.StreamServerInterceptor {
	return func(srv interface{}, stream grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		if err := handler(srv, stream); err != nil {
			return ToStatus(err)
		}
		return nil
	}
}

// ToStatus maps err onto a gRPC status error. Validation failures carry a
// BadRequest detail with one violation per field.
func ToStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errs.IsValidation(err):
		details := errs.ValidationDetails(err)
		messages := make([]string, 0, len(details))
		violations := make([]*errdetails.BadRequest_FieldViolation, 0, len(details))
		for _, d := range details {
			messages = append(messages, d.Error())
			violations = append(violations, &errdetails.BadRequest_FieldViolation{
				Field:       d.Field,
				Description: d.Reason,
			})
		}
		st := status.New(codes.InvalidArgument, "validation failed: "+strings.Join(messages, "; "))
		if withDetails, derr := st.WithDetails(&errdetails.BadRequest{FieldViolations: violations}); derr == nil {
			st = withDetails
		}
		return st.Err()
	case errs.IsNotFound(err):
		return status.Error(codes.NotFound, err.Error())
	case errs.IsBackend(err):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// FieldViolations reads the per-field failures back out of a status error.
func FieldViolations(err error) map[string]string {
	st, ok := status.FromError(err)
	if !ok {
		return nil
	}
	out := map[string]string{}
	for _, d := range st.Details() {
		if br, ok := d.(*errdetails.BadRequest); ok {
			for _, v := range br.GetFieldViolations() {
				out[v.GetField()] = v.GetDescription()
			}
		}
	}
	return out
}
