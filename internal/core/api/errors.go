package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/pricekeeper/internal/core/auth"
	"github.com/solatis/pricekeeper/internal/types"
)

// Auth errors are mapped in the auth package interceptor.
// Everything else is mapped here, at the API boundary only.

// statusError converts a domain or storage error into a gRPC status.
// Unrecognized errors are storage failures and map to UNAVAILABLE.
func statusError(err error) error {
	switch {
	case errors.Is(err, types.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, types.ErrRuleNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, types.ErrDuplicateRule):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Unavailable, err.Error())
	}
}

func invalidArgument(format string, args ...interface{}) error {
	return status.Errorf(codes.InvalidArgument, format, args...)
}

// tenantFrom returns the authenticated tenant. A missing tenant means the
// auth interceptor was not installed.
func tenantFrom(ctx context.Context) (string, error) {
	tenantID := auth.TenantIDFromContext(ctx)
	if tenantID == "" {
		return "", status.Error(codes.Internal, "missing tenant_id in context")
	}
	return tenantID, nil
}
