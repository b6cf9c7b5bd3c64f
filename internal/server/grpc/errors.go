package grpc

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/stakeledger/internal/common"
	"github.com/dmitrijs2005/stakeledger/internal/server/ledger"
	"github.com/dmitrijs2005/stakeledger/internal/server/locks"
)

var statusCodes = []struct {
	err  error
	code codes.Code
}{
	{ledger.ErrNotOwner, codes.PermissionDenied},
	{ledger.ErrAlreadyStaked, codes.AlreadyExists},
	{ledger.ErrNoRewards, codes.FailedPrecondition},
	{ledger.ErrArithmeticOverflow, codes.OutOfRange},
	{ledger.ErrReentrantCall, codes.Aborted},
	{locks.ErrLocked, codes.Aborted},
	{ledger.ErrEmptyBatch, codes.InvalidArgument},
	{ledger.ErrDuplicateItem, codes.InvalidArgument},
	{ledger.ErrInvalidItem, codes.InvalidArgument},
	{ledger.ErrUnauthorized, codes.PermissionDenied},
	{common.ErrorNotFound, codes.NotFound},
	{context.Canceled, codes.Canceled},
	{context.DeadlineExceeded, codes.DeadlineExceeded},
}

// toStatus converts a ledger error into a gRPC status. External failures and
// unknown errors are logged and reported without their text.
func (s *GRPCServer) toStatus(ctx context.Context, method string, err error) error {
	if errors.Is(err, ledger.ErrExternalService) {
		s.logger.Warn(ctx, "external service failed", "method", method, "error", err)
		return status.Error(codes.Unavailable, ledger.ErrExternalService.Error())
	}
	for _, m := range statusCodes {
		if errors.Is(err, m.err) {
			return status.Error(m.code, err.Error())
		}
	}
	s.logger.Error(ctx, "request failed", "method", method, "error", err)
	return status.Error(codes.Internal, "internal error")
}
