package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/stakeledger/internal/server/ledger"
	"github.com/dmitrijs2005/stakeledger/internal/server/locks"
)

func TestToStatus(t *testing.T) {
	s := newTestServer("secret")
	ctx := context.Background()

	tests := []struct {
		err  error
		want codes.Code
	}{
		{fmt.Errorf("item 1: %w", ledger.ErrNotOwner), codes.PermissionDenied},
		{ledger.ErrAlreadyStaked, codes.AlreadyExists},
		{ledger.ErrNoRewards, codes.FailedPrecondition},
		{ledger.ErrArithmeticOverflow, codes.OutOfRange},
		{fmt.Errorf("transfer: %w: %w", ledger.ErrExternalService, errors.New("timeout")), codes.Unavailable},
		{ledger.ErrReentrantCall, codes.Aborted},
		{fmt.Errorf("lock items: 7: %w", locks.ErrLocked), codes.Aborted},
		{ledger.ErrEmptyBatch, codes.InvalidArgument},
		{ledger.ErrUnauthorized, codes.PermissionDenied},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{errors.New("db error: broken pipe"), codes.Internal},
	}
	for _, tt := range tests {
		got := s.toStatus(ctx, "Test", tt.err)
		if status.Code(got) != tt.want {
			t.Errorf("%v: got %v, want %v", tt.err, status.Code(got), tt.want)
		}
	}

	if msg := status.Convert(s.toStatus(ctx, "Test", errors.New("secret dsn"))).Message(); msg != "internal error" {
		t.Fatalf("internal error text leaked: %q", msg)
	}

	ext := fmt.Errorf("reward transfer: %w: %w", ledger.ErrExternalService, errors.New("pay 500 to alice: insufficient funds"))
	got := status.Convert(s.toStatus(ctx, "Test", ext))
	if got.Code() != codes.Unavailable || got.Message() != ledger.ErrExternalService.Error() {
		t.Fatalf("external failure: got %v %q", got.Code(), got.Message())
	}
}
