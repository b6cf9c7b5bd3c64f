package external

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/holiman/uint256"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/stakeledger/internal/common"
	"github.com/dmitrijs2005/stakeledger/internal/rpc"
	"github.com/dmitrijs2005/stakeledger/internal/server/ledger"
)

// DefaultCallTimeout bounds one call to a remote collaborator.
const DefaultCallTimeout = 5 * time.Second

// Dial opens a client connection to a collaborator service.
func Dial(target string) (*grpc.ClientConn, error) {
	return grpc.NewClient(target, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// CustodyClient implements ledger.Custody over the remote Custody service.
type CustodyClient struct {
	c       *rpc.CustodyClient
	timeout time.Duration
}

func NewCustodyClient(cc grpc.ClientConnInterface) *CustodyClient {
	return &CustodyClient{c: rpc.NewCustodyClient(cc), timeout: DefaultCallTimeout}
}

func (c *CustodyClient) OwnerOf(ctx context.Context, itemID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.c.OwnerOf(ctx, &rpc.OwnerOfRequest{ItemID: itemID})
	if err != nil {
		return "", fmt.Errorf("custody owner of %s: %w", itemID, err)
	}
	return resp.Owner, nil
}

func (c *CustodyClient) Transfer(ctx context.Context, itemID, from, to string) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.c.Transfer(ctx, &rpc.TransferItemRequest{ItemID: itemID, From: from, To: to}); err != nil {
		return fmt.Errorf("custody transfer %s: %w", itemID, err)
	}
	return nil
}

// TreasuryClient implements ledger.Treasury over the remote Treasury service.
type TreasuryClient struct {
	c       *rpc.TreasuryClient
	timeout time.Duration
}

func NewTreasuryClient(cc grpc.ClientConnInterface) *TreasuryClient {
	return &TreasuryClient{c: rpc.NewTreasuryClient(cc), timeout: DefaultCallTimeout}
}

func (c *TreasuryClient) Transfer(ctx context.Context, to string, amount *uint256.Int) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if _, err := c.c.Transfer(ctx, &rpc.TransferRequest{To: to, Amount: amount.Dec()}); err != nil {
		return fmt.Errorf("treasury transfer to %s: %w", to, err)
	}
	return nil
}

func (c *TreasuryClient) BalanceOf(ctx context.Context, account string) (*uint256.Int, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.c.BalanceOf(ctx, &rpc.BalanceRequest{Account: account})
	if err != nil {
		return nil, fmt.Errorf("treasury balance of %s: %w", account, err)
	}
	v, err := uint256.FromDecimal(resp.Amount)
	if err != nil {
		return nil, fmt.Errorf("treasury balance of %s: decode %q: %w", account, resp.Amount, err)
	}
	return v, nil
}

// CustodyService exposes a ledger.Custody as the Custody gRPC service.
type CustodyService struct {
	Custody ledger.Custody
}

func (s *CustodyService) OwnerOf(ctx context.Context, in *rpc.OwnerOfRequest) (*rpc.OwnerOfResponse, error) {
	owner, err := s.Custody.OwnerOf(ctx, in.ItemID)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.OwnerOfResponse{Owner: owner}, nil
}

func (s *CustodyService) Transfer(ctx context.Context, in *rpc.TransferItemRequest) (*rpc.Empty, error) {
	if err := s.Custody.Transfer(ctx, in.ItemID, in.From, in.To); err != nil {
		return nil, toStatus(err)
	}
	return &rpc.Empty{}, nil
}

// TreasuryService exposes a ledger.Treasury as the Treasury gRPC service.
type TreasuryService struct {
	Treasury ledger.Treasury
}

func (s *TreasuryService) Transfer(ctx context.Context, in *rpc.TransferRequest) (*rpc.Empty, error) {
	amount, err := uint256.FromDecimal(in.Amount)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "amount %q: %v", in.Amount, err)
	}
	if err := s.Treasury.Transfer(ctx, in.To, amount); err != nil {
		return nil, toStatus(err)
	}
	return &rpc.Empty{}, nil
}

func (s *TreasuryService) BalanceOf(ctx context.Context, in *rpc.BalanceRequest) (*rpc.BalanceResponse, error) {
	v, err := s.Treasury.BalanceOf(ctx, in.Account)
	if err != nil {
		return nil, toStatus(err)
	}
	return &rpc.BalanceResponse{Amount: v.Dec()}, nil
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, common.ErrorConflict):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, ErrNotHeld), errors.Is(err, ErrInsufficientFunds):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
