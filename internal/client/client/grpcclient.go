package client

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/stakeledger/internal/common"
	"github.com/dmitrijs2005/stakeledger/internal/rpc"
	"github.com/dmitrijs2005/stakeledger/internal/server/events"
	"github.com/dmitrijs2005/stakeledger/internal/server/models"
)

// ledgerAPI is the subset of rpc.LedgerClient used here.
type ledgerAPI interface {
	Deposit(ctx context.Context, in *rpc.BatchRequest, opts ...grpc.CallOption) (*rpc.DepositResponse, error)
	Withdraw(ctx context.Context, in *rpc.BatchRequest, opts ...grpc.CallOption) (*rpc.AmountResponse, error)
	Harvest(ctx context.Context, in *rpc.BatchRequest, opts ...grpc.CallOption) (*rpc.AmountResponse, error)
	Accrual(ctx context.Context, in *rpc.AccrualRequest, opts ...grpc.CallOption) (*rpc.AmountResponse, error)
	Holdings(ctx context.Context, in *rpc.HolderRequest, opts ...grpc.CallOption) (*rpc.HoldingsResponse, error)
	PendingRewards(ctx context.Context, in *rpc.HolderRequest, opts ...grpc.CallOption) (*rpc.AmountResponse, error)
	Stats(ctx context.Context, in *rpc.Empty, opts ...grpc.CallOption) (*rpc.StatsResponse, error)
	SetRewardRate(ctx context.Context, in *rpc.SetRewardRateRequest, opts ...grpc.CallOption) (*rpc.SetRewardRateResponse, error)
	EmergencyDrain(ctx context.Context, in *rpc.Empty, opts ...grpc.CallOption) (*rpc.AmountResponse, error)
	Snapshot(ctx context.Context, in *rpc.Empty, opts ...grpc.CallOption) (*rpc.SnapshotResponse, error)
	Events(ctx context.Context, in *rpc.EventsRequest, opts ...grpc.CallOption) (*rpc.EventsResponse, error)
	Ping(ctx context.Context, in *rpc.Empty, opts ...grpc.CallOption) (*rpc.PingResponse, error)
}

type GRPCClient struct {
	endpointURL string
	conn        *grpc.ClientConn
	client      ledgerAPI
	accessToken string
	timeout     time.Duration
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply any,
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if s.accessToken != "" {
		ctx = withAccessToken(ctx, s.accessToken)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

func NewGRPCClient(endpointURL, accessToken string, timeout time.Duration) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, accessToken: accessToken, timeout: timeout}
	conn, err := grpc.NewClient(c.endpointURL,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = rpc.NewLedgerClient(conn)
	return c, nil
}

func (s *GRPCClient) Close() error {
	return s.conn.Close()
}

func (s *GRPCClient) call(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *GRPCClient) Deposit(ctx context.Context, items []string) (int, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()

	resp, err := s.client.Deposit(ctx, &rpc.BatchRequest{Items: items})
	if err != nil {
		return 0, s.mapError(err)
	}
	return resp.Items, nil
}

func (s *GRPCClient) Withdraw(ctx context.Context, items []string) (string, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()

	resp, err := s.client.Withdraw(ctx, &rpc.BatchRequest{Items: items})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.Amount, nil
}

func (s *GRPCClient) Harvest(ctx context.Context, items []string) (string, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()

	resp, err := s.client.Harvest(ctx, &rpc.BatchRequest{Items: items})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.Amount, nil
}

func (s *GRPCClient) Accrual(ctx context.Context, itemID string) (string, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()

	resp, err := s.client.Accrual(ctx, &rpc.AccrualRequest{ItemID: itemID})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.Amount, nil
}

// Holdings lists the stakes of holder; empty means the token subject.
func (s *GRPCClient) Holdings(ctx context.Context, holder string) ([]models.Stake, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()

	resp, err := s.client.Holdings(ctx, &rpc.HolderRequest{Holder: holder})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Stakes, nil
}

func (s *GRPCClient) PendingRewards(ctx context.Context, holder string) (string, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()

	resp, err := s.client.PendingRewards(ctx, &rpc.HolderRequest{Holder: holder})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.Amount, nil
}

func (s *GRPCClient) Stats(ctx context.Context) (*rpc.StatsResponse, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()

	resp, err := s.client.Stats(ctx, &rpc.Empty{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) SetRewardRate(ctx context.Context, perDay string) (string, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()

	resp, err := s.client.SetRewardRate(ctx, &rpc.SetRewardRateRequest{PerDay: perDay})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.RatePerSecond, nil
}

func (s *GRPCClient) EmergencyDrain(ctx context.Context) (string, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()

	resp, err := s.client.EmergencyDrain(ctx, &rpc.Empty{})
	if err != nil {
		return "", s.mapError(err)
	}
	return resp.Amount, nil
}

func (s *GRPCClient) Snapshot(ctx context.Context) (*rpc.SnapshotResponse, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()

	resp, err := s.client.Snapshot(ctx, &rpc.Empty{})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp, nil
}

func (s *GRPCClient) Events(ctx context.Context, f events.Filter) ([]events.Event, error) {
	ctx, cancel := s.call(ctx)
	defer cancel()

	resp, err := s.client.Events(ctx, &rpc.EventsRequest{Holder: f.Holder, ItemID: f.ItemID, Kind: f.Kind, Limit: f.Limit})
	if err != nil {
		return nil, s.mapError(err)
	}
	return resp.Events, nil
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := s.call(ctx)
	defer cancel()

	resp, err := s.client.Ping(ctx, &rpc.Empty{})
	if err != nil {
		return s.mapError(err)
	}
	if resp.Status != "OK" {
		return ErrUnavailable
	}
	return nil
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrForbidden, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s", ErrUnavailable, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
