package grpc

import (
	"context"

	"github.com/holiman/uint256"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/dmitrijs2005/stakeledger/internal/rpc"
	"github.com/dmitrijs2005/stakeledger/internal/server/auth"
	"github.com/dmitrijs2005/stakeledger/internal/server/events"
	"github.com/dmitrijs2005/stakeledger/internal/server/ledger"
)

func caller(ctx context.Context) (auth.Identity, error) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return auth.Identity{}, status.Error(codes.Unauthenticated, "unauthenticated")
	}
	return id, nil
}

func principal(id auth.Identity) ledger.Principal {
	return ledger.Principal{ID: id.Subject, Admin: id.Admin()}
}

// holderOrCaller resolves the holder a query refers to.
func holderOrCaller(ctx context.Context, holder string) (string, error) {
	if holder != "" {
		return holder, nil
	}
	id, err := caller(ctx)
	if err != nil {
		return "", err
	}
	return id.Subject, nil
}

func (s *GRPCServer) Deposit(ctx context.Context, req *rpc.BatchRequest) (*rpc.DepositResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.ledger.Deposit(ctx, req.Items, id.Subject); err != nil {
		return nil, s.toStatus(ctx, "Deposit", err)
	}
	return &rpc.DepositResponse{Items: len(req.Items)}, nil
}

func (s *GRPCServer) Withdraw(ctx context.Context, req *rpc.BatchRequest) (*rpc.AmountResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	paid, err := s.ledger.Withdraw(ctx, req.Items, id.Subject)
	if err != nil {
		return nil, s.toStatus(ctx, "Withdraw", err)
	}
	return &rpc.AmountResponse{Amount: paid.Dec()}, nil
}

func (s *GRPCServer) Harvest(ctx context.Context, req *rpc.BatchRequest) (*rpc.AmountResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	paid, err := s.ledger.Harvest(ctx, req.Items, id.Subject)
	if err != nil {
		return nil, s.toStatus(ctx, "Harvest", err)
	}
	return &rpc.AmountResponse{Amount: paid.Dec()}, nil
}

func (s *GRPCServer) Accrual(ctx context.Context, req *rpc.AccrualRequest) (*rpc.AmountResponse, error) {
	if req.ItemID == "" {
		return nil, status.Error(codes.InvalidArgument, "item_id is required")
	}
	v, err := s.ledger.Accrual(ctx, req.ItemID)
	if err != nil {
		return nil, s.toStatus(ctx, "Accrual", err)
	}
	return &rpc.AmountResponse{Amount: v.Dec()}, nil
}

func (s *GRPCServer) Holdings(ctx context.Context, req *rpc.HolderRequest) (*rpc.HoldingsResponse, error) {
	holder, err := holderOrCaller(ctx, req.Holder)
	if err != nil {
		return nil, err
	}
	stakes, err := s.ledger.Holdings(ctx, holder)
	if err != nil {
		return nil, s.toStatus(ctx, "Holdings", err)
	}
	return &rpc.HoldingsResponse{Holder: holder, Stakes: stakes}, nil
}

func (s *GRPCServer) PendingRewards(ctx context.Context, req *rpc.HolderRequest) (*rpc.AmountResponse, error) {
	holder, err := holderOrCaller(ctx, req.Holder)
	if err != nil {
		return nil, err
	}
	v, err := s.ledger.PendingRewards(ctx, holder)
	if err != nil {
		return nil, s.toStatus(ctx, "PendingRewards", err)
	}
	return &rpc.AmountResponse{Amount: v.Dec()}, nil
}

func (s *GRPCServer) Stats(ctx context.Context, _ *rpc.Empty) (*rpc.StatsResponse, error) {
	st, err := s.ledger.Stats(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, "Stats", err)
	}
	st = st.Clone()
	return &rpc.StatsResponse{RewardRatePerSecond: st.RewardRatePerSecond.Dec(), TotalDeposited: st.TotalDeposited}, nil
}

func (s *GRPCServer) SetRewardRate(ctx context.Context, req *rpc.SetRewardRateRequest) (*rpc.SetRewardRateResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	perDay, err := uint256.FromDecimal(req.PerDay)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "per_day: %v", err)
	}
	rate, err := s.ledger.SetRewardRate(ctx, principal(id), perDay)
	if err != nil {
		return nil, s.toStatus(ctx, "SetRewardRate", err)
	}
	return &rpc.SetRewardRateResponse{RatePerSecond: rate.Dec()}, nil
}

func (s *GRPCServer) EmergencyDrain(ctx context.Context, _ *rpc.Empty) (*rpc.AmountResponse, error) {
	id, err := caller(ctx)
	if err != nil {
		return nil, err
	}
	drained, err := s.ledger.EmergencyDrain(ctx, principal(id))
	if err != nil {
		return nil, s.toStatus(ctx, "EmergencyDrain", err)
	}
	return &rpc.AmountResponse{Amount: drained.Dec()}, nil
}

func (s *GRPCServer) Snapshot(ctx context.Context, _ *rpc.Empty) (*rpc.SnapshotResponse, error) {
	if s.snapshots == nil {
		return nil, status.Error(codes.Unimplemented, "snapshot storage is not configured")
	}
	snap, err := s.ledger.Export(ctx)
	if err != nil {
		return nil, s.toStatus(ctx, "Snapshot", err)
	}
	loc, err := s.snapshots.Save(ctx, snap)
	if err != nil {
		s.logger.Error(ctx, "snapshot upload failed", "error", err)
		return nil, status.Error(codes.Unavailable, "snapshot upload failed")
	}
	s.logger.Info(ctx, "snapshot saved", "location", loc, "stakes", len(snap.Stakes))
	return &rpc.SnapshotResponse{Location: loc, Stakes: len(snap.Stakes)}, nil
}

func (s *GRPCServer) Events(ctx context.Context, req *rpc.EventsRequest) (*rpc.EventsResponse, error) {
	if s.events == nil {
		return nil, status.Error(codes.Unimplemented, "event journal is not configured")
	}
	if req.Limit < 0 {
		return nil, status.Error(codes.InvalidArgument, "limit must not be negative")
	}
	evs, err := s.events.Query(ctx, events.Filter{Holder: req.Holder, ItemID: req.ItemID, Kind: req.Kind, Limit: req.Limit})
	if err != nil {
		return nil, s.toStatus(ctx, "Events", err)
	}
	return &rpc.EventsResponse{Events: evs}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, _ *rpc.Empty) (*rpc.PingResponse, error) {
	return &rpc.PingResponse{Status: "OK"}, nil
}
