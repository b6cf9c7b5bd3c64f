package rpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/dmitrijs2005/stakeledger/internal/server/events"
	"github.com/dmitrijs2005/stakeledger/internal/server/models"
)

const LedgerService = "stakeledger.v1.StakeLedger"

const (
	LedgerDepositMethod        = "/" + LedgerService + "/Deposit"
	LedgerWithdrawMethod       = "/" + LedgerService + "/Withdraw"
	LedgerHarvestMethod        = "/" + LedgerService + "/Harvest"
	LedgerAccrualMethod        = "/" + LedgerService + "/Accrual"
	LedgerHoldingsMethod       = "/" + LedgerService + "/Holdings"
	LedgerPendingRewardsMethod = "/" + LedgerService + "/PendingRewards"
	LedgerStatsMethod          = "/" + LedgerService + "/Stats"
	LedgerSetRewardRateMethod  = "/" + LedgerService + "/SetRewardRate"
	LedgerEmergencyDrainMethod = "/" + LedgerService + "/EmergencyDrain"
	LedgerSnapshotMethod       = "/" + LedgerService + "/Snapshot"
	LedgerEventsMethod         = "/" + LedgerService + "/Events"
	LedgerPingMethod           = "/" + LedgerService + "/Ping"
)

// BatchRequest names the items of a deposit, withdraw or harvest.
type BatchRequest struct {
	Items []string `json:"items"`
}

type DepositResponse struct {
	Items int `json:"items"`
}

// AmountResponse carries a reward amount as a decimal string.
type AmountResponse struct {
	Amount string `json:"amount"`
}

type AccrualRequest struct {
	ItemID string `json:"item_id"`
}

// HolderRequest queries one holder; empty means the caller.
type HolderRequest struct {
	Holder string `json:"holder,omitempty"`
}

type HoldingsResponse struct {
	Holder string         `json:"holder"`
	Stakes []models.Stake `json:"stakes"`
}

type Empty struct{}

type StatsResponse struct {
	RewardRatePerSecond string `json:"reward_rate_per_second"`
	TotalDeposited      uint64 `json:"total_deposited"`
}

type SetRewardRateRequest struct {
	PerDay string `json:"per_day"`
}

type SetRewardRateResponse struct {
	RatePerSecond string `json:"rate_per_second"`
}

type SnapshotResponse struct {
	Location string `json:"location"`
	Stakes   int    `json:"stakes"`
}

type EventsRequest struct {
	Holder string      `json:"holder,omitempty"`
	ItemID string      `json:"item_id,omitempty"`
	Kind   events.Kind `json:"kind,omitempty"`
	Limit  int         `json:"limit,omitempty"`
}

type EventsResponse struct {
	Events []events.Event `json:"events"`
}

type PingResponse struct {
	Status string `json:"status"`
}

// LedgerServer is implemented by the ledger gRPC front end.
type LedgerServer interface {
	Deposit(context.Context, *BatchRequest) (*DepositResponse, error)
	Withdraw(context.Context, *BatchRequest) (*AmountResponse, error)
	Harvest(context.Context, *BatchRequest) (*AmountResponse, error)
	Accrual(context.Context, *AccrualRequest) (*AmountResponse, error)
	Holdings(context.Context, *HolderRequest) (*HoldingsResponse, error)
	PendingRewards(context.Context, *HolderRequest) (*AmountResponse, error)
	Stats(context.Context, *Empty) (*StatsResponse, error)
	SetRewardRate(context.Context, *SetRewardRateRequest) (*SetRewardRateResponse, error)
	EmergencyDrain(context.Context, *Empty) (*AmountResponse, error)
	Snapshot(context.Context, *Empty) (*SnapshotResponse, error)
	Events(context.Context, *EventsRequest) (*EventsResponse, error)
	Ping(context.Context, *Empty) (*PingResponse, error)
}

func ledger(srv any) LedgerServer { return srv.(LedgerServer) }

var LedgerServiceDesc = grpc.ServiceDesc{
	ServiceName: LedgerService,
	HandlerType: (*LedgerServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(LedgerService, "Deposit", func(srv any, ctx context.Context, in *BatchRequest) (*DepositResponse, error) {
			return ledger(srv).Deposit(ctx, in)
		}),
		unary(LedgerService, "Withdraw", func(srv any, ctx context.Context, in *BatchRequest) (*AmountResponse, error) {
			return ledger(srv).Withdraw(ctx, in)
		}),
		unary(LedgerService, "Harvest", func(srv any, ctx context.Context, in *BatchRequest) (*AmountResponse, error) {
			return ledger(srv).Harvest(ctx, in)
		}),
		unary(LedgerService, "Accrual", func(srv any, ctx context.Context, in *AccrualRequest) (*AmountResponse, error) {
			return ledger(srv).Accrual(ctx, in)
		}),
		unary(LedgerService, "Holdings", func(srv any, ctx context.Context, in *HolderRequest) (*HoldingsResponse, error) {
			return ledger(srv).Holdings(ctx, in)
		}),
		unary(LedgerService, "PendingRewards", func(srv any, ctx context.Context, in *HolderRequest) (*AmountResponse, error) {
			return ledger(srv).PendingRewards(ctx, in)
		}),
		unary(LedgerService, "Stats", func(srv any, ctx context.Context, in *Empty) (*StatsResponse, error) {
			return ledger(srv).Stats(ctx, in)
		}),
		unary(LedgerService, "SetRewardRate", func(srv any, ctx context.Context, in *SetRewardRateRequest) (*SetRewardRateResponse, error) {
			return ledger(srv).SetRewardRate(ctx, in)
		}),
		unary(LedgerService, "EmergencyDrain", func(srv any, ctx context.Context, in *Empty) (*AmountResponse, error) {
			return ledger(srv).EmergencyDrain(ctx, in)
		}),
		unary(LedgerService, "Snapshot", func(srv any, ctx context.Context, in *Empty) (*SnapshotResponse, error) {
			return ledger(srv).Snapshot(ctx, in)
		}),
		unary(LedgerService, "Events", func(srv any, ctx context.Context, in *EventsRequest) (*EventsResponse, error) {
			return ledger(srv).Events(ctx, in)
		}),
		unary(LedgerService, "Ping", func(srv any, ctx context.Context, in *Empty) (*PingResponse, error) {
			return ledger(srv).Ping(ctx, in)
		}),
	},
	Metadata: "stakeledger/v1/ledger.proto",
}

func RegisterLedgerServer(s grpc.ServiceRegistrar, srv LedgerServer) {
	s.RegisterService(&LedgerServiceDesc, srv)
}

// LedgerClient is the client side of LedgerServer.
type LedgerClient struct {
	cc grpc.ClientConnInterface
}

func NewLedgerClient(cc grpc.ClientConnInterface) *LedgerClient {
	return &LedgerClient{cc: cc}
}

func (c *LedgerClient) Deposit(ctx context.Context, in *BatchRequest, opts ...grpc.CallOption) (*DepositResponse, error) {
	return invoke[DepositResponse](ctx, c.cc, LedgerDepositMethod, in, opts...)
}

func (c *LedgerClient) Withdraw(ctx context.Context, in *BatchRequest, opts ...grpc.CallOption) (*AmountResponse, error) {
	return invoke[AmountResponse](ctx, c.cc, LedgerWithdrawMethod, in, opts...)
}

func (c *LedgerClient) Harvest(ctx context.Context, in *BatchRequest, opts ...grpc.CallOption) (*AmountResponse, error) {
	return invoke[AmountResponse](ctx, c.cc, LedgerHarvestMethod, in, opts...)
}

func (c *LedgerClient) Accrual(ctx context.Context, in *AccrualRequest, opts ...grpc.CallOption) (*AmountResponse, error) {
	return invoke[AmountResponse](ctx, c.cc, LedgerAccrualMethod, in, opts...)
}

func (c *LedgerClient) Holdings(ctx context.Context, in *HolderRequest, opts ...grpc.CallOption) (*HoldingsResponse, error) {
	return invoke[HoldingsResponse](ctx, c.cc, LedgerHoldingsMethod, in, opts...)
}

func (c *LedgerClient) PendingRewards(ctx context.Context, in *HolderRequest, opts ...grpc.CallOption) (*AmountResponse, error) {
	return invoke[AmountResponse](ctx, c.cc, LedgerPendingRewardsMethod, in, opts...)
}

func (c *LedgerClient) Stats(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*StatsResponse, error) {
	return invoke[StatsResponse](ctx, c.cc, LedgerStatsMethod, in, opts...)
}

func (c *LedgerClient) SetRewardRate(ctx context.Context, in *SetRewardRateRequest, opts ...grpc.CallOption) (*SetRewardRateResponse, error) {
	return invoke[SetRewardRateResponse](ctx, c.cc, LedgerSetRewardRateMethod, in, opts...)
}

func (c *LedgerClient) EmergencyDrain(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*AmountResponse, error) {
	return invoke[AmountResponse](ctx, c.cc, LedgerEmergencyDrainMethod, in, opts...)
}

func (c *LedgerClient) Snapshot(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*SnapshotResponse, error) {
	return invoke[SnapshotResponse](ctx, c.cc, LedgerSnapshotMethod, in, opts...)
}

func (c *LedgerClient) Events(ctx context.Context, in *EventsRequest, opts ...grpc.CallOption) (*EventsResponse, error) {
	return invoke[EventsResponse](ctx, c.cc, LedgerEventsMethod, in, opts...)
}

func (c *LedgerClient) Ping(ctx context.Context, in *Empty, opts ...grpc.CallOption) (*PingResponse, error) {
	return invoke[PingResponse](ctx, c.cc, LedgerPingMethod, in, opts...)
}
