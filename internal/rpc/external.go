package rpc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	CustodyService  = "stakeledger.v1.Custody"
	TreasuryService = "stakeledger.v1.Treasury"
)

const (
	CustodyOwnerOfMethod   = "/" + CustodyService + "/OwnerOf"
	CustodyTransferMethod  = "/" + CustodyService + "/Transfer"
	TreasuryTransferMethod = "/" + TreasuryService + "/Transfer"
	TreasuryBalanceMethod  = "/" + TreasuryService + "/BalanceOf"
)

type OwnerOfRequest struct {
	ItemID string `json:"item_id"`
}

type OwnerOfResponse struct {
	Owner string `json:"owner"`
}

type TransferItemRequest struct {
	ItemID string `json:"item_id"`
	From   string `json:"from"`
	To     string `json:"to"`
}

type TransferRequest struct {
	To     string `json:"to"`
	Amount string `json:"amount"`
}

type BalanceRequest struct {
	Account string `json:"account"`
}

type BalanceResponse struct {
	Amount string `json:"amount"`
}

// CustodyServer is the remote asset registry.
type CustodyServer interface {
	OwnerOf(context.Context, *OwnerOfRequest) (*OwnerOfResponse, error)
	Transfer(context.Context, *TransferItemRequest) (*Empty, error)
}

// TreasuryServer is the remote value-transfer service.
type TreasuryServer interface {
	Transfer(context.Context, *TransferRequest) (*Empty, error)
	BalanceOf(context.Context, *BalanceRequest) (*BalanceResponse, error)
}

var CustodyServiceDesc = grpc.ServiceDesc{
	ServiceName: CustodyService,
	HandlerType: (*CustodyServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(CustodyService, "OwnerOf", func(srv any, ctx context.Context, in *OwnerOfRequest) (*OwnerOfResponse, error) {
			return srv.(CustodyServer).OwnerOf(ctx, in)
		}),
		unary(CustodyService, "Transfer", func(srv any, ctx context.Context, in *TransferItemRequest) (*Empty, error) {
			return srv.(CustodyServer).Transfer(ctx, in)
		}),
	},
	Metadata: "stakeledger/v1/external.proto",
}

var TreasuryServiceDesc = grpc.ServiceDesc{
	ServiceName: TreasuryService,
	HandlerType: (*TreasuryServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(TreasuryService, "Transfer", func(srv any, ctx context.Context, in *TransferRequest) (*Empty, error) {
			return srv.(TreasuryServer).Transfer(ctx, in)
		}),
		unary(TreasuryService, "BalanceOf", func(srv any, ctx context.Context, in *BalanceRequest) (*BalanceResponse, error) {
			return srv.(TreasuryServer).BalanceOf(ctx, in)
		}),
	},
	Metadata: "stakeledger/v1/external.proto",
}

func RegisterCustodyServer(s grpc.ServiceRegistrar, srv CustodyServer) {
	s.RegisterService(&CustodyServiceDesc, srv)
}

func RegisterTreasuryServer(s grpc.ServiceRegistrar, srv TreasuryServer) {
	s.RegisterService(&TreasuryServiceDesc, srv)
}

type CustodyClient struct {
	cc grpc.ClientConnInterface
}

func NewCustodyClient(cc grpc.ClientConnInterface) *CustodyClient {
	return &CustodyClient{cc: cc}
}

func (c *CustodyClient) OwnerOf(ctx context.Context, in *OwnerOfRequest, opts ...grpc.CallOption) (*OwnerOfResponse, error) {
	return invoke[OwnerOfResponse](ctx, c.cc, CustodyOwnerOfMethod, in, opts...)
}

func (c *CustodyClient) Transfer(ctx context.Context, in *TransferItemRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, CustodyTransferMethod, in, opts...)
}

type TreasuryClient struct {
	cc grpc.ClientConnInterface
}

func NewTreasuryClient(cc grpc.ClientConnInterface) *TreasuryClient {
	return &TreasuryClient{cc: cc}
}

func (c *TreasuryClient) Transfer(ctx context.Context, in *TransferRequest, opts ...grpc.CallOption) (*Empty, error) {
	return invoke[Empty](ctx, c.cc, TreasuryTransferMethod, in, opts...)
}

func (c *TreasuryClient) BalanceOf(ctx context.Context, in *BalanceRequest, opts ...grpc.CallOption) (*BalanceResponse, error) {
	return invoke[BalanceResponse](ctx, c.cc, TreasuryBalanceMethod, in, opts...)
}
