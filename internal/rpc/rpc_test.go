package rpc

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/encoding"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type stubCustody struct {
	owners map[string]string
}

func (s *stubCustody) OwnerOf(_ context.Context, in *OwnerOfRequest) (*OwnerOfResponse, error) {
	owner, ok := s.owners[in.ItemID]
	if !ok {
		return nil, status.Error(codes.NotFound, "unknown item")
	}
	return &OwnerOfResponse{Owner: owner}, nil
}

func (s *stubCustody) Transfer(_ context.Context, in *TransferItemRequest) (*Empty, error) {
	if s.owners[in.ItemID] != in.From {
		return nil, status.Error(codes.FailedPrecondition, "not held")
	}
	s.owners[in.ItemID] = in.To
	return &Empty{}, nil
}

func dial(t *testing.T, register func(*grpc.Server), opts ...grpc.ServerOption) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(opts...)
	register(srv)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) { return lis.DialContext(ctx) }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestCodec_Registered(t *testing.T) {
	c := encoding.GetCodec(CodecName)
	require.NotNil(t, c)

	b, err := c.Marshal(&BatchRequest{Items: []string{"1", "2"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":["1","2"]}`, string(b))

	var out BatchRequest
	require.NoError(t, c.Unmarshal(b, &out))
	assert.Equal(t, []string{"1", "2"}, out.Items)
}

func TestCustodyService_RoundTrip(t *testing.T) {
	stub := &stubCustody{owners: map[string]string{"7": "alice"}}
	conn := dial(t, func(s *grpc.Server) { RegisterCustodyServer(s, stub) })
	c := NewCustodyClient(conn)
	ctx := context.Background()

	got, err := c.OwnerOf(ctx, &OwnerOfRequest{ItemID: "7"})
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Owner)

	_, err = c.Transfer(ctx, &TransferItemRequest{ItemID: "7", From: "alice", To: "vault"})
	require.NoError(t, err)
	assert.Equal(t, "vault", stub.owners["7"])

	_, err = c.OwnerOf(ctx, &OwnerOfRequest{ItemID: "8"})
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestUnary_RunsInterceptor(t *testing.T) {
	var seen string
	intercept := func(ctx context.Context, req any, info *grpc.UnaryServerInfo, h grpc.UnaryHandler) (any, error) {
		seen = info.FullMethod
		if _, ok := req.(*TransferItemRequest); ok {
			return nil, status.Error(codes.PermissionDenied, "blocked")
		}
		return h(ctx, req)
	}
	stub := &stubCustody{owners: map[string]string{"7": "alice"}}
	conn := dial(t, func(s *grpc.Server) { RegisterCustodyServer(s, stub) }, grpc.UnaryInterceptor(intercept))
	c := NewCustodyClient(conn)

	_, err := c.OwnerOf(context.Background(), &OwnerOfRequest{ItemID: "7"})
	require.NoError(t, err)
	assert.Equal(t, CustodyOwnerOfMethod, seen)

	_, err = c.Transfer(context.Background(), &TransferItemRequest{ItemID: "7", From: "alice", To: "bob"})
	assert.Equal(t, codes.PermissionDenied, status.Code(err))
	assert.Equal(t, "alice", stub.owners["7"])
}
