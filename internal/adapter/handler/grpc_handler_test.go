package handler

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func dialBufconn(t *testing.T, f *fixture) *grpc.ClientConn {
	t.Helper()
	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	RegisterInventoryServiceServer(srv, NewGRPCHandler(f.orders, f.shipments))
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func method(name string) string {
	return "/" + InventoryServiceName + "/" + name
}

func TestGRPC_ReconcileAndHold(t *testing.T) {
	conn := dialBufconn(t, newFixture())
	ctx := context.Background()

	out := new(structpb.Struct)
	require.NoError(t, conn.Invoke(ctx, method("Reconcile"), wrapperspb.String("order-1"), out))
	assert.True(t, out.Fields["success"].GetBoolValue())
	assert.Len(t, out.Fields["units"].GetListValue().GetValues(), 3)

	out = new(structpb.Struct)
	require.NoError(t, conn.Invoke(ctx, method("Hold"), wrapperspb.String("order-1"), out))
	assert.True(t, out.Fields["success"].GetBoolValue())
	assert.Equal(t, "hold applied", out.Fields["message"].GetStringValue())
}

func TestGRPC_OrderNotFound(t *testing.T) {
	conn := dialBufconn(t, newFixture())

	out := new(structpb.Struct)
	require.NoError(t, conn.Invoke(context.Background(), method("Release"), wrapperspb.String("order-9"), out))
	assert.False(t, out.Fields["success"].GetBoolValue())
	assert.Equal(t, "order not found", out.Fields["message"].GetStringValue())
}

func TestGRPC_SubmitLifecycle(t *testing.T) {
	f := newFixture()
	conn := dialBufconn(t, f)
	ctx := context.Background()

	in, err := structpb.NewStruct(map[string]interface{}{
		"request_id": "req-1",
		"order_id":   "order-1",
		"event":      "update",
	})
	require.NoError(t, err)

	out := new(structpb.Struct)
	require.NoError(t, conn.Invoke(ctx, method("SubmitLifecycle"), in, out))
	assert.True(t, out.Fields["success"].GetBoolValue())
	assert.Equal(t, "order-1", (<-f.orders.GetLifecycleQueue()).OrderID)

	out = new(structpb.Struct)
	require.NoError(t, conn.Invoke(ctx, method("SubmitLifecycle"), in, out))
	assert.False(t, out.Fields["success"].GetBoolValue())
	assert.Equal(t, "duplicate request", out.Fields["message"].GetStringValue())
}

func TestGRPC_TransitionShipments(t *testing.T) {
	f := newFixture()
	conn := dialBufconn(t, f)

	in, err := structpb.NewStruct(map[string]interface{}{
		"order_id": "order-1",
		"state_to": "shipped",
	})
	require.NoError(t, err)

	out := new(structpb.Struct)
	require.NoError(t, conn.Invoke(context.Background(), method("TransitionShipments"), in, out))
	assert.True(t, out.Fields["success"].GetBoolValue())
	shipments := out.Fields["shipments"].GetListValue().GetValues()
	require.Len(t, shipments, 1)
	assert.Equal(t, "shipped", shipments[0].GetStructValue().Fields["state"].GetStringValue())
	assert.Len(t, f.publisher.events, 1)
}
