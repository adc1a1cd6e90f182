package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const InventoryServiceName = "orderinventory.v1.InventoryService"

// InventoryServiceServer is the gRPC surface. Order operations take the order
// ID as a StringValue; the rest take and return Structs.
type InventoryServiceServer interface {
	Reconcile(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Hold(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Release(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	Update(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	SubmitLifecycle(context.Context, *structpb.Struct) (*structpb.Struct, error)
	TransitionShipments(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

var InventoryServiceDesc = grpc.ServiceDesc{
	ServiceName: InventoryServiceName,
	HandlerType: (*InventoryServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		orderMethod("Reconcile", InventoryServiceServer.Reconcile),
		orderMethod("Hold", InventoryServiceServer.Hold),
		orderMethod("Release", InventoryServiceServer.Release),
		orderMethod("Update", InventoryServiceServer.Update),
		structMethod("SubmitLifecycle", InventoryServiceServer.SubmitLifecycle),
		structMethod("TransitionShipments", InventoryServiceServer.TransitionShipments),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "orderinventory/v1/inventory.proto",
}

func RegisterInventoryServiceServer(s grpc.ServiceRegistrar, srv InventoryServiceServer) {
	s.RegisterService(&InventoryServiceDesc, srv)
}

func orderMethod(name string, call func(InventoryServiceServer, context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(wrapperspb.StringValue)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(InventoryServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + InventoryServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(InventoryServiceServer), ctx, req.(*wrapperspb.StringValue))
			})
		},
	}
}

func structMethod(name string, call func(InventoryServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(InventoryServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + InventoryServiceName + "/" + name}
			return interceptor(ctx, in, info, func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(InventoryServiceServer), ctx, req.(*structpb.Struct))
			})
		},
	}
}
