package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

/*
 * PricingAPI service descriptor.
 *
 * Messages are google.protobuf.Struct values carrying the JSON shapes of the
 * rule codec, so the descriptor is declared here instead of generated from a
 * .proto file. Method names and the full service name match what a
 * generated stub would register, and any gRPC client can call them with
 * conn.Invoke.
 */

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "pricekeeper.pricing.v1.PricingAPI"

// Full method names.
const (
	MethodEvaluate      = "/" + ServiceName + "/Evaluate"
	MethodListRules     = "/" + ServiceName + "/ListRules"
	MethodGetRule       = "/" + ServiceName + "/GetRule"
	MethodCreateRule    = "/" + ServiceName + "/CreateRule"
	MethodUpdateRule    = "/" + ServiceName + "/UpdateRule"
	MethodSetRuleActive = "/" + ServiceName + "/SetRuleActive"
)

// PricingAPIServer is the server API for the PricingAPI service.
type PricingAPIServer interface {
	Evaluate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRules(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateRule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateRule(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetRuleActive(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(PricingAPIServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PricingAPIServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(PricingAPIServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// PricingAPIServiceDesc describes the PricingAPI service for grpc.Server.
var PricingAPIServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PricingAPIServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Evaluate", Handler: unaryHandler(MethodEvaluate, PricingAPIServer.Evaluate)},
		{MethodName: "ListRules", Handler: unaryHandler(MethodListRules, PricingAPIServer.ListRules)},
		{MethodName: "GetRule", Handler: unaryHandler(MethodGetRule, PricingAPIServer.GetRule)},
		{MethodName: "CreateRule", Handler: unaryHandler(MethodCreateRule, PricingAPIServer.CreateRule)},
		{MethodName: "UpdateRule", Handler: unaryHandler(MethodUpdateRule, PricingAPIServer.UpdateRule)},
		{MethodName: "SetRuleActive", Handler: unaryHandler(MethodSetRuleActive, PricingAPIServer.SetRuleActive)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "pricekeeper/pricing/v1/pricing_api",
}

// RegisterPricingAPIServer registers srv on s.
func RegisterPricingAPIServer(s grpc.ServiceRegistrar, srv PricingAPIServer) {
	s.RegisterService(&PricingAPIServiceDesc, srv)
}

// PricingAPIClient calls the PricingAPI service over a client connection.
type PricingAPIClient struct {
	cc grpc.ClientConnInterface
}

// NewPricingAPIClient wraps cc.
func NewPricingAPIClient(cc grpc.ClientConnInterface) *PricingAPIClient {
	return &PricingAPIClient{cc: cc}
}

func (c *PricingAPIClient) invoke(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *PricingAPIClient) Evaluate(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodEvaluate, in, opts...)
}

func (c *PricingAPIClient) ListRules(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodListRules, in, opts...)
}

func (c *PricingAPIClient) GetRule(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodGetRule, in, opts...)
}

func (c *PricingAPIClient) CreateRule(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodCreateRule, in, opts...)
}

func (c *PricingAPIClient) UpdateRule(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodUpdateRule, in, opts...)
}

func (c *PricingAPIClient) SetRuleActive(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.invoke(ctx, MethodSetRuleActive, in, opts...)
}
