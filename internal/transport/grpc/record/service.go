package record

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "dirtify.record.v1.RecordService"

// Full method names.
const (
	MethodCreateRecord     = "/" + ServiceName + "/CreateRecord"
	MethodUpdateRecord     = "/" + ServiceName + "/UpdateRecord"
	MethodGetRecord        = "/" + ServiceName + "/GetRecord"
	MethodArchiveRecord    = "/" + ServiceName + "/ArchiveRecord"
	MethodListRecords      = "/" + ServiceName + "/ListRecords"
	MethodListRecordEvents = "/" + ServiceName + "/ListRecordEvents"
)

// RecordServiceServer is the server API for RecordService. Requests and
// replies are protobuf well-known types; the field layout of each Struct is
// documented on the Handler methods.
type RecordServiceServer interface {
	CreateRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateRecord(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetRecord(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
	ArchiveRecord(context.Context, *wrapperspb.StringValue) (*emptypb.Empty, error)
	ListRecords(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListRecordEvents(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// RegisterRecordServiceServer registers srv on s.
func RegisterRecordServiceServer(s grpc.ServiceRegistrar, srv RecordServiceServer) {
	s.RegisterService(&RecordServiceDesc, srv)
}

// RecordServiceDesc describes RecordService for grpc.Server.
var RecordServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RecordServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateRecord", Handler: unaryStruct(MethodCreateRecord, RecordServiceServer.CreateRecord)},
		{MethodName: "UpdateRecord", Handler: unaryStruct(MethodUpdateRecord, RecordServiceServer.UpdateRecord)},
		{MethodName: "GetRecord", Handler: unaryString(MethodGetRecord, RecordServiceServer.GetRecord)},
		{MethodName: "ArchiveRecord", Handler: unaryString(MethodArchiveRecord, RecordServiceServer.ArchiveRecord)},
		{MethodName: "ListRecords", Handler: unaryStruct(MethodListRecords, RecordServiceServer.ListRecords)},
		{MethodName: "ListRecordEvents", Handler: unaryStruct(MethodListRecordEvents, RecordServiceServer.ListRecordEvents)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "dirtify/record/v1/record.proto",
}

// methodHandler matches grpc.MethodDesc.Handler.
type methodHandler = func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error)

func unaryStruct[Out any](fullMethod string, call func(RecordServiceServer, context.Context, *structpb.Struct) (Out, error)) methodHandler {
	return unary(fullMethod, func() *structpb.Struct { return new(structpb.Struct) }, call)
}

func unaryString[Out any](fullMethod string, call func(RecordServiceServer, context.Context, *wrapperspb.StringValue) (Out, error)) methodHandler {
	return unary(fullMethod, func() *wrapperspb.StringValue { return new(wrapperspb.StringValue) }, call)
}

func unary[In, Out any](fullMethod string, newIn func() In, call func(RecordServiceServer, context.Context, In) (Out, error)) methodHandler {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := newIn()
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(RecordServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(RecordServiceServer), ctx, req.(In))
		}
		return interceptor(ctx, in, info, handler)
	}
}

// RecordServiceClient is the client API for RecordService.
type RecordServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewRecordServiceClient creates a client over cc.
func NewRecordServiceClient(cc grpc.ClientConnInterface) *RecordServiceClient {
	return &RecordServiceClient{cc: cc}
}

func (c *RecordServiceClient) CreateRecord(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodCreateRecord, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RecordServiceClient) UpdateRecord(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodUpdateRecord, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RecordServiceClient) GetRecord(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodGetRecord, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RecordServiceClient) ArchiveRecord(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	if err := c.cc.Invoke(ctx, MethodArchiveRecord, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RecordServiceClient) ListRecords(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodListRecords, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RecordServiceClient) ListRecordEvents(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, MethodListRecordEvents, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
