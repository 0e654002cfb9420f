package narration

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

// #region service-desc
type narratorHandler interface {
	generate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var narratorServiceDesc = grpc.ServiceDesc{
	ServiceName: narratorService,
	HandlerType: (*narratorHandler)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Generate", Handler: generateHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "casefiles/narrator/v1/narrator.proto",
}

func generateHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(narratorHandler).generate(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: generateMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(narratorHandler).generate(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// #endregion service-desc

// #region server
type narratorServer struct {
	provider Provider
	log      *zap.Logger
}

// RegisterNarratorServer exposes p as the narrator service on s.
func RegisterNarratorServer(s *grpc.Server, p Provider, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s.RegisterService(&narratorServiceDesc, &narratorServer{
		provider: p,
		log:      logger.Named("narrator"),
	})
}

func (n *narratorServer) generate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	prompt := req.GetFields()["prompt"].GetStringValue()
	if prompt == "" {
		return nil, status.Error(codes.InvalidArgument, "prompt is required")
	}
	text, err := n.provider.Generate(ctx, prompt)
	if err != nil {
		n.log.Warn("generation failed", zap.String("provider", n.provider.Name()), zap.Error(err))
		return nil, status.Errorf(codes.Unavailable, "%s: %v", n.provider.Name(), err)
	}
	n.log.Debug("generated", zap.String("provider", n.provider.Name()), zap.Int("chars", len(text)))
	return structpb.NewStruct(map[string]any{"text": text, "provider": n.provider.Name()})
}

// #endregion server
