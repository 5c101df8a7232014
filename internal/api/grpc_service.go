package api

import (
	"context"
	"encoding/json"
	"time"

	"cleanbook/internal/metrics"
	"cleanbook/internal/rpc"

	"github.com/rs/zerolog"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	ProceduresServiceName = "cleanbook.rpc.v1.Procedures"
	CallFullMethod        = "/" + ProceduresServiceName + "/Call"
)

// ProceduresServer is the single-method service every procedure is reached through.
// Requests are {"procedure": "...", "input": ...}; responses carry the result value.
type ProceduresServer interface {
	Call(ctx context.Context, req *structpb.Struct) (*structpb.Value, error)
}

var proceduresServiceDesc = grpc.ServiceDesc{
	ServiceName: ProceduresServiceName,
	HandlerType: (*ProceduresServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Call",
			Handler:    callHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "cleanbook/rpc/v1/procedures.proto",
}

func RegisterProceduresServer(s grpc.ServiceRegistrar, srv ProceduresServer) {
	s.RegisterService(&proceduresServiceDesc, srv)
}

func callHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ProceduresServer).Call(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: CallFullMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ProceduresServer).Call(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// ProcedureService adapts the router to gRPC.
type ProcedureService struct {
	router *rpc.Router
	log    zerolog.Logger
}

func NewProcedureService(router *rpc.Router, logger *zerolog.Logger) *ProcedureService {
	log := zerolog.Nop()
	if logger != nil {
		log = logger.With().Str("component", "grpc").Logger()
	}
	return &ProcedureService{router: router, log: log}
}

func (s *ProcedureService) Call(ctx context.Context, req *structpb.Struct) (*structpb.Value, error) {
	name := req.GetFields()["procedure"].GetStringValue()
	if name == "" {
		return nil, status.Error(codes.InvalidArgument, "procedure is required")
	}

	var raw json.RawMessage
	if in, ok := req.GetFields()["input"]; ok {
		b, err := protojson.Marshal(in)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, "input is not valid JSON")
		}
		raw = b
	}

	start := time.Now()
	result, err := s.router.Call(ctx, name, raw)
	metrics.ObserveRPC(name, "grpc", metricCode(err), time.Since(start))
	if err != nil {
		return nil, s.statusError(name, rpc.AsError(err))
	}

	b, err := json.Marshal(result)
	if err != nil {
		s.log.Error().Err(err).Str("procedure", name).Msg("encode result")
		return nil, status.Error(codes.Internal, "internal error")
	}
	out := &structpb.Value{}
	if err := protojson.Unmarshal(b, out); err != nil {
		s.log.Error().Err(err).Str("procedure", name).Msg("convert result")
		return nil, status.Error(codes.Internal, "internal error")
	}
	return out, nil
}

func (s *ProcedureService) statusError(name string, e *rpc.Error) error {
	if e.Code == rpc.CodeInternal || e.Code == rpc.CodeStorageError {
		s.log.Error().Err(e).Str("procedure", name).Msg("procedure failed")
	}

	st := status.New(grpcCode(e.Code), e.Message)
	if len(e.Issues) == 0 {
		return st.Err()
	}

	br := &errdetails.BadRequest{}
	for _, issue := range e.Issues {
		br.FieldViolations = append(br.FieldViolations, &errdetails.BadRequest_FieldViolation{
			Field:       issue.Field,
			Description: issue.Message,
		})
	}
	if detailed, err := st.WithDetails(br); err == nil {
		return detailed.Err()
	}
	return st.Err()
}
