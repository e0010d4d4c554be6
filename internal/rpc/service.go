package rpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/GriffinCanCode/asciicam/internal/engine"
	apperrors "github.com/GriffinCanCode/asciicam/internal/errors"
	"github.com/GriffinCanCode/asciicam/internal/params"
	"github.com/GriffinCanCode/asciicam/internal/source"
	"github.com/GriffinCanCode/asciicam/internal/trace"
)

// RendererServer is the server API of asciicam.v1.Renderer.
type RendererServer interface {
	Render(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error)
}

// ServiceDesc describes asciicam.v1.Renderer for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*RendererServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Render", Handler: renderHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "asciicam/v1/renderer.proto",
}

func renderHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RendererServer).Render(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: RenderMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(RendererServer).Render(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// Renderer renders a decoded frame.
type Renderer interface {
	Render(ctx context.Context, frame source.Frame, p params.Params) (engine.Result, error)
}

// Service implements RendererServer. Request parameters are applied over
// the current defaults.
type Service struct {
	renderer Renderer
	defaults func() params.Params
}

// NewService creates the render service.
func NewService(r Renderer, defaults func() params.Params) *Service {
	return &Service{renderer: r, defaults: defaults}
}

// Render decodes the request image, renders it and returns the text.
func (s *Service) Render(ctx context.Context, req *structpb.Struct) (*wrapperspb.StringValue, error) {
	ctx, span := trace.StartSpan(ctx, "rpc_render")
	defer span.Finish()

	frame, p, err := s.decodeRequest(req)
	if err != nil {
		return nil, err
	}
	res, err := s.renderer.Render(ctx, frame, p)
	if err != nil {
		return nil, err
	}
	span.SetAttr("cols", res.Cols)
	span.SetAttr("rows", res.Rows)
	return wrapperspb.String(res.Text), nil
}

func (s *Service) decodeRequest(req *structpb.Struct) (source.Frame, params.Params, error) {
	fields := req.GetFields()
	img := fields[FieldImage].GetStringValue()
	if img == "" {
		return source.Frame{}, params.Params{}, apperrors.New(apperrors.CodeInvalidArgument, "request has no image").
			WithMetadata("field", FieldImage)
	}
	data, err := base64.StdEncoding.DecodeString(img)
	if err != nil {
		return source.Frame{}, params.Params{}, apperrors.Wrap(err, apperrors.CodeInvalidImage, "image is not base64")
	}

	rest := make(map[string]any, len(fields))
	for k, v := range fields {
		if k != FieldImage {
			rest[k] = v.AsInterface()
		}
	}
	raw, err := json.Marshal(rest)
	if err != nil {
		return source.Frame{}, params.Params{}, apperrors.Wrap(err, apperrors.CodeInvalidArgument, "encode parameters")
	}
	pt, err := params.DecodePatch(raw)
	if err != nil {
		return source.Frame{}, params.Params{}, err
	}
	p := pt.Apply(s.defaults())
	if err := params.Validate(p); err != nil {
		return source.Frame{}, params.Params{}, err
	}

	frame, err := source.Decode(bytes.NewReader(data))
	if err != nil {
		return source.Frame{}, params.Params{}, err
	}
	return frame, p, nil
}

// NewServer returns a gRPC server with the render service registered.
func NewServer(svc RendererServer, opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.UnaryInterceptor(trace.UnaryServerInterceptor()),
		grpc.MaxRecvMsgSize(MaxMessageBytes),
	}, opts...)
	s := grpc.NewServer(opts...)
	s.RegisterService(&ServiceDesc, svc)
	return s
}

// NewRequest builds a Render request for an encoded image and patch.
func NewRequest(image []byte, pt params.Patch) (*structpb.Struct, error) {
	raw, err := json.Marshal(pt)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidArgument, "encode parameters")
	}
	m := make(map[string]any)
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidArgument, "encode parameters")
	}
	m[FieldImage] = base64.StdEncoding.EncodeToString(image)
	req, err := structpb.NewStruct(m)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInvalidArgument, "build request")
	}
	return req, nil
}
