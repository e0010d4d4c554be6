package rpc

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/protobuf/types/known/wrapperspb"

	apperrors "github.com/GriffinCanCode/asciicam/internal/errors"
	"github.com/GriffinCanCode/asciicam/internal/params"
	"github.com/GriffinCanCode/asciicam/internal/resilience"
	"github.com/GriffinCanCode/asciicam/internal/trace"
)

// Client calls a remote render service with retries behind a breaker.
type Client struct {
	conn    *grpc.ClientConn
	breaker *resilience.Breaker
	retry   resilience.RetryConfig
	timeout time.Duration
}

// Dial creates a client for addr. Extra options are appended to the
// defaults.
func Dial(addr string, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(trace.UnaryClientInterceptor()),
		grpc.WithKeepaliveParams(keepalive.ClientParameters{
			Time:    DefaultKeepaliveTime,
			Timeout: DefaultKeepaliveTimeout,
		}),
		grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(MaxMessageBytes), grpc.MaxCallSendMsgSize(MaxMessageBytes)),
	}, opts...)

	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeUnavailable, "dial render service").
			WithMetadata("addr", addr)
	}
	return &Client{
		conn:    conn,
		breaker: resilience.New("render-rpc", resilience.RPCConfig()),
		retry:   resilience.DefaultRetryConfig(),
		timeout: DefaultCallTimeout,
	}, nil
}

// Close closes the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Render sends an encoded image and parameter overrides and returns the
// rendered text.
func (c *Client) Render(ctx context.Context, image []byte, pt params.Patch) (string, error) {
	req, err := NewRequest(image, pt)
	if err != nil {
		return "", err
	}
	ctx, _ = trace.EnsureContext(ctx)

	var text string
	err = resilience.Retry(ctx, c.retry, func() error {
		return c.breaker.Execute(func() error {
			callCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			out := new(wrapperspb.StringValue)
			if err := c.conn.Invoke(callCtx, RenderMethod, req, out); err != nil {
				return apperrors.FromGRPCError(err)
			}
			text = out.GetValue()
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, resilience.ErrOpen) {
			trace.Logger(ctx).Warn("render service circuit open")
		}
		return "", err
	}
	return text, nil
}
