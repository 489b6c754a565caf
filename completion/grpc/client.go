package grpc

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"

	"nlp_qa/completion"
)

// DefaultCallTimeout bounds a call when NewClient is given no timeout.
const DefaultCallTimeout = 35 * time.Second

// Client implements completion.Service against a remote nlpqa.Completion server.
type Client struct {
	conn    *grpc.ClientConn
	timeout time.Duration
}

// NewClient dials address lazily. timeout applies to calls whose context has
// no deadline; zero or negative means DefaultCallTimeout.
func NewClient(address string, timeout time.Duration, opts ...grpc.DialOption) (*Client, error) {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}

	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to completion service: %w", err)
	}

	return &Client{conn: conn, timeout: timeout}, nil
}

func (c *Client) Complete(ctx context.Context, req *completion.CompletionRequest) (string, error) {
	in := &CompleteRequest{
		Model:     req.Model,
		Question:  req.Question,
		MaxTokens: req.MaxTokens,
	}
	if temperature, ok := req.Temperature.Get(); ok {
		in.Temperature = &temperature
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	out := new(CompleteResponse)
	if err := c.conn.Invoke(ctx, completeMethod, in, out, grpc.CallContentSubtype(codecName)); err != nil {
		kind := completion.KindConnection
		if status.Code(err) == codes.DeadlineExceeded {
			kind = completion.KindTimeout
		}
		return "", &completion.Error{Kind: kind, Detail: err.Error(), Err: err}
	}

	if out.ErrorKind != "" {
		return "", &completion.Error{
			Kind:       completion.ErrorKind(out.ErrorKind),
			StatusCode: out.StatusCode,
			Detail:     out.Detail,
		}
	}
	return out.Content, nil
}

func (c *Client) Close() error {
	return c.conn.Close()
}

var _ completion.Service = (*Client)(nil)
