package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const (
	serviceName    = "nlpqa.Completion"
	completeMethod = "/" + serviceName + "/Complete"
)

type CompleteRequest struct {
	Model       string   `json:"model"`
	Question    string   `json:"question"`
	Temperature *float64 `json:"temperature,omitempty"`
	MaxTokens   int      `json:"max_tokens"`
}

// CompleteResponse carries either Content or a completion error.
type CompleteResponse struct {
	Content    string `json:"content,omitempty"`
	ErrorKind  string `json:"error_kind,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Detail     string `json:"detail,omitempty"`
}

// CompletionServer is the server-side contract of nlpqa.Completion.
type CompletionServer interface {
	Complete(ctx context.Context, req *CompleteRequest) (*CompleteResponse, error)
}

func completeHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(CompleteRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(CompletionServer).Complete(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: completeMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(CompletionServer).Complete(ctx, req.(*CompleteRequest))
	}
	return interceptor(ctx, in, info, handler)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*CompletionServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Complete",
			Handler:    completeHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "nlpqa/completion",
}

// Register exposes srv on s.
func Register(s grpc.ServiceRegistrar, srv CompletionServer) {
	s.RegisterService(&serviceDesc, srv)
}
