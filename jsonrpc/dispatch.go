package jsonrpc

import (
	"context"
	"log/slog"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"
)

func (s *Server) single(ctx context.Context, raw any) *Response {
	req, err := ParseRequest(raw)
	if err != nil {
		return newErrorResponse(nil, err)
	}
	return s.dispatch(ctx, req)
}

// batch runs every item concurrently. Responses keep the order of their
// requests; notifications leave no trace.
func (s *Server) batch(ctx context.Context, raw any) Reply {
	reqs, err := ParseBatch(raw)
	if err != nil {
		return Reply{Responses: []*Response{newErrorResponse(nil, err)}}
	}

	out := make([]*Response, len(reqs))
	var g errgroup.Group
	if s.concurrency > 0 {
		g.SetLimit(s.concurrency)
	}
	for i, req := range reqs {
		g.Go(func() error {
			out[i] = s.dispatch(ctx, req)
			return nil
		})
	}
	_ = g.Wait()

	responses := make([]*Response, 0, len(out))
	for _, resp := range out {
		if resp != nil {
			responses = append(responses, resp)
		}
	}
	return Reply{Responses: responses, Batch: true}
}

// dispatch runs one well-formed request and builds its response, or nil for
// a notification.
func (s *Server) dispatch(ctx context.Context, req *Request) *Response {
	start := time.Now()
	result, rpcErr := s.execute(ctx, req)

	if s.observer != nil {
		code := 0
		if rpcErr != nil {
			code = rpcErr.Code
		}
		s.observer.Observe(req.Method, code, req.IsNotification(), time.Since(start))
	}

	if req.IsNotification() {
		return nil
	}
	if rpcErr != nil {
		return newErrorResponse(req.ID, rpcErr)
	}
	return newResult(req.ID, result)
}

func (s *Server) execute(ctx context.Context, req *Request) (any, *Error) {
	m, ok := s.registry.Lookup(req.Method)
	if !ok || m.Handler == nil {
		return nil, NewMethodNotFoundError(req.Method)
	}

	params := Check(m.Params, req.Params)
	if params.Err != nil {
		s.logger.WarnContext(ctx, "jsonrpc: params schema failed",
			slog.String("method", req.Method), slog.String("error", params.Err.Message))
		return nil, params.Err
	}
	if !params.OK {
		return nil, NewInvalidParamsError("").WithData(IssueData{Issues: params.Issues, Value: req.Params})
	}

	result, err := s.invoke(ctx, req.Method, m.Handler, params.Value)
	if err != nil {
		rpcErr := AsError(err)
		if rpcErr.Code == CodeInternalError {
			s.logger.WarnContext(ctx, "jsonrpc: handler failed",
				slog.String("method", req.Method), slog.String("error", err.Error()))
		}
		return nil, rpcErr
	}

	checked := Check(m.Result, result)
	if checked.Err != nil {
		s.logger.WarnContext(ctx, "jsonrpc: result schema failed",
			slog.String("method", req.Method), slog.String("error", checked.Err.Message))
		return nil, checked.Err
	}
	if !checked.OK {
		s.logger.WarnContext(ctx, "jsonrpc: invalid result",
			slog.String("method", req.Method), slog.Int("issues", len(checked.Issues)))
		return nil, NewInternalError("Invalid result").WithData(IssueData{Issues: checked.Issues, Value: result})
	}
	return checked.Value, nil
}

// invoke calls h inside a failure boundary: a panic becomes an InternalError.
func (s *Server) invoke(ctx context.Context, method string, h Handler, params any) (result any, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "jsonrpc: handler panic",
				slog.String("method", method),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			result, err = nil, Coerce(r)
		}
	}()
	return h(ctx, params)
}
