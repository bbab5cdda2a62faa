package http

import (
	"context"
	"log/slog"
)

// RequestCtx carries one request through the router. It is owned by the
// worker serving the connection and discarded once the response is written.
type RequestCtx struct {
	ctx context.Context

	ConnID    string
	Directory string
	Logger    *slog.Logger

	// Route is the pattern of the matched route, empty when nothing matched.
	Route string
	// Rest is the part of the path after a prefix route's pattern.
	Rest string

	Request  Request
	Response Response
}

func NewRequestCtx(ctx context.Context, connID, directory string, logger *slog.Logger) *RequestCtx {
	if logger == nil {
		logger = slog.Default()
	}

	reqCtx := &RequestCtx{
		ctx:       ctx,
		ConnID:    connID,
		Directory: directory,
		Logger:    logger,
	}
	reqCtx.Response.Reset()
	return reqCtx
}

func (reqCtx *RequestCtx) Context() context.Context {
	if reqCtx.ctx == nil {
		return context.Background()
	}
	return reqCtx.ctx
}

func (reqCtx *RequestCtx) SetContext(ctx context.Context) {
	reqCtx.ctx = ctx
}
