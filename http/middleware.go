package http

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

type Middleware func(next Handler) Handler

// TraceMiddleware opens a span around the dispatch and counts the request by
// matched route and response status.
func TraceMiddleware() Middleware {
	return func(next Handler) Handler {
		return func(ctx *RequestCtx) error {
			spanCtx, span := tracer.Start(ctx.Context(), ctx.Request.Method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("conn.id", ctx.ConnID),
					attribute.String("url.path", ctx.Request.Path),
					attribute.String("http.request.method", ctx.Request.Method),
				))
			defer span.End()

			if ctx.Request.AcceptEncoding != "" {
				span.SetAttributes(
					attribute.String("http.request.header.accept-encoding", ctx.Request.AcceptEncoding),
					attribute.Bool("http.request.accepts_gzip", ctx.Request.AcceptsEncoding(EncodingGzip)),
				)
			}

			ctx.SetContext(spanCtx)
			err := next(ctx)

			route := ctx.Route
			if route == "" {
				route = "unmatched"
			}
			span.SetName(ctx.Request.Method + " " + route)
			span.SetAttributes(attribute.String("http.route", route))

			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				requestCount.Add(spanCtx, 1, metric.WithAttributes(
					attribute.String("http.route", route),
					attribute.String("outcome", "error"),
				))
				return err
			}

			span.SetAttributes(attribute.Int("http.response.status_code", int(ctx.Response.Status)))
			requestCount.Add(spanCtx, 1, metric.WithAttributes(
				attribute.String("http.route", route),
				attribute.Int("http.response.status_code", int(ctx.Response.Status)),
			))
			return nil
		}
	}
}

// RequireDirectoryMiddleware fails the request when no served directory was
// configured for the connection.
func RequireDirectoryMiddleware() Middleware {
	return func(next Handler) Handler {
		return func(ctx *RequestCtx) error {
			if ctx.Directory == "" {
				return ErrDirectoryNotConfigured
			}
			return next(ctx)
		}
	}
}
