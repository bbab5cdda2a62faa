package http

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/wtlin1228/codecrafters-http-server-go/http"

var (
	tracer = otel.Tracer(instrumentationName)
	meter  = otel.Meter(instrumentationName)

	connectionCount metric.Int64Counter
	requestCount    metric.Int64Counter
	taskCount       metric.Int64Counter
	queueDepth      metric.Int64UpDownCounter
)

func init() {
	var err error
	connectionCount, err = meter.Int64Counter("http.server.connections",
		metric.WithDescription("Connections accepted by the listener"),
		metric.WithUnit("{connection}"))
	if err != nil {
		panic(err)
	}

	requestCount, err = meter.Int64Counter("http.server.requests",
		metric.WithDescription("Requests dispatched by route and status"),
		metric.WithUnit("{request}"))
	if err != nil {
		panic(err)
	}

	taskCount, err = meter.Int64Counter("http.worker.tasks",
		metric.WithDescription("Tasks run by the worker pool by outcome"),
		metric.WithUnit("{task}"))
	if err != nil {
		panic(err)
	}

	queueDepth, err = meter.Int64UpDownCounter("http.worker.queue.depth",
		metric.WithDescription("Tasks waiting in the worker pool queue"),
		metric.WithUnit("{task}"))
	if err != nil {
		panic(err)
	}
}
