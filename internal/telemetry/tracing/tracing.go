package tracing

import (
	"context"
	"fmt"

	"github.com/honeycombio/honeycomb-opentelemetry-go"
	"github.com/honeycombio/otel-config-go/otelconfig"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var GlobalTracer = otel.Tracer("gymclient")

// HoneycombSetup configures the OpenTelemetry SDK with the honeycomb distro.
// The returned shutdown func is always safe to call.
func HoneycombSetup(enabled bool, serviceName string) (func(), error) {
	if !enabled {
		log.Debugln("honeycomb tracing disabled")
		return func() {}, nil
	}

	bsp := honeycomb.NewBaggageSpanProcessor()
	otelShutdown, err := otelconfig.ConfigureOpenTelemetry(
		otelconfig.WithServiceName(serviceName),
		otelconfig.WithSpanProcessor(bsp),
	)
	if err != nil {
		return nil, fmt.Errorf("configure open telemetry: %w", err)
	}

	log.Debugf("honeycomb tracing enabled for service: %s", serviceName)
	return otelShutdown, nil
}

// StartSpan starts a span named name; finish must be deferred with a pointer
// to the caller's named error so failures are recorded on the span.
func StartSpan(ctx context.Context, name string) (context.Context, func(err *error)) {
	ctx, span := GlobalTracer.Start(ctx, name)
	return ctx, func(err *error) {
		endSpan(span, err)
	}
}

func endSpan(span trace.Span, err *error) {
	if err != nil && *err != nil {
		span.RecordError(*err)
		span.SetStatus(codes.Error, (*err).Error())
	}
	span.End()
}
