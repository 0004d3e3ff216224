package middleware

import (
	"testing"

	"github.com/fasthttp/router"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/fastygo/todo/pkg/httpcontext"
)

func TestTracing(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	var handlerSpan trace.SpanContext
	r := router.New()
	r.SaveMatchedRoutePath = true
	r.GET("/api/v1/tasks/{id}", func(ctx *fasthttp.RequestCtx) {
		stdCtx, cancel := httpcontext.NewAdapter(0).Attach(ctx)
		defer cancel()
		handlerSpan = trace.SpanContextFromContext(stdCtx)
		ctx.SetStatusCode(fasthttp.StatusInternalServerError)
	})
	h := Chain(r.Handler, Tracing(tp))

	ctx := newRequest("GET", "/api/v1/tasks/7")
	ctx.Request.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	h(ctx)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "GET /api/v1/tasks/{id}", span.Name())
	assert.Equal(t, trace.SpanKindServer, span.SpanKind())
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", span.SpanContext().TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", span.Parent().SpanID().String())
	assert.Equal(t, codes.Error, span.Status().Code)
	assert.Contains(t, span.Attributes(), attribute.Int("http.response.status_code", 500))

	assert.Equal(t, span.SpanContext().SpanID(), handlerSpan.SpanID())
}

func TestTracing_StartsNewTrace(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	h := Chain(func(ctx *fasthttp.RequestCtx) {}, Tracing(tp))
	h(newRequest("POST", "/nowhere"))

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "POST unmatched", spans[0].Name())
	assert.False(t, spans[0].Parent().IsValid())
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
}
