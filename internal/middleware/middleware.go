package middleware

import (
	"time"

	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/todo/pkg/httpcontext"
	"github.com/fastygo/todo/pkg/metrics"
)

type Middleware func(fasthttp.RequestHandler) fasthttp.RequestHandler

// Chain wraps next so the first middleware runs outermost.
func Chain(next fasthttp.RequestHandler, mws ...Middleware) fasthttp.RequestHandler {
	for i := len(mws) - 1; i >= 0; i-- {
		next = mws[i](next)
	}
	return next
}

// RequestID makes sure every response carries X-Request-ID, including ones no handler touched.
func RequestID() Middleware {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			httpcontext.RequestID(ctx)
			next(ctx)
		}
	}
}

func AccessLog(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			start := time.Now()
			next(ctx)

			status := ctx.Response.StatusCode()
			fields := []zap.Field{
				zap.String("request_id", httpcontext.RequestID(ctx)),
				zap.ByteString("method", ctx.Method()),
				zap.ByteString("path", ctx.Path()),
				zap.Int("status", status),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", ctx.RemoteIP().String()),
			}
			if status >= fasthttp.StatusInternalServerError {
				logger.Warn("http request", fields...)
				return
			}
			logger.Info("http request", fields...)
		}
	}
}

// Metrics records request counts and latency labelled by route pattern.
// The router must have SaveMatchedRoutePath enabled.
func Metrics(m *metrics.Metrics) Middleware {
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		if m == nil {
			return next
		}
		return func(ctx *fasthttp.RequestCtx) {
			start := time.Now()
			next(ctx)
			m.RecordHTTPRequest(string(ctx.Method()), routeLabel(ctx), ctx.Response.StatusCode(), time.Since(start))
		}
	}
}

// Recover turns handler panics into 500 responses.
func Recover(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("handler panic",
						zap.Any("panic", rec),
						zap.ByteString("path", ctx.Path()),
						zap.Stack("stack"),
					)
					ctx.ResetBody()
					ctx.Response.Header.SetContentType("application/json")
					ctx.SetStatusCode(fasthttp.StatusInternalServerError)
					ctx.SetBodyString(`{"status":"error","code":"INTERNAL","error":"Internal Server Error"}`)
				}
			}()
			next(ctx)
		}
	}
}

func routeLabel(ctx *fasthttp.RequestCtx) string {
	if path, ok := ctx.UserValue(router.MatchedRoutePathParam).(string); ok && path != "" {
		return path
	}
	return "unmatched"
}
