package logger

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type contextKey string

const loggerKey contextKey = "logger"

// LocalsKey is where the request-scoped logger lives in fiber locals
const LocalsKey = "logger"

var log = zap.NewNop()

// Init builds the global logger. Production gets JSON, everything else the console encoder.
func Init(level, environment, serviceName string) (*zap.Logger, error) {
	var lvl zapcore.Level
	switch level {
	case "debug":
		lvl = zapcore.DebugLevel
	case "warn":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	default:
		lvl = zapcore.InfoLevel
	}

	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "timestamp"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	l, err := cfg.Build(zap.Fields(
		zap.String("service", serviceName),
		zap.String("environment", environment),
	))
	if err != nil {
		return nil, err
	}

	log = l
	zap.ReplaceGlobals(l)
	return l, nil
}

// Get returns the global logger (a no-op logger until Init is called)
func Get() *zap.Logger {
	return log
}

// FromContext retrieves the request logger, falling back to the global one
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey).(*zap.Logger); ok {
		return l
	}
	return log
}

func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromFiber retrieves the logger stored by Middleware
func FromFiber(c *fiber.Ctx) *zap.Logger {
	if l, ok := c.Locals(LocalsKey).(*zap.Logger); ok {
		return l
	}
	return log
}

// Middleware logs every request with its request id, status and latency.
// It expects the request id middleware to have run first.
func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID, _ := c.Locals("request_id").(string)
		reqLogger := log.With(zap.String("request_id", requestID))
		c.Locals(LocalsKey, reqLogger)
		c.SetUserContext(WithContext(c.UserContext(), reqLogger))

		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		reqLogger.Info("HTTP Request",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.IP()),
		)
		return err
	}
}
