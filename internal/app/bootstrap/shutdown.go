// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops the scheduler and the gateway, then closes the backends.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if rt := deps.App; rt != nil {
		if rt.runner != nil {
			rt.runner.Stop()
		}
		if rt.unregister != nil {
			rt.unregister()
		}
		if rt.session != nil {
			logger.Info("closing discord gateway")
			if err := rt.session.Close(); err != nil {
				logger.Warn("discord close failed", zap.Error(err))
			}
			rt.connected.Store(false)
		}
		if rt.limiter != nil {
			rt.limiter.Stop()
		}
		if rt.authLimiter != nil {
			rt.authLimiter.Stop()
		}
	}

	if deps.Redis != nil {
		if err := deps.Redis.Close(); err != nil {
			logger.Warn("redis close failed", zap.Error(err))
		}
	}

	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
