package service

import (
	"context"
	"time"

	"alcyxob/ai-reports/internal/logger"
)

const defaultSweepInterval = time.Hour

// RunCredentialSweeper removes expired token revocations every interval
// until ctx is done. It always returns nil so it can run in an errgroup
// without tearing the server down.
func RunCredentialSweeper(ctx context.Context, auth AuthService, interval time.Duration, log *logger.Logger) error {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			n, err := auth.SweepRevoked(ctx)
			if err != nil {
				log.Warn("revoked credential sweep failed", "error", err)
				continue
			}
			if n > 0 {
				log.Debug("revoked credentials swept", "count", n)
			}
		}
	}
}
