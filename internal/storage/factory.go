package storage

import (
	"context"
	"fmt"
	"log/slog"

	"vulnsphere/internal/config"
	"vulnsphere/internal/metrics"
)

func NewFromConfig(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger, m *metrics.Metrics) (ObjectStorage, error) {
	switch cfg.Adapter {
	case "s3":
		return NewS3(ctx, cfg, logger, m)
	case "filesystem", "":
		return NewFilesystem(cfg.Path, logger, m)
	default:
		return nil, fmt.Errorf("unsupported storage adapter: %s", cfg.Adapter)
	}
}
