package store

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"physioload/internal/infrastructure"
	"physioload/pkg/contracts/domain"
)

// DefaultChunkSize bounds per-insert payload size and memory footprint. It is
// not a correctness constraint.
const DefaultChunkSize = 50000

// UploaderConfig holds configuration options for the Uploader.
type UploaderConfig struct {
	ChunkSize int     // Records per store write
	RateLimit float64 // Chunk writes per second; zero means unlimited
	Burst     int     // Limiter burst, only meaningful with RateLimit > 0
}

// DefaultUploaderConfig returns a default configuration for typical use cases.
func DefaultUploaderConfig() UploaderConfig {
	return UploaderConfig{
		ChunkSize: DefaultChunkSize,
		Burst:     1,
	}
}

// Uploader partitions a subject-session's record set into ordered chunks and
// writes them to the analytical store one at a time, waiting for each write
// to complete before issuing the next. A failed chunk aborts the upload;
// chunks already written stay in the store.
type Uploader struct {
	writer    Writer
	chunkSize int
	limiter   *rate.Limiter
	logger    *slog.Logger
	metrics   *infrastructure.Metrics
}

// NewUploader creates an uploader over the given store writer. A nil metrics
// handle disables instrumentation.
func NewUploader(writer Writer, cfg UploaderConfig, logger *slog.Logger, metrics *infrastructure.Metrics) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Uploader{
		writer:    writer,
		chunkSize: cfg.ChunkSize,
		limiter:   limiter,
		logger:    logger,
		metrics:   metrics,
	}
}

// Upload writes the records in order, chunk by chunk. The first failed chunk
// write aborts the upload and propagates; there is no compensating rollback
// for chunks already written.
func (u *Uploader) Upload(ctx context.Context, records []domain.Measurement) error {
	if len(records) == 0 {
		return nil
	}

	numChunks := (len(records) + u.chunkSize - 1) / u.chunkSize

	for i := 0; i < numChunks; i++ {
		start := i * u.chunkSize
		end := start + u.chunkSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		if u.limiter != nil {
			if err := u.limiter.Wait(ctx); err != nil {
				return err
			}
		}

		writeStart := time.Now()
		if err := u.writer.InsertMeasurements(ctx, chunk); err != nil {
			u.logger.ErrorContext(ctx, "chunk write failed",
				slog.Int("chunk", i+1),
				slog.Int("total_chunks", numChunks),
				slog.String("error", err.Error()))
			return err
		}

		if u.metrics != nil {
			u.metrics.ChunksUploaded.Add(ctx, 1)
			u.metrics.UploadDuration.Record(ctx, time.Since(writeStart).Seconds())
		}

		u.logger.InfoContext(ctx, "uploaded chunk",
			slog.Int("chunk", i+1),
			slog.Int("total_chunks", numChunks),
			slog.Int("rows", len(chunk)))
	}

	return nil
}
