package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/yourusername/ytdt/internal/domain"
	"go.uber.org/zap"
)

const defaultCopyBufferSize = 32 * 1024

// StreamDownloader copies a playable source into a temp file
type StreamDownloader struct {
	bufferSize int
	logger     *zap.Logger
	now        func() time.Time
}

// NewStreamDownloader creates a new stream downloader
func NewStreamDownloader(bufferSize int, logger *zap.Logger) *StreamDownloader {
	if bufferSize <= 0 {
		bufferSize = defaultCopyBufferSize
	}
	return &StreamDownloader{
		bufferSize: bufferSize,
		logger:     logger,
		now:        time.Now,
	}
}

// Download streams source to destPath, publishing a sample after every
// chunk. On any failure, including cancellation, destPath is removed.
func (d *StreamDownloader) Download(ctx context.Context, source domain.PlayableSource, destPath string, sink domain.ProgressSink) (written int64, err error) {
	if sink == nil {
		sink = domain.DiscardProgress{}
	}

	stream, total, err := source.Open(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return 0, fmt.Errorf("%w: %w", domain.ErrStream, ctx.Err())
		}
		return 0, fmt.Errorf("%w: open stream %s: %v", domain.ErrNetwork, source, err)
	}
	defer stream.Close()

	file, err := os.Create(destPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrIO, err)
	}
	defer func() {
		if err != nil {
			file.Close()
			if rmErr := os.Remove(destPath); rmErr != nil && !os.IsNotExist(rmErr) {
				d.logger.Warn("Failed to remove temp file",
					zap.String("path", destPath),
					zap.Error(rmErr))
			}
		}
	}()

	d.logger.Debug("Download started",
		zap.String("source", source.String()),
		zap.String("path", destPath),
		zap.Int64("total_bytes", total))

	var started time.Time
	buf := make([]byte, d.bufferSize)
	for {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return written, fmt.Errorf("%w: %w", domain.ErrStream, ctxErr)
		}

		n, rerr := stream.Read(buf)
		if n > 0 {
			if started.IsZero() {
				started = d.now()
			}
			if _, werr := file.Write(buf[:n]); werr != nil {
				return written, fmt.Errorf("%w: write %s: %v", domain.ErrIO, destPath, werr)
			}
			written += int64(n)
			sink.Publish(domain.Progress{
				BytesDownloaded: written,
				BytesTotal:      total,
				Elapsed:         d.now().Sub(started),
			})
		}
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			if ctx.Err() != nil {
				return written, fmt.Errorf("%w: %w", domain.ErrStream, ctx.Err())
			}
			return written, fmt.Errorf("%w: read after %s: %v", domain.ErrStream, humanize.Bytes(uint64(written)), rerr)
		}
	}

	if err = file.Sync(); err != nil {
		return written, fmt.Errorf("%w: sync %s: %v", domain.ErrIO, destPath, err)
	}
	if err = file.Close(); err != nil {
		return written, fmt.Errorf("%w: close %s: %v", domain.ErrIO, destPath, err)
	}

	var elapsed time.Duration
	if !started.IsZero() {
		elapsed = d.now().Sub(started)
	}
	sink.Publish(domain.Progress{
		BytesDownloaded: written,
		BytesTotal:      total,
		Elapsed:         elapsed,
		Done:            true,
	})

	d.logger.Info("Download finished",
		zap.String("path", destPath),
		zap.String("size", humanize.Bytes(uint64(written))),
		zap.Duration("elapsed", elapsed))
	return written, nil
}
