// Package archive dumps and restores a store as zstd-compressed JSON lines,
// one entity record per line.
package archive

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"chodewars-server/internal/entity"
	"chodewars-server/internal/store"

	"github.com/klauspost/compress/zstd"
)

const bufferSize = 256 * 1024

// Export writes every record of st to path and returns how many it wrote.
func Export(ctx context.Context, st store.Store, path string, logger *slog.Logger) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n, err := Write(ctx, st, f)
	if err != nil {
		return n, err
	}

	logger.Info("Archive exported", "component", "archive", "path", path, "records", n)
	return n, f.Close()
}

// Write streams every record of st to w.
func Write(ctx context.Context, st store.Store, w io.Writer) (int, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return 0, err
	}

	bw := bufio.NewWriterSize(enc, bufferSize)
	n := 0
	err = st.Scan(ctx, func(e *entity.Entity) error {
		data, err := entity.Encode(e)
		if err != nil {
			return err
		}
		if _, err := bw.Write(data); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		enc.Close()
		return n, fmt.Errorf("write archive: %w", err)
	}

	if err := bw.Flush(); err != nil {
		enc.Close()
		return n, err
	}
	return n, enc.Close()
}

// Import saves every record in the archive at path into st. Malformed lines
// are logged and skipped.
func Import(ctx context.Context, st store.Store, path string, logger *slog.Logger) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	n, err := Read(ctx, st, f, logger)
	if err != nil {
		return n, err
	}

	logger.Info("Archive imported", "component", "archive", "path", path, "records", n)
	return n, nil
}

// Read saves every record read from r into st.
func Read(ctx context.Context, st store.Store, r io.Reader, logger *slog.Logger) (int, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return 0, err
	}
	defer dec.Close()

	logger = logger.With("component", "archive", "operation", "read")
	br := bufio.NewReaderSize(dec, bufferSize)

	n := 0
	for line := 1; ; line++ {
		data, readErr := br.ReadBytes('\n')
		if readErr != nil && readErr != io.EOF {
			return n, fmt.Errorf("read archive line %d: %w", line, readErr)
		}

		if data = bytes.TrimSpace(data); len(data) > 0 {
			e, err := entity.Decode(data)
			if err != nil {
				logger.Warn("Skipping malformed archive line", "line", line, "error", err)
			} else {
				if _, err := st.Save(ctx, e); err != nil {
					return n, err
				}
				n++
			}
		}

		if readErr == io.EOF {
			return n, nil
		}
	}
}
