// Command forwarder tails an alerts file and relays each line to the
// soclite ingest endpoint. It carries no parsing logic of its own.
package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"soclite/internal/logging"
)

func main() {
	logger := logging.New()

	path := getenv("SOCLITE_ALERTS_FILE", "/var/ossec/logs/alerts/alerts.json")
	target := getenv("SOCLITE_INGEST_URL", "http://localhost:5000/api/logs")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	client := &http.Client{Timeout: 10 * time.Second}
	post := func(line []byte) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(line))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)
		logger.Info("forwarded line", "status", resp.StatusCode)
		return nil
	}

	logger.Info("forwarder starting", "path", path, "target", target)
	if err := tail(ctx, path, post, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("tailer exited", "err", err)
		os.Exit(1)
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

type logSink interface {
	Warn(msg string, args ...any)
}

// tail follows the file from its current end, polling on EOF and reopening
// after rotation or truncation.
func tail(ctx context.Context, path string, onLine func([]byte) error, logger logSink) error {
	for {
		if err := tailOnce(ctx, path, onLine, logger); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			logger.Warn("tailer error, will reopen", "path", path, "err", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
}

func tailOnce(ctx context.Context, path string, onLine func([]byte) error, logger logSink) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	offset, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return err
	}
	reader := bufio.NewReaderSize(f, 256*1024)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				if st, statErr := f.Stat(); statErr == nil && st.Size() < offset {
					return errors.New("file truncated (rotation?)")
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-time.After(500 * time.Millisecond):
				}
				continue
			}
			return err
		}

		offset += int64(len(line))
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		if err := onLine(line); err != nil {
			// A failed send should not kill the tailer.
			logger.Warn("forward failed", "err", err)
		}
	}
}
