package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
)

const chunkSize = 8192

// Repeater repeats failed function
type Repeater interface {
	Do(ctx context.Context, fun func() error, errors ...error) (err error)
}

// OpenSource opens a log source, "-" for stdin or a path like /dev/kmsg or a named pipe.
// The source is closed when ctx is done, which unblocks a pending read.
func OpenSource(ctx context.Context, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	fh, err := os.Open(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, fmt.Errorf("can't open source %s: %w", path, err)
	}
	go func() {
		<-ctx.Done()
		_ = fh.Close()
	}()
	return fh, nil
}

// Pump copies chunks from src to dst until src ends or ctx is done. Every successful read is
// delivered as one chunk, so a record-per-read source like /dev/kmsg keeps record boundaries.
// EPIPE (records overwritten before they were read) is reported and skipped.
func Pump(ctx context.Context, src io.Reader, dst io.Writer) error {
	buf := make([]byte, chunkSize)
	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := src.Read(buf)
		if n > 0 {
			_, _ = dst.Write(buf[:n])
		}

		switch {
		case err == nil:
			continue
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, syscall.EPIPE):
			log.Printf("[WARN] log source overrun, some records lost")
			continue
		case ctx.Err() != nil && errors.Is(err, os.ErrClosed):
			return nil
		default:
			return fmt.Errorf("can't read log source: %w", err)
		}
	}
}

// Command follows a shell command, sending its combined stdout and stderr to Out.
// A failed command is restarted by Repeater, a clean exit ends Run.
type Command struct {
	Line     string
	Out      io.Writer
	Repeater Repeater
}

// Run blocks till the command is done or ctx canceled
func (c *Command) Run(ctx context.Context) error {
	err := c.Repeater.Do(ctx, func() error {
		log.Printf("[INFO] following %q", c.Line)
		cmd := exec.CommandContext(ctx, "sh", "-c", c.Line) //nolint:gosec // command comes from the operator
		cmd.Stdout = c.Out
		cmd.Stderr = c.Out
		cmd.WaitDelay = time.Second // children holding the output pipe don't block shutdown
		if err := cmd.Run(); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Printf("[WARN] command %q failed, %v", c.Line, err)
			return fmt.Errorf("command %q failed: %w", c.Line, err)
		}
		log.Printf("[INFO] command %q completed", c.Line)
		return nil
	})
	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
