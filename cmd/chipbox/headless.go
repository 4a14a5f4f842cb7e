package main

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cbegin/chipbox/internal/input"
	"github.com/cbegin/chipbox/internal/session"
)

func runHeadless(ctl *session.Controller, queue *input.Queue, logger *log.Logger) int {
	if ctl.Failed() != nil {
		return 1
	}
	term := input.NewTerminal(queue, int(os.Stdin.Fd()))
	if err := term.Start(); err != nil {
		logger.Printf("[INPUT] keyboard unavailable, stop with Ctrl-C: %v", err)
	} else {
		defer term.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := ctl.Run(ctx, queue); err != nil {
		return 1
	}
	return 0
}

// crlfWriter keeps log lines aligned while the terminal is in raw mode.
type crlfWriter struct {
	w io.Writer
}

func (c crlfWriter) Write(p []byte) (int, error) {
	if _, err := c.w.Write(bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))); err != nil {
		return 0, err
	}
	return len(p), nil
}
