//go:build !windows

// Package stderr captures output that C audio libraries (ALSA, minimp3)
// write straight to file descriptor 2, so it cannot tear the terminal UI.
// Captured lines go to the logger.
package stderr

import (
	"bufio"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// Capture redirects fd 2 into logger until the returned restore function is
// called. It must run before the audio device is opened.
func Capture(logger zerolog.Logger) (restore func(), err error) {
	r, w, err := os.Pipe()
	if err != nil {
		return nil, errors.Wrap(err, "create stderr pipe")
	}

	orig, err := syscall.Dup(int(os.Stderr.Fd()))
	if err != nil {
		_ = r.Close()
		_ = w.Close()
		return nil, errors.Wrap(err, "duplicate stderr")
	}
	if err := syscall.Dup2(int(w.Fd()), int(os.Stderr.Fd())); err != nil {
		_ = syscall.Close(orig)
		_ = r.Close()
		_ = w.Close()
		return nil, errors.Wrap(err, "redirect stderr")
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		forward(r, logger)
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = syscall.Dup2(orig, int(os.Stderr.Fd()))
			_ = syscall.Close(orig)
			_ = w.Close()
			<-done
			_ = r.Close()
		})
	}, nil
}

// forward logs each non-empty line read from r.
func forward(r *os.File, logger zerolog.Logger) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			logger.Warn().Str("source", "stderr").Msg(line)
		}
	}
}
