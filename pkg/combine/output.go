// File: pkg/combine/output.go
package combine

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

const defaultPager = "less -R"

// openSink picks where the run output goes. An output file wins over the
// clipboard, the clipboard over the pager, and the pager over stdout. The
// pager is only used when stdout is a terminal.
func openSink(rc *RenderContext, stdout io.Writer, logger *zap.Logger) (io.WriteCloser, error) {
	switch {
	case rc.Output != "":
		s, err := newFileSink(rc.Output, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case rc.Clipboard:
		return &clipboardSink{fallback: stdout, logger: logger}, nil
	case rc.Pager && stdoutIsTerminal(stdout):
		s, err := newPagerSink(pagerCommand(), stdout, logger)
		if err == nil {
			return s, nil
		}
		logger.Warn("Failed to start pager, writing to stdout", zap.Error(err))
	}
	return &bufferedSink{Writer: bufio.NewWriter(stdout)}, nil
}

func stdoutIsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func pagerCommand() []string {
	if fields := strings.Fields(os.Getenv("PAGER")); len(fields) > 0 {
		return fields
	}
	return strings.Fields(defaultPager)
}

// bufferedSink flushes on Close.
type bufferedSink struct {
	*bufio.Writer
}

func (s *bufferedSink) Close() error {
	return s.Flush()
}

type fileSink struct {
	bufferedSink
	file   *os.File
	logger *zap.Logger
}

func newFileSink(path string, logger *zap.Logger) (*fileSink, error) {
	f, err := os.Create(path)
	if err != nil {
		logger.Error("Failed to create output file", zap.String("file", path), zap.Error(err))
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return &fileSink{bufferedSink: bufferedSink{bufio.NewWriter(f)}, file: f, logger: logger}, nil
}

func (s *fileSink) Close() error {
	if err := s.Flush(); err != nil {
		s.file.Close()
		return fmt.Errorf("failed to flush output: %w", err)
	}
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	s.logger.Info("Output written", zap.String("file", s.file.Name()))
	return nil
}

// clipboardSink collects the output and copies it, without color codes, on
// Close. When the clipboard is unavailable the text goes to fallback.
type clipboardSink struct {
	buf      bytes.Buffer
	fallback io.Writer
	logger   *zap.Logger
}

func (s *clipboardSink) Write(p []byte) (int, error) {
	return s.buf.Write(p)
}

func (s *clipboardSink) Close() error {
	text := ansi.Strip(s.buf.String())
	if err := clipboard.WriteAll(text); err != nil {
		s.logger.Error("Failed to copy output to clipboard, printing instead", zap.Error(err))
		_, werr := io.WriteString(s.fallback, text)
		return werr
	}
	s.logger.Info("Output copied to clipboard", zap.Int("bytes", len(text)))
	return nil
}

type pagerSink struct {
	io.WriteCloser
	cmd *exec.Cmd
}

func newPagerSink(argv []string, stdout io.Writer, logger *zap.Logger) (*pagerSink, error) {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = stdout
	cmd.Stderr = os.Stderr
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	logger.Debug("Started pager", zap.Strings("command", argv))
	return &pagerSink{WriteCloser: stdin, cmd: cmd}, nil
}

// Write discards output once the pager has exited.
func (s *pagerSink) Write(p []byte) (int, error) {
	n, err := s.WriteCloser.Write(p)
	if errors.Is(err, syscall.EPIPE) {
		return len(p), nil
	}
	return n, err
}

func (s *pagerSink) Close() error {
	if err := s.WriteCloser.Close(); err != nil {
		return err
	}
	return s.cmd.Wait()
}
