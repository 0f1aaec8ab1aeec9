// File: pkg/combine/execute.go
package combine

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"showfiles/pkg/enumerate"
	"showfiles/pkg/ignore"
	"showfiles/pkg/tree"
)

// Execute validates args and shows the selected files on stdout or the
// configured sink.
func Execute(args Arguments, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	rc, err := Prepare(args, time.Now(), logger)
	if err != nil {
		return err
	}

	sink, err := openSink(rc, os.Stdout, logger)
	if err != nil {
		return err
	}
	runErr := Run(rc, sink, logger)
	if err := sink.Close(); err != nil && runErr == nil {
		runErr = fmt.Errorf("failed to finish output: %w", err)
	}
	return runErr
}

// Prepare checks args and builds the context shared by the run. Relative
// dates are resolved against now.
func Prepare(args Arguments, now time.Time, logger *zap.Logger) (*RenderContext, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	target := args.Target
	if target == "" {
		target = "."
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, &ConfigError{Field: "target", Value: target, Err: fmt.Errorf("%w: %v", ErrInvalidTarget, err)}
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, &ConfigError{Field: "target", Value: target, Err: fmt.Errorf("%w: %v", ErrInvalidTarget, err)}
	}

	rc := &RenderContext{
		Target:      target,
		Root:        abs,
		MaxDepth:    args.MaxDepth,
		ForceWalk:   args.ForceWalk,
		MaxLines:    args.MaxLines,
		Long:        args.Long,
		Color:       args.Color,
		Metadata:    args.Metadata,
		Checksum:    args.Checksum,
		Number:      args.Number,
		FullPath:    args.FullPath,
		DryRun:      args.DryRun,
		Interactive: args.Interactive,
		Follow:      args.Follow,
		Tree:        args.Tree,
		Progress:    args.Progress,
		Silent:      args.Silent,
		Pager:       args.Pager,
		Clipboard:   args.Clipboard,
		Output:      args.Output,
		Jobs:        args.Jobs,
	}
	if !info.IsDir() {
		if !info.Mode().IsRegular() {
			return nil, &ConfigError{Field: "target", Value: target, Err: fmt.Errorf("%w: not a regular file or directory", ErrInvalidTarget)}
		}
		rc.Root = filepath.Dir(abs)
		rc.File = filepath.Base(abs)
	}
	if rc.MaxLines <= 0 {
		rc.MaxLines = DefaultMaxLines
	}
	if rc.MaxDepth < 0 {
		rc.MaxDepth = 0
	}
	if rc.Interactive && rc.Jobs > 1 {
		logger.Debug("Interactive mode processes files sequentially", zap.Int("jobs", rc.Jobs))
		rc.Jobs = 1
	}

	if args.MaxSize != "" {
		if rc.MaxSize, err = ParseSize(args.MaxSize); err != nil {
			return nil, &ConfigError{Field: "max-size", Value: args.MaxSize, Err: err}
		}
	}
	if args.NewerThan != "" {
		if rc.NewerThan, err = ParseDate(args.NewerThan, now); err != nil {
			return nil, &ConfigError{Field: "newer-than", Value: args.NewerThan, Err: err}
		}
	}
	if args.OlderThan != "" {
		if rc.OlderThan, err = ParseDate(args.OlderThan, now); err != nil {
			return nil, &ConfigError{Field: "older-than", Value: args.OlderThan, Err: err}
		}
	}
	if !rc.NewerThan.IsZero() && !rc.OlderThan.IsZero() && !rc.NewerThan.Before(rc.OlderThan) {
		logger.Warn("Time window is empty, every file will be skipped",
			zap.Time("newerThan", rc.NewerThan), zap.Time("olderThan", rc.OlderThan))
	}

	rc.Patterns, err = collectPatterns(rc.Root, rc.IsSingleFile(), args, logger)
	if err != nil {
		return nil, err
	}
	logger.Debug("Prepared run",
		zap.String("root", rc.Root),
		zap.String("file", rc.File),
		zap.Strings("ignore", rc.Patterns.IgnoreGlobs()),
		zap.Strings("include", rc.Patterns.IncludeGlobs()))
	return rc, nil
}

// collectPatterns gathers ignore rules from .gitignore files under root, the
// external ignore file and the command line. A single-file run never scans
// for .gitignore files since its rules would not be consulted.
func collectPatterns(root string, singleFile bool, args Arguments, logger *zap.Logger) (*ignore.PatternSet, error) {
	ps, err := ignore.Collect(root, ignore.Options{
		UseVCSIgnore: !args.NoGitignore && !singleFile,
		ExternalFile: args.IgnoreFile,
		IgnoreCase:   args.IgnoreCase,
		Ignore:       splitPatterns(args.Exclude),
		Include:      splitPatterns(args.Include),
	}, logger)
	if err != nil {
		return nil, &ConfigError{Field: "ignore-file", Value: args.IgnoreFile, Err: err}
	}
	return ps, nil
}

// splitPatterns splits each entry on whitespace.
func splitPatterns(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Fields(v)...)
	}
	return out
}

// Run writes the optional tree and the records of every enumerated file to w.
func Run(rc *RenderContext, w io.Writer, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	if rc.Tree && !rc.IsSingleFile() {
		if err := renderTree(rc, w, logger); err != nil {
			return err
		}
	}

	e, err := enumerate.Select(enumerate.Options{
		Root:           rc.Root,
		File:           rc.File,
		ForceWalk:      rc.ForceWalk,
		MaxDepth:       rc.MaxDepth,
		FollowSymlinks: rc.Follow,
		Prune:          rc.Patterns.Ignored,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to select enumeration: %w", err)
	}
	files, err := e.Enumerate()
	if err != nil {
		return fmt.Errorf("failed to enumerate files: %w", err)
	}
	if !rc.IsSingleFile() {
		files = enumerate.Filter(files, rc.Patterns)
	}
	if len(files) == 0 {
		logger.Warn("No files to show after filtering", zap.String("root", rc.Root))
		return nil
	}

	start := time.Now()
	coord := NewCoordinator(NewFileProcessor(rc, logger), rc.Jobs, rc.Progress, logger)
	sum, err := coord.Run(files, w)
	if err != nil {
		return err
	}
	logger.Debug("Finished showing files",
		zap.Int("candidates", len(files)),
		zap.Int("shown", sum.Shown),
		zap.Int("skipped", sum.Skipped),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

func renderTree(rc *RenderContext, w io.Writer, logger *zap.Logger) error {
	r := tree.NewRenderer(rc.Root, rc.MaxDepth, rc.Patterns, rc.Color, logger)
	r.Root = rc.Target
	if path, err := exec.LookPath("tree"); err == nil {
		r.External = path
	}
	if err := r.Render(w); err != nil {
		return fmt.Errorf("failed to render tree: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
