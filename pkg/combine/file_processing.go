// File: pkg/combine/file_processing.go
package combine

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

// Skip reasons printed in place of a file body.
const (
	reasonBrokenSymlink = "broken symlink"
	reasonPermission    = "permission denied"
	reasonBinary        = "binary file"
	reasonDeclined      = "user declined"
)

const timeLayout = "2006-01-02 15:04:05"

var separatorLine = "# " + strings.Repeat("-", 78)

// Record is the rendered output for one candidate file.
type Record struct {
	Path    string // Root-relative path.
	Reason  string // Why the file was skipped; empty when it was shown.
	Skipped bool   // True for skipped files, including silent skips with no Data.
	Data    []byte // Text to emit; empty for silent skips.
}

// Processor turns a candidate path into its output record.
type Processor interface {
	Process(rel string) Record
}

// FileProcessor applies the per-file filters in order and renders the files
// that pass them.
type FileProcessor struct {
	ctx *RenderContext

	// Prompter answers interactive questions; nil uses the controlling terminal.
	Prompter Prompter

	highlight *highlighter
	palette   palette
	logger    *zap.Logger
}

// NewFileProcessor creates a processor for rc.
func NewFileProcessor(rc *RenderContext, logger *zap.Logger) *FileProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &FileProcessor{
		ctx:     rc,
		palette: newPalette(rc.Color),
		logger:  logger,
	}
	if rc.Color {
		p.highlight = newHighlighter()
	}
	if rc.Interactive {
		p.Prompter = &ttyPrompter{}
	}
	return p
}

// Process never fails: every problem becomes a skip record.
func (p *FileProcessor) Process(rel string) Record {
	rel = filepath.ToSlash(rel)
	display := p.displayPath(rel)
	log := p.logger.With(zap.String("file", rel))

	if !p.ctx.IsSingleFile() {
		if ps := p.ctx.Patterns; !ps.Included(rel) || ps.Ignored(rel) {
			log.Debug("File filtered by pattern")
			return Record{Path: rel, Skipped: true}
		}
	}

	abs := filepath.Join(p.ctx.Root, filepath.FromSlash(rel))
	linfo, err := os.Lstat(abs)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return p.skip(rel, display, reasonPermission)
		}
		log.Warn("File disappeared before processing", zap.Error(err))
		return Record{Path: rel, Skipped: true}
	}

	source := abs
	if linfo.Mode()&fs.ModeSymlink != 0 {
		target, err := filepath.EvalSymlinks(abs)
		if err != nil {
			return p.skip(rel, display, reasonBrokenSymlink)
		}
		if !p.ctx.Follow {
			return p.renderLink(rel, display, abs)
		}
		source = target
	}

	info, err := os.Stat(source)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return p.skip(rel, display, reasonPermission)
		}
		log.Warn("Failed to stat file", zap.Error(err))
		return Record{Path: rel, Skipped: true}
	}
	if !info.Mode().IsRegular() {
		log.Debug("Skipping non-regular file", zap.String("mode", info.Mode().String()))
		return Record{Path: rel, Skipped: true}
	}

	if p.ctx.MaxSize > 0 && info.Size() > p.ctx.MaxSize {
		return p.skip(rel, display, fmt.Sprintf("size %s > %s", HumanSize(info.Size()), HumanSize(p.ctx.MaxSize)))
	}
	if !p.inTimeWindow(info.ModTime()) {
		return p.skip(rel, display, fmt.Sprintf("modified %s (outside time window)", info.ModTime().Format(timeLayout)))
	}

	content, binary, err := readContent(source)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return p.skip(rel, display, reasonPermission)
		}
		log.Warn("Failed to read file", zap.Error(err))
		return p.skip(rel, display, "unreadable")
	}
	if binary {
		return p.skip(rel, display, reasonBinary)
	}

	lines := countLines(content)
	if !p.ctx.Long && p.ctx.MaxLines > 0 && lines > p.ctx.MaxLines {
		return p.skip(rel, display, fmt.Sprintf("%d lines (use long mode)", lines))
	}

	if p.ctx.Interactive && p.Prompter != nil {
		question := fmt.Sprintf("Show %s (%s, %d lines)? [y/N] ", display, HumanSize(info.Size()), lines)
		if !p.Prompter.Confirm(question) {
			return p.skip(rel, display, reasonDeclined)
		}
	}

	return p.render(rel, display, info, content, lines)
}

func (p *FileProcessor) displayPath(rel string) string {
	switch {
	case p.ctx.FullPath:
		return filepath.Join(p.ctx.Root, filepath.FromSlash(rel))
	case p.ctx.IsSingleFile() && p.ctx.Target != "":
		return p.ctx.Target
	default:
		return rel
	}
}

// inTimeWindow reports whether mtime is at or after NewerThan and strictly
// before OlderThan. Zero bounds are open.
func (p *FileProcessor) inTimeWindow(mtime time.Time) bool {
	if !p.ctx.NewerThan.IsZero() && mtime.Before(p.ctx.NewerThan) {
		return false
	}
	if !p.ctx.OlderThan.IsZero() && !mtime.Before(p.ctx.OlderThan) {
		return false
	}
	return true
}

func (p *FileProcessor) writeHeader(b *bytes.Buffer, display string) {
	b.WriteString(p.palette.header(separatorLine))
	b.WriteByte('\n')
	b.WriteString(p.palette.header("# File: " + display))
	b.WriteByte('\n')
}

func (p *FileProcessor) skip(rel, display, reason string) Record {
	p.logger.Info("Skipped file", zap.String("file", rel), zap.String("reason", reason))

	var b bytes.Buffer
	p.writeHeader(&b, display)
	b.WriteString(p.palette.skip("# Skipped: " + reason))
	b.WriteString("\n\n")
	return Record{Path: rel, Reason: reason, Skipped: true, Data: b.Bytes()}
}

func (p *FileProcessor) renderLink(rel, display, abs string) Record {
	target, err := os.Readlink(abs)
	if err != nil {
		return p.skip(rel, display, reasonBrokenSymlink)
	}
	var b bytes.Buffer
	p.writeHeader(&b, display)
	b.WriteByte('\n')
	fmt.Fprintf(&b, "-> %s\n\n", target)
	return Record{Path: rel, Data: b.Bytes()}
}

func (p *FileProcessor) render(rel, display string, info fs.FileInfo, content []byte, lines int) Record {
	var b bytes.Buffer
	p.writeHeader(&b, display)
	if p.ctx.Metadata {
		meta := fmt.Sprintf("# Size: %s  Mode: %s  Owner: %s  Modified: %s",
			HumanSize(info.Size()), info.Mode().String(), fileOwner(info), info.ModTime().Format(timeLayout))
		b.WriteString(p.palette.meta(meta))
		b.WriteByte('\n')
	}
	if p.ctx.Checksum {
		b.WriteString(p.palette.meta("# SHA256: " + checksum(content)))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	if p.ctx.DryRun {
		fmt.Fprintf(&b, "[dry run] %d lines\n\n", lines)
		return Record{Path: rel, Data: b.Bytes()}
	}

	body := content
	if p.highlight != nil {
		highlighted, err := p.highlight.Highlight(filepath.Base(rel), content)
		if err != nil {
			p.logger.Warn("Highlighting failed, printing plain text", zap.String("file", rel), zap.Error(err))
		} else {
			body = highlighted
		}
	}
	if p.ctx.Number {
		body = numberLines(body)
	}
	b.Write(body)
	if len(body) > 0 && body[len(body)-1] != '\n' {
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	return Record{Path: rel, Data: b.Bytes()}
}

// palette colors header lines.
type palette struct {
	header func(a ...interface{}) string
	skip   func(a ...interface{}) string
	meta   func(a ...interface{}) string
}

func newPalette(enabled bool) palette {
	if !enabled {
		return palette{header: fmt.Sprint, skip: fmt.Sprint, meta: fmt.Sprint}
	}
	sprint := func(attrs ...color.Attribute) func(a ...interface{}) string {
		c := color.New(attrs...)
		c.EnableColor()
		return c.SprintFunc()
	}
	return palette{
		header: sprint(color.FgCyan, color.Bold),
		skip:   sprint(color.FgYellow),
		meta:   sprint(color.Faint),
	}
}
