// File: pkg/combine/config.go
package combine

import (
	"time"

	"showfiles/pkg/ignore"
)

// DefaultMaxLines is the line limit applied to files unless long mode is on.
const DefaultMaxLines = 1000

// Arguments holds the raw command-line configuration of a run.
type Arguments struct {
	Target      string   // File or directory to show; empty means the working directory.
	Include     []string // Include patterns; each entry may hold several space-separated globs.
	Exclude     []string // Exclude patterns, joined to the ignore rules.
	IgnoreFile  string   // Extra ignore file whose rules are used as written.
	NoGitignore bool     // Do not read .gitignore files.
	ForceWalk   bool     // Walk the filesystem even inside a git repository.
	IgnoreCase  bool     // Match patterns case-insensitively.
	MaxDepth    int      // Directory depth limit; 0 means unlimited.
	MaxSize     string   // Size limit such as "10M"; empty means unlimited.
	MaxLines    int      // Line limit outside long mode; 0 selects DefaultMaxLines.
	NewerThan   string   // Only files modified at or after this date.
	OlderThan   string   // Only files modified before this date.
	Long        bool     // Show files of any length.
	Color       bool     // Force colored output.
	Metadata    bool     // Print size, mode, owner and modification time.
	Checksum    bool     // Print the SHA-256 of each file.
	Number      bool     // Number content lines.
	FullPath    bool     // Print absolute paths in headers.
	DryRun      bool     // Print headers and line counts only.
	Interactive bool     // Ask before showing each file.
	Follow      bool     // Follow symbolic links.
	Tree        bool     // Print the directory tree before the files.
	Progress    bool     // Log each file as it is processed.
	Silent      bool     // Suppress informational logging.
	Pager       bool     // Send output through a pager.
	Clipboard   bool     // Copy output to the clipboard.
	Output      string   // Write output to this file.
	Jobs        int      // Files processed in parallel; values <= 1 run sequentially.
}

// RenderContext is the validated, immutable configuration shared by every
// component of a run.
type RenderContext struct {
	Target string // Target as given by the user.
	Root   string // Absolute directory all file paths are relative to.
	File   string // Root-relative name when the target is a single file.

	Patterns  *ignore.PatternSet
	MaxDepth  int
	ForceWalk bool

	MaxSize   int64     // 0 means unlimited.
	MaxLines  int       // Ignored in long mode.
	NewerThan time.Time // Zero means unbounded.
	OlderThan time.Time // Zero means unbounded.

	Long        bool
	Color       bool
	Metadata    bool
	Checksum    bool
	Number      bool
	FullPath    bool
	DryRun      bool
	Interactive bool
	Follow      bool
	Tree        bool
	Progress    bool
	Silent      bool

	Pager     bool
	Clipboard bool
	Output    string
	Jobs      int
}

// IsSingleFile reports whether the run shows one named file.
func (rc *RenderContext) IsSingleFile() bool {
	return rc.File != ""
}
