// Package ignore builds the ignore and include rules a show-files run works with.
//
// Rules are plain globs matched against root-relative paths. Rules read from
// nested ignore files are re-rooted at the directory holding the file; there is
// no negation and no special '**' handling.
package ignore

import (
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// FileName is the ignore file looked up in every directory under the root.
const FileName = ".gitignore"

// VCSDir is always ignored, whatever the ignore files say.
const VCSDir = ".git"

// PatternSet holds the ignore and include rules of a run. It is not modified
// after Collector.PatternSet returns it.
type PatternSet struct {
	ignore     []*Pattern
	include    []*Pattern
	ignoreCase bool
}

// Ignored reports whether any ignore rule matches rel.
func (ps *PatternSet) Ignored(rel string) bool {
	_, ok := ps.MatchIgnore(rel)
	return ok
}

// MatchIgnore returns the first ignore rule matching rel.
func (ps *PatternSet) MatchIgnore(rel string) (*Pattern, bool) {
	if ps == nil {
		return nil, false
	}
	rel = normalizePath(rel)
	for _, p := range ps.ignore {
		if p.Match(rel) {
			return p, true
		}
	}
	return nil, false
}

// HasInclude reports whether an include filter is active.
func (ps *PatternSet) HasInclude() bool {
	return ps != nil && len(ps.include) > 0
}

// Included reports whether rel passes the include filter.
// With no include rules everything passes.
func (ps *PatternSet) Included(rel string) bool {
	if !ps.HasInclude() {
		return true
	}
	rel = normalizePath(rel)
	for _, p := range ps.include {
		if p.Match(rel) {
			return true
		}
	}
	return false
}

// IncludedExactly reports whether an include rule matches the whole of rel.
func (ps *PatternSet) IncludedExactly(rel string) bool {
	if !ps.HasInclude() {
		return false
	}
	rel = normalizePath(rel)
	for _, p := range ps.include {
		if p.MatchExact(rel) {
			return true
		}
	}
	return false
}

// IgnoreGlobs returns the ignore rules in order.
func (ps *PatternSet) IgnoreGlobs() []string {
	if ps == nil {
		return nil
	}
	return globs(ps.ignore)
}

// IncludeGlobs returns the include rules in order.
func (ps *PatternSet) IncludeGlobs() []string {
	if ps == nil {
		return nil
	}
	return globs(ps.include)
}

// IgnoreCase reports whether rules were compiled case-insensitively.
func (ps *PatternSet) IgnoreCase() bool {
	return ps != nil && ps.ignoreCase
}

func globs(patterns []*Pattern) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, p.Glob)
	}
	return out
}

// Collector accumulates rules from ignore files and the command line.
type Collector struct {
	root       string
	ignoreCase bool
	ignore     []*Pattern
	include    []*Pattern
	logger     *zap.Logger
}

// NewCollector initializes a Collector for the directory root.
func NewCollector(root string, ignoreCase bool, logger *zap.Logger) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		root:       root,
		ignoreCase: ignoreCase,
		logger:     logger,
	}
}

// Options selects the rule sources Collect reads besides the always-ignored
// VCS directory.
type Options struct {
	UseVCSIgnore bool     // Scan root for nested .gitignore files.
	ExternalFile string   // Extra ignore file whose rules are used as written.
	IgnoreCase   bool     // Compile every rule case-insensitively.
	Ignore       []string // Additional ignore globs, e.g. from the command line.
	Include      []string // Include globs; empty means everything passes.
}

// Collect builds the PatternSet for root. Unreadable nested ignore files and a
// missing external file only produce warnings; any other failure to read the
// external file is returned.
func Collect(root string, opts Options, logger *zap.Logger) (*PatternSet, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := NewCollector(root, opts.IgnoreCase, logger)
	c.AddIgnore(VCSDir)

	if opts.UseVCSIgnore {
		if err := c.ScanIgnoreFiles(); err != nil {
			logger.Warn("Failed to read some ignore files", zap.String("root", root), zap.Error(err))
		}
	}

	if opts.ExternalFile != "" {
		if err := c.CompileIgnoreFile(opts.ExternalFile, "", false); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
			logger.Warn("Ignore file not found", zap.String("file", opts.ExternalFile))
		}
	}

	c.AddIgnore(opts.Ignore...)
	c.AddInclude(opts.Include...)
	return c.PatternSet(), nil
}

// AddIgnore compiles raw ignore globs.
func (c *Collector) AddIgnore(globs ...string) {
	c.ignore = c.appendPatterns(c.ignore, "ignore", globs)
}

// AddInclude compiles raw include globs.
func (c *Collector) AddInclude(globs ...string) {
	c.include = c.appendPatterns(c.include, "include", globs)
}

func (c *Collector) appendPatterns(dst []*Pattern, kind string, globs []string) []*Pattern {
	for _, g := range globs {
		p, err := CompilePattern(g, c.ignoreCase)
		if err != nil {
			c.logger.Warn("Skipping unusable pattern", zap.String("kind", kind), zap.String("pattern", g), zap.Error(err))
			continue
		}
		dst = append(dst, p)
		c.logger.Debug("Compiled pattern", zap.String("kind", kind), zap.String("pattern", p.Glob))
	}
	return dst
}

// CompileIgnoreFile reads an ignore file and adds its rules. When anchored is
// set every rule is re-rooted at relDir, the file's directory relative to root.
func (c *Collector) CompileIgnoreFile(filePath, relDir string, anchored bool) error {
	content, err := os.ReadFile(filePath)
	if err != nil {
		c.logger.Error("Failed to read ignore file", zap.String("filePath", filePath), zap.Error(err))
		return err
	}

	lines := strings.Split(string(content), "\n")
	var rules []string
	for _, line := range lines {
		rule, ok := parseRuleLine(line)
		if !ok {
			continue
		}
		if anchored {
			rule = anchorRule(rule, relDir)
		}
		rules = append(rules, rule)
	}
	c.AddIgnore(rules...)
	c.logger.Debug("Compiled ignore file",
		zap.String("filePath", filePath),
		zap.Int("lineCount", len(lines)),
		zap.Int("ruleCount", len(rules)))
	return nil
}

// ScanIgnoreFiles walks root and compiles every nested ignore file. Directories
// already ignored by rules from their ancestors are not entered.
func (c *Collector) ScanIgnoreFiles() error {
	return filepath.WalkDir(c.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			c.logger.Debug("Error accessing path while scanning ignore files", zap.String("path", p), zap.Error(err))
			if d != nil && d.IsDir() && p != c.root {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}

		relDir, _ := filepath.Rel(c.root, p)
		relDir = normalizePath(relDir)
		if relDir != "." && (d.Name() == VCSDir || c.ignored(relDir)) {
			return filepath.SkipDir
		}

		ignoreFile := filepath.Join(p, FileName)
		if _, statErr := os.Stat(ignoreFile); statErr != nil {
			return nil
		}
		if err := c.CompileIgnoreFile(ignoreFile, relDir, true); err != nil {
			if errors.Is(err, fs.ErrPermission) {
				return nil
			}
			return err
		}
		return nil
	})
}

// PatternSet freezes the collected rules.
func (c *Collector) PatternSet() *PatternSet {
	return &PatternSet{
		ignore:     append([]*Pattern(nil), c.ignore...),
		include:    append([]*Pattern(nil), c.include...),
		ignoreCase: c.ignoreCase,
	}
}

func (c *Collector) ignored(rel string) bool {
	for _, p := range c.ignore {
		if p.Match(rel) {
			return true
		}
	}
	return false
}

// parseRuleLine returns the rule on line, or false for blank and comment lines.
func parseRuleLine(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	return trimmed, true
}

// anchorRule roots a rule at relDir. A leading '/' is dropped first.
func anchorRule(rule, relDir string) string {
	rule = strings.TrimPrefix(rule, "/")
	if relDir == "" || relDir == "." {
		return rule
	}
	return path.Join(relDir, rule)
}

// normalizePath converts OS-specific path separators to forward slashes.
func normalizePath(p string) string {
	p = filepath.ToSlash(p)
	if p == "" {
		return "."
	}
	return strings.TrimPrefix(p, "./")
}
