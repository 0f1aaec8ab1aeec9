// File: pkg/ignore/pattern.go
package ignore

import (
	"fmt"
	"regexp"
	"strings"
)

// Pattern is a glob compiled for matching root-relative, slash-separated paths.
type Pattern struct {
	Glob  string         // Normalized glob text.
	loose *regexp.Regexp // Glob as the whole path, a path prefix, a suffix, or an inner run of segments.
	exact *regexp.Regexp // Glob against the whole path only.
}

// CompilePattern turns a shell-style glob into a Pattern.
// '*' and '?' also match '/', as in a shell [[ == ]] test.
func CompilePattern(glob string, ignoreCase bool) (*Pattern, error) {
	glob = normalizeGlob(glob)
	if glob == "" {
		return nil, fmt.Errorf("empty pattern")
	}

	body := globToRegex(glob)
	flags := "(?s)"
	if ignoreCase {
		flags = "(?is)"
	}

	loose, err := regexp.Compile(flags + `^(?:.*/)?` + body + `(?:/.*)?$`)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", glob, err)
	}
	exact, err := regexp.Compile(flags + "^" + body + "$")
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", glob, err)
	}
	return &Pattern{Glob: glob, loose: loose, exact: exact}, nil
}

// Match reports whether rel equals the pattern, is nested under it,
// ends with it, or contains it as a run of path segments.
func (p *Pattern) Match(rel string) bool {
	return p.loose.MatchString(rel)
}

// MatchExact reports whether the whole of rel matches the pattern.
func (p *Pattern) MatchExact(rel string) bool {
	return p.exact.MatchString(rel)
}

func (p *Pattern) String() string {
	return p.Glob
}

// normalizeGlob trims whitespace and trailing slashes; "dir/" would never
// match a cleaned relative path otherwise.
func normalizeGlob(glob string) string {
	glob = strings.TrimSpace(glob)
	for len(glob) > 1 && strings.HasSuffix(glob, "/") {
		glob = strings.TrimSuffix(glob, "/")
	}
	return strings.TrimPrefix(glob, "./")
}

// globToRegex converts a glob into an unanchored regular expression body.
func globToRegex(glob string) string {
	var b strings.Builder
	runes := []rune(glob)
	for i := 0; i < len(runes); i++ {
		switch r := runes[i]; r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		case '\\':
			if i+1 < len(runes) {
				i++
				b.WriteString(regexp.QuoteMeta(string(runes[i])))
			} else {
				b.WriteString(`\\`)
			}
		case '[':
			class, next, ok := bracketClass(runes, i)
			if !ok {
				b.WriteString(`\[`)
				continue
			}
			b.WriteString(class)
			i = next
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}

// bracketClass translates a [...] expression starting at runes[start].
// It returns the regexp class, the index of the closing ']' and whether one was found.
func bracketClass(runes []rune, start int) (string, int, bool) {
	i := start + 1
	var b strings.Builder
	b.WriteByte('[')
	if i < len(runes) && (runes[i] == '!' || runes[i] == '^') {
		b.WriteByte('^')
		i++
	}
	first := true
	for ; i < len(runes); i++ {
		r := runes[i]
		if r == ']' && !first {
			b.WriteByte(']')
			return b.String(), i, true
		}
		first = false
		switch r {
		case '\\', '[', ']', '^':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return "", start, false
}
