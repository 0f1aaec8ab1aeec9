// File: pkg/combine/highlight.go
package combine

import (
	"bytes"
	"fmt"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
)

// highlighter colors file content for a 256-color terminal.
type highlighter struct {
	style     *chroma.Style
	formatter chroma.Formatter
}

func newHighlighter() *highlighter {
	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}
	return &highlighter{style: style, formatter: formatter}
}

// Highlight picks a lexer from the file name, then the content. Content no
// lexer recognizes is returned unchanged.
func (h *highlighter) Highlight(name string, content []byte) ([]byte, error) {
	lexer := lexers.Match(name)
	if lexer == nil {
		lexer = lexers.Analyse(string(content))
	}
	if lexer == nil {
		return content, nil
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to tokenise %s: %w", name, err)
	}
	var b bytes.Buffer
	if err := h.formatter.Format(&b, h.style, iterator); err != nil {
		return nil, fmt.Errorf("failed to format %s: %w", name, err)
	}
	return b.Bytes(), nil
}
