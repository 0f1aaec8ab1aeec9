// File: pkg/combine/helpers.go
package combine

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
)

// Prompter asks the user a yes/no question.
type Prompter interface {
	Confirm(question string) bool
}

// ReaderPrompter writes questions to Out and reads answers from In.
// Anything but "y" or "yes" (case-insensitive) is a no.
type ReaderPrompter struct {
	In  io.Reader
	Out io.Writer

	once   sync.Once
	reader *bufio.Reader
}

// Confirm displays question and waits for an answer.
func (p *ReaderPrompter) Confirm(question string) bool {
	p.once.Do(func() { p.reader = bufio.NewReader(p.In) })

	fmt.Fprint(p.Out, question)
	response, err := p.reader.ReadString('\n')
	if err != nil && response == "" {
		return false
	}
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

// ttyPrompter asks on the controlling terminal so questions work while
// stdout is redirected. Without a terminal every answer is no.
type ttyPrompter struct {
	once  sync.Once
	inner Prompter
}

func (p *ttyPrompter) Confirm(question string) bool {
	p.once.Do(func() {
		if tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0); err == nil {
			p.inner = &ReaderPrompter{In: tty, Out: tty}
		}
	})
	if p.inner == nil {
		return false
	}
	return p.inner.Confirm(question)
}

// countLines counts newline-terminated lines plus a final unterminated one.
func countLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := bytes.Count(content, []byte{'\n'})
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}

// numberLines prefixes every line with its 1-based number.
func numberLines(content []byte) []byte {
	var b bytes.Buffer
	lines := bytes.SplitAfter(content, []byte{'\n'})
	for i, line := range lines {
		if len(line) == 0 {
			continue
		}
		fmt.Fprintf(&b, "%6d  %s", i+1, line)
	}
	return b.Bytes()
}

func checksum(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}
