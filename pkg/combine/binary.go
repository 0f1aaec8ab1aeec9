// File: pkg/combine/binary.go
package combine

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"os"
	"strings"
	"unicode/utf8"
)

// sniffLen is how much of a file is inspected before the rest is read.
const sniffLen = 8000

// binaryContentTypes are content types the sniffer reports for formats that
// are never worth printing.
var binaryContentTypes = []string{
	"image/",
	"audio/",
	"video/",
	"font/",
	"application/pdf",
	"application/zip",
	"application/x-gzip",
	"application/wasm",
	"application/vnd.ms-fontobject",
}

// readContent reads path, stopping after the first sniffLen bytes when they
// look binary.
func readContent(path string) (content []byte, binary bool, err error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, false, err
	}
	defer file.Close()

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, false, err
	}
	head = head[:n]

	if isBinary(head) {
		return nil, true, nil
	}

	rest, err := io.ReadAll(file)
	if err != nil {
		return nil, false, err
	}
	return append(head, rest...), false, nil
}

// isBinary checks the start of a file for null bytes, a binary content type,
// or a high ratio of non-printable characters in data that is not UTF-8.
func isBinary(head []byte) bool {
	if len(head) == 0 {
		return false // Empty files are considered text
	}
	if bytes.IndexByte(head, 0) >= 0 {
		return true
	}

	contentType := http.DetectContentType(head)
	for _, prefix := range binaryContentTypes {
		if strings.HasPrefix(contentType, prefix) {
			return true
		}
	}

	if validUTF8Prefix(head) {
		return false
	}

	nonPrintable := 0
	for _, b := range head {
		if !isPrintable(b) {
			nonPrintable++
		}
	}
	// If more than 30% non-printable characters, consider it binary
	return float64(nonPrintable)/float64(len(head)) > 0.3
}

// validUTF8Prefix reports whether b is valid UTF-8, allowing a rune cut off by
// the sniff window.
func validUTF8Prefix(b []byte) bool {
	for i := 0; i < utf8.UTFMax; i++ {
		if utf8.Valid(b) {
			return true
		}
		if len(b) == 0 || b[len(b)-1] < utf8.RuneSelf {
			return false
		}
		b = b[:len(b)-1]
	}
	return false
}

// isPrintable checks if a byte represents a printable ASCII character
func isPrintable(b byte) bool {
	return (b >= 32 && b <= 126) || b == '\n' || b == '\r' || b == '\t' || b == '\f' || b == '\b' || b == 0x1b
}
