//go:build !unix

// File: pkg/combine/owner_other.go
package combine

import "io/fs"

func fileOwner(fs.FileInfo) string {
	return "unknown"
}
