//go:build unix

// File: pkg/combine/owner_unix.go
package combine

import (
	"io/fs"
	"os/user"
	"strconv"
	"syscall"
)

// fileOwner returns the user name owning info, or the numeric id when the
// name cannot be resolved.
func fileOwner(info fs.FileInfo) string {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return "unknown"
	}
	uid := strconv.FormatUint(uint64(st.Uid), 10)
	if u, err := user.LookupId(uid); err == nil {
		return u.Username
	}
	return uid
}
