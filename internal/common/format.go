package common

import (
	"strconv"
	"strings"
)

// PadZero pads an integer with leading zeros to reach the specified width.
// Wider numbers are returned unchanged.
func PadZero(n, width int) string {
	s := strconv.Itoa(n)
	for len(s) < width {
		s = "0" + s
	}
	return s
}

// RemotePath makes p absolute on the remote store, using forward slashes.
func RemotePath(p string) string {
	p = strings.ReplaceAll(p, `\`, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

// RemoteDir returns the parent directory of a remote path, "/" for top level entries.
func RemoteDir(p string) string {
	p = RemotePath(p)
	i := strings.LastIndex(p, "/")
	if i <= 0 {
		return "/"
	}
	return p[:i]
}
