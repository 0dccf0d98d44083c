//go:build windows

package discovery

import "golang.org/x/sys/windows"

// Windows has no SO_REUSEPORT; SO_REUSEADDR alone covers rebinding.
func setSockoptReuse(fd uintptr) {
	_ = windows.SetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_REUSEADDR, 1)
}
