//go:build !windows

package discovery

import "golang.org/x/sys/unix"

// setSockoptReuse lets several discovery sockets bind the same addr:port.
// SO_REUSEPORT is not available everywhere, but it's fine if it fails.
func setSockoptReuse(fd uintptr) {
	_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
	_ = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
}
