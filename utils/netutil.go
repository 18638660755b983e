package utils

import (
	"context"
	"net"
	"syscall"

	"golang.org/x/sys/unix"
)

// ListenTCP binds addr with SO_REUSEADDR set so a restarted server does not
// trip over sockets lingering in TIME_WAIT.
func ListenTCP(addr string) (net.Listener, error) {
	lc := net.ListenConfig{
		Control: func(network, address string, c syscall.RawConn) error {
			var soErr error
			if err := c.Control(func(fd uintptr) {
				soErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEADDR, 1)
			}); err != nil {
				return err
			}
			return soErr
		},
	}
	return lc.Listen(context.Background(), "tcp", addr)
}
