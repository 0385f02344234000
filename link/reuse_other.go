//go:build !unix

package link

import "syscall"

func reuseAddr(network, address string, c syscall.RawConn) error {
	return nil
}
