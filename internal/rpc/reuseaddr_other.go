//go:build !unix

package rpc

import "syscall"

// setReuseAddr is a no-op on non-unix platforms; net.ListenConfig.Control
// only needs a non-nil implementation here to keep the call site portable.
func setReuseAddr(_, _ string, _ syscall.RawConn) error {
	return nil
}
