// Package dblock serializes test packages that truncate the shared ledger
// database. Holding a loopback listener doubles as a cross-process lock, so
// go test ./... cannot interleave two packages' TRUNCATEs.
package dblock

import (
	"net"
	"time"
)

const lockAddr = "127.0.0.1:45766"

// Acquire blocks until the lock is held and returns its release function.
func Acquire() func() {
	for {
		ln, err := net.Listen("tcp", lockAddr)
		if err == nil {
			return func() { ln.Close() }
		}
		time.Sleep(50 * time.Millisecond)
	}
}
