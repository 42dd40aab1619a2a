// ABOUTME: Transport helpers package
// ABOUTME: Send-all / receive-exact loops and TCP seams
// Package transport wraps the blocking byte-stream calls used by the audiospy
// server and client.
//
// SendAll and ReceiveExact turn partial writes and reads into complete
// transfers. Listen and Dial classify socket failures as ErrNetwork. There are
// no timeouts: every call blocks until the peer or the kernel makes progress.
//
// Example:
//
//	if err := transport.SendAll(conn, protocol.EncodeHello(cfg)); err != nil {
//	    // drop the client
//	}
//	hello, err := transport.ReceiveN(conn, protocol.HelloSize)
package transport
