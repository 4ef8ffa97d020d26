// Package mcp implements a minimal Model Context Protocol server over
// newline-delimited JSON-RPC 2.0, the framing MCP clients use for stdio
// transports.
//
// The server speaks the subset of the protocol a tool server needs:
// initialize, ping, tools/list and tools/call, with notifications accepted
// and ignored. Tool handler failures are reported inside the call result
// with isError set, so the calling agent receives them as content rather
// than a broken request; JSON-RPC error codes are reserved for
// protocol-level problems.
//
// # Usage
//
//	srv := mcp.NewServer(mcp.Options{
//	    Name:     "crux-go",
//	    Version:  "1.0.0",
//	    Registry: registry,
//	    Log:      log,
//	})
//	err := srv.Serve(ctx, os.Stdin, os.Stdout)
//
// Serve returns nil when the client closes its end of the pipe.
package mcp
