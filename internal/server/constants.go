// Package server exposes the live render over HTTP and WebSocket.
package server

import "time"

const (
	// Per-connection sliding window for inbound WebSocket messages.
	RateLimitMessages = 20
	RateLimitWindow   = time.Second

	// Upper bound for POST /api/render bodies.
	MaxUploadBytes = 32 << 20

	// WriteTimeout bounds a single broadcast write to one client.
	WriteTimeout = 2 * time.Second
)

// WebSocket message types.
const (
	TypeFrame       = "frame"
	TypeNotice      = "notice"
	TypeParams      = "params"
	TypeCopy        = "copy"
	TypeCopied      = "copied"
	TypeError       = "error"
	TypeRateLimited = "rate_limited"
)
