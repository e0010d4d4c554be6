// Package rpc serves and calls the remote render service over gRPC.
package rpc

import "time"

const (
	ServiceName  = "asciicam.v1.Renderer"
	RenderMethod = "/" + ServiceName + "/Render"

	// Request struct fields besides the parameter patch.
	FieldImage = "image"

	// Keepalive configuration
	DefaultKeepaliveTime    = 10 * time.Second
	DefaultKeepaliveTimeout = 3 * time.Second

	// DefaultCallTimeout bounds one Render attempt.
	DefaultCallTimeout = 10 * time.Second

	MaxMessageBytes = 48 << 20
)
