// Package host declares the contract the embedding application implements
// to supply stream-key lookup, ingest port allocation, and channel discovery
// to the ingest and signaling sessions. It is the Go expression of the FTL
// reference's IngestServer/SignalingServer trait methods that the protocol
// itself leaves to the host.
package host

import (
	"context"

	"github.com/n0remac/ftlsignal/ftl"
	"github.com/n0remac/ftlsignal/registry"
)

// Callbacks is implemented by the embedding application. All methods may
// block; callers run each on its own goroutine per connection.
type Callbacks interface {
	// GetStreamKey returns the stream key associated with channelID, or an
	// error if the channel is unknown or not authorized to stream.
	GetStreamKey(ctx context.Context, channelID string) (string, error)

	// AllocateIngest builds the channel's media pipeline and returns the UDP
	// port the publisher should send RTP to. stop is closed exactly once,
	// by the ingest session, when the publisher's TCP connection ends; the
	// pipeline must observe it and tear itself down.
	AllocateIngest(ctx context.Context, channelID string, handshake ftl.FinalHandshake, stop <-chan struct{}) (udpPort uint16, err error)

	// GetStream looks up a channel's published pipeline for a viewer-side
	// signaling session.
	GetStream(ctx context.Context, channelID string) (*registry.PipelineHandle, bool)
}
