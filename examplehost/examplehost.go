// Package examplehost is a reference host.Callbacks implementation: stream
// keys come from an environment variable, ingest ports are handed out
// sequentially from a configurable range, and channel lookup is a direct
// read of the shared ChannelRegistry. Real deployments would replace stream
// key lookup with a database or API call and port allocation with whatever
// the surrounding infrastructure requires.
package examplehost

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/n0remac/ftlsignal/ftl"
	"github.com/n0remac/ftlsignal/pipeline"
	"github.com/n0remac/ftlsignal/registry"
)

// Host is a reference host.Callbacks implementation backed by an
// environment-variable stream key table and a sequential UDP port pool.
type Host struct {
	channels *registry.ChannelRegistry

	streamKeys map[string]string

	mu       sync.Mutex
	nextPort uint16
	maxPort  uint16
}

// New builds a Host. streamKeys maps channel id to stream key, typically
// parsed from an environment variable (see ParseStreamKeys). minPort/maxPort
// bound the UDP ports handed out to allocated pipelines.
func New(channels *registry.ChannelRegistry, streamKeys map[string]string, minPort, maxPort uint16) *Host {
	return &Host{
		channels:   channels,
		streamKeys: streamKeys,
		nextPort:   minPort,
		maxPort:    maxPort,
	}
}

// ParseStreamKeys parses a comma-separated "channel=key" list, the format
// this module's STREAM_KEYS environment variable uses.
func ParseStreamKeys(raw string) map[string]string {
	keys := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		idx := strings.IndexByte(pair, '=')
		if idx < 0 {
			continue
		}
		keys[pair[:idx]] = pair[idx+1:]
	}
	return keys
}

// GetStreamKey implements host.Callbacks.
func (h *Host) GetStreamKey(ctx context.Context, channelID string) (string, error) {
	key, ok := h.streamKeys[channelID]
	if !ok {
		return "", fmt.Errorf("examplehost: unknown channel %q", channelID)
	}
	return key, nil
}

// AllocateIngest implements host.Callbacks: it hands out the next port in
// the configured range and starts the channel's media pipeline bound to it.
func (h *Host) AllocateIngest(ctx context.Context, channelID string, handshake ftl.FinalHandshake, stop <-chan struct{}) (uint16, error) {
	port, err := h.reservePort()
	if err != nil {
		return 0, err
	}

	if err := pipeline.Start(channelID, handshake, port, nil, h.channels, stop); err != nil {
		return 0, err
	}
	return port, nil
}

// GetStream implements host.Callbacks.
func (h *Host) GetStream(ctx context.Context, channelID string) (*registry.PipelineHandle, bool) {
	return h.channels.Get(channelID)
}

func (h *Host) reservePort() (uint16, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.nextPort > h.maxPort {
		return 0, fmt.Errorf("examplehost: ingest port range exhausted")
	}
	port := h.nextPort
	h.nextPort++
	return port, nil
}

// LoadStreamKeysFromEnv reads the STREAM_KEYS environment variable and
// parses it with ParseStreamKeys. Returns an empty map if unset.
func LoadStreamKeysFromEnv() map[string]string {
	return ParseStreamKeys(os.Getenv("STREAM_KEYS"))
}
