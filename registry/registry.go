// Package registry holds the cross-session shared state the rest of the
// module coordinates through: which channels are currently streaming, and
// which viewers are currently watching each one. Both structures are
// readers-writer-lock-guarded maps, the Go expression of the original
// design's "shared registries ... model as a readers-writer lock over a hash
// map" note.
package registry

import (
	"sync"

	"github.com/n0remac/ftlsignal/ftl"
	"github.com/n0remac/ftlsignal/sfu"
)

// PipelineHandle is what a publisher's media pipeline publishes for viewers
// to discover: the SFU router, its producer ids, and the finalized handshake
// that produced them (so a signaling session can recover payload-type/codec
// details without re-deriving them).
type PipelineHandle struct {
	ChannelID   string
	Router      *sfu.Router
	ProducerIDs []sfu.ProducerID
	Handshake   ftl.FinalHandshake
}

// ChannelRegistry maps a channel id to its live PipelineHandle. A channel
// absent from the map is not currently streaming.
type ChannelRegistry struct {
	mu       sync.RWMutex
	channels map[string]*PipelineHandle
}

// NewChannelRegistry returns an empty registry.
func NewChannelRegistry() *ChannelRegistry {
	return &ChannelRegistry{channels: make(map[string]*PipelineHandle)}
}

// Publish installs handle under channelID, replacing any previous entry.
func (r *ChannelRegistry) Publish(channelID string, handle *PipelineHandle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.channels[channelID] = handle
}

// Get looks up channelID's live pipeline, if any.
func (r *ChannelRegistry) Get(channelID string) (*PipelineHandle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.channels[channelID]
	return h, ok
}

// Remove drops channelID's entry, if present. Idempotent.
func (r *ChannelRegistry) Remove(channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.channels, channelID)
}

// ViewerSet tracks, per channel, the set of viewer ids currently connected
// to the signaling session for that channel.
type ViewerSet struct {
	mu      sync.RWMutex
	viewers map[string]map[string]struct{}
}

// NewViewerSet returns an empty viewer set.
func NewViewerSet() *ViewerSet {
	return &ViewerSet{viewers: make(map[string]map[string]struct{})}
}

// Start records viewerID as watching channelID.
func (v *ViewerSet) Start(channelID, viewerID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	set, ok := v.viewers[channelID]
	if !ok {
		set = make(map[string]struct{})
		v.viewers[channelID] = set
	}
	set[viewerID] = struct{}{}
}

// Stop removes viewerID from channelID's viewer set. Idempotent; safe to
// call on a viewer that was never started (e.g. a session that disconnects
// before reaching Connected).
func (v *ViewerSet) Stop(channelID, viewerID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	set, ok := v.viewers[channelID]
	if !ok {
		return
	}
	delete(set, viewerID)
	if len(set) == 0 {
		delete(v.viewers, channelID)
	}
}

// Count reports how many viewers currently watch channelID.
func (v *ViewerSet) Count(channelID string) int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.viewers[channelID])
}
