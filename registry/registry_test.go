package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChannelRegistryPublishGetRemove(t *testing.T) {
	reg := NewChannelRegistry()

	_, ok := reg.Get("77")
	assert.False(t, ok)

	handle := &PipelineHandle{ChannelID: "77"}
	reg.Publish("77", handle)

	got, ok := reg.Get("77")
	assert.True(t, ok)
	assert.Same(t, handle, got)

	reg.Remove("77")
	_, ok = reg.Get("77")
	assert.False(t, ok)

	// Removing an absent channel is a no-op, not an error.
	reg.Remove("77")
}

func TestViewerSetStartStopCount(t *testing.T) {
	vs := NewViewerSet()
	assert.Equal(t, 0, vs.Count("77"))

	vs.Start("77", "viewer-a")
	vs.Start("77", "viewer-b")
	assert.Equal(t, 2, vs.Count("77"))

	vs.Stop("77", "viewer-a")
	assert.Equal(t, 1, vs.Count("77"))

	vs.Stop("77", "viewer-b")
	assert.Equal(t, 0, vs.Count("77"))

	// Stopping a viewer that was never started, or a channel that was
	// never touched, must not panic.
	vs.Stop("77", "viewer-a")
	vs.Stop("unknown-channel", "viewer-x")
}

func TestViewerSetIndependentChannels(t *testing.T) {
	vs := NewViewerSet()
	vs.Start("a", "v1")
	vs.Start("b", "v1")
	assert.Equal(t, 1, vs.Count("a"))
	assert.Equal(t, 1, vs.Count("b"))
	vs.Stop("a", "v1")
	assert.Equal(t, 0, vs.Count("a"))
	assert.Equal(t, 1, vs.Count("b"))
}
