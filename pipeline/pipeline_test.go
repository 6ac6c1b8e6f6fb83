package pipeline

import (
	"testing"
	"time"

	"github.com/n0remac/ftlsignal/ftl"
	"github.com/n0remac/ftlsignal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartPublishesAndTearsDownOnStop(t *testing.T) {
	reg := registry.NewChannelRegistry()
	stop := make(chan struct{})

	handshake := ftl.FinalHandshake{
		ProtocolVersion: ftl.ProtocolVersion{Major: 0, Minor: 9},
		Audio:           &ftl.KnownAudio{Codec: "OPUS", PayloadType: 97, SSRC: 42},
	}

	err := Start("77", handshake, 0, nil, reg, stop)
	require.NoError(t, err)

	handle, ok := reg.Get("77")
	require.True(t, ok)
	assert.Equal(t, "77", handle.ChannelID)
	assert.Len(t, handle.ProducerIDs, 1)

	close(stop)

	require.Eventually(t, func() bool {
		_, ok := reg.Get("77")
		return !ok
	}, time.Second, 10*time.Millisecond)
}

func TestStartRejectsUnsupportedCodec(t *testing.T) {
	reg := registry.NewChannelRegistry()
	stop := make(chan struct{})
	defer close(stop)

	handshake := ftl.FinalHandshake{
		Audio: &ftl.KnownAudio{Codec: "MP3", PayloadType: 97, SSRC: 1},
	}

	err := Start("77", handshake, 0, nil, reg, stop)
	assert.Error(t, err)
	_, ok := reg.Get("77")
	assert.False(t, ok)
}
