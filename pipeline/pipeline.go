// Package pipeline builds and tears down one channel's media pipeline: an
// SFU router scoped to the publisher's negotiated codecs, an RTP ingest
// transport bound to the allocated UDP port, and the producers it declares
// for audio/video. Construction order follows the reference design: build
// codec capabilities from the finalized handshake, construct the router,
// create the ingest transport, create producers, then publish.
package pipeline

import (
	"log"
	"net"

	"github.com/n0remac/ftlsignal/ftl"
	"github.com/n0remac/ftlsignal/registry"
	"github.com/n0remac/ftlsignal/sfu"
)

// DefaultVideoPayloadType and DefaultAudioPayloadType are the wire
// protocol's fallback payload types for a handshake that omits an explicit
// value. The ingest loop does not use them: Finalize requires PayloadType,
// so the demux always keys on the handshake's own values.
const (
	DefaultVideoPayloadType uint8 = 96
	DefaultAudioPayloadType uint8 = 97
)

// Start builds a channel's pipeline bound to udpPort, publishes it into reg,
// and spawns the ingest loop. It returns once the pipeline is published and
// running; the caller (an ingest session's Dot handler) treats the returned
// error as AllocError.
//
// publisherIP, when non-nil, is enforced as the only acceptable RTP source
// address — the §9 open-question check the reference implementation leaves
// as a documented gap.
func Start(channelID string, handshake ftl.FinalHandshake, udpPort uint16, publisherIP net.IP, reg *registry.ChannelRegistry, stop <-chan struct{}) error {
	videoSpec, audioSpec := buildSpecs(handshake)

	router, err := sfu.NewRouter(videoSpec, audioSpec)
	if err != nil {
		return err
	}

	transport, err := router.CreateDirectTransport(udpPort, publisherIP)
	if err != nil {
		return err
	}

	var producerIDs []sfu.ProducerID
	if handshake.Video != nil {
		p := transport.Produce(sfu.KindVideo, handshake.Video.Codec, handshake.Video.PayloadType, handshake.Video.SSRC)
		producerIDs = append(producerIDs, p.ID)
	}
	if handshake.Audio != nil {
		p := transport.Produce(sfu.KindAudio, handshake.Audio.Codec, handshake.Audio.PayloadType, handshake.Audio.SSRC)
		producerIDs = append(producerIDs, p.ID)
	}

	reg.Publish(channelID, &registry.PipelineHandle{
		ChannelID:   channelID,
		Router:      router,
		ProducerIDs: producerIDs,
		Handshake:   handshake,
	})

	go run(channelID, transport, router, reg, stop)

	return nil
}

func run(channelID string, transport *sfu.DirectTransport, router *sfu.Router, reg *registry.ChannelRegistry, stop <-chan struct{}) {
	transport.Run(stop)

	log.Printf("[PIPELINE] channel %s: stop observed, tearing down", channelID)
	reg.Remove(channelID)
	if err := router.Close(); err != nil {
		log.Printf("[PIPELINE] channel %s: close error: %v", channelID, err)
	}
}

func buildSpecs(handshake ftl.FinalHandshake) (*sfu.VideoSpec, *sfu.AudioSpec) {
	var video *sfu.VideoSpec
	var audio *sfu.AudioSpec

	if handshake.Video != nil {
		video = &sfu.VideoSpec{
			Codec:       handshake.Video.Codec,
			PayloadType: handshake.Video.PayloadType,
			SSRC:        handshake.Video.SSRC,
		}
	}
	if handshake.Audio != nil {
		audio = &sfu.AudioSpec{
			Codec:       handshake.Audio.Codec,
			PayloadType: handshake.Audio.PayloadType,
			SSRC:        handshake.Audio.SSRC,
		}
	}
	return video, audio
}
