package sfu

import (
	"fmt"
	"sync"

	"github.com/pion/interceptor"
	"github.com/pion/webrtc/v4"
)

// VideoSpec describes the video leg a Router should advertise, derived from
// a finalized FTL handshake.
type VideoSpec struct {
	Codec       string
	PayloadType uint8
	SSRC        uint32
}

// AudioSpec describes the audio leg a Router should advertise.
type AudioSpec struct {
	Codec       string
	PayloadType uint8
	SSRC        uint32
}

// Router is a codec-scoped container of transports, producers, and
// consumers, standing in for a mediasoup router.
type Router struct {
	ID  RouterID
	api *webrtc.API

	video *VideoSpec
	audio *AudioSpec

	mu         sync.Mutex
	producers  map[ProducerID]*Producer
	transports map[TransportID]Transport
	closed     bool
}

// Transport is the common shape of DirectTransport, PlainTransport, and
// WebRTCTransport: every transport can be torn down idempotently.
type Transport interface {
	ID() TransportID
	Close() error
}

// NewRouter builds the codec capability set named by video/audio (at least
// one must be non-nil) and constructs the pion API instance backing it.
// An unsupported codec name fails construction, matching the FTL contract
// that a bad VideoCodec/AudioCodec value is rejected before port allocation.
func NewRouter(video *VideoSpec, audio *AudioSpec) (*Router, error) {
	if video == nil && audio == nil {
		return nil, fmt.Errorf("sfu: router requires at least one of video or audio")
	}

	me := &webrtc.MediaEngine{}
	if video != nil {
		cap, err := videoCodecCapability(video.Codec)
		if err != nil {
			return nil, err
		}
		if err := me.RegisterCodec(webrtc.RTPCodecParameters{
			RTPCodecCapability: cap,
			PayloadType:        webrtc.PayloadType(video.PayloadType),
		}, webrtc.RTPCodecTypeVideo); err != nil {
			return nil, fmt.Errorf("sfu: register video codec: %w", err)
		}
	}
	if audio != nil {
		cap, err := audioCodecCapability(audio.Codec)
		if err != nil {
			return nil, err
		}
		if err := me.RegisterCodec(webrtc.RTPCodecParameters{
			RTPCodecCapability: cap,
			PayloadType:        webrtc.PayloadType(audio.PayloadType),
		}, webrtc.RTPCodecTypeAudio); err != nil {
			return nil, fmt.Errorf("sfu: register audio codec: %w", err)
		}
	}

	ir := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(me, ir); err != nil {
		return nil, fmt.Errorf("sfu: register interceptors: %w", err)
	}

	return &Router{
		ID:         newRouterID(),
		api:        webrtc.NewAPI(webrtc.WithMediaEngine(me), webrtc.WithInterceptorRegistry(ir)),
		video:      video,
		audio:      audio,
		producers:  make(map[ProducerID]*Producer),
		transports: make(map[TransportID]Transport),
	}, nil
}

// ProducerIDs returns the ids of every live producer on this router, in no
// particular order.
func (r *Router) ProducerIDs() []ProducerID {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]ProducerID, 0, len(r.producers))
	for id := range r.producers {
		ids = append(ids, id)
	}
	return ids
}

// Producer looks up a live producer by id.
func (r *Router) Producer(id ProducerID) (*Producer, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.producers[id]
	return p, ok
}

func (r *Router) addProducer(p *Producer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.producers[p.ID] = p
}

func (r *Router) addTransport(t Transport) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transports[t.ID()] = t
}

func (r *Router) removeTransport(id TransportID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.transports, id)
}

// Close tears down every transport and producer on the router. Safe to call
// more than once.
func (r *Router) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	transports := make([]Transport, 0, len(r.transports))
	for _, t := range r.transports {
		transports = append(transports, t)
	}
	r.producers = make(map[ProducerID]*Producer)
	r.mu.Unlock()

	for _, t := range transports {
		_ = t.Close()
	}
	return nil
}
