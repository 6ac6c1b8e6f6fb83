package sfu

import (
	"fmt"
	"sync"

	"github.com/pion/webrtc/v4"
)

// WebRTCTransport is the consumer-side transport a viewer negotiates against.
// It differs from the mediasoup transport the external-collaborator contract
// describes: mediasoup's WebRtcTransport.connect takes a raw DTLS
// fingerprint over an already-established ICE-lite session, whereas pion
// negotiates DTLS as part of a conventional SDP offer/answer exchange. This
// facade folds the mediasoup-shaped Connect{dtlsParameters} call into
// "set the remote SDP answer": every transceiver a viewer could ever consume
// is added up front (one recvonly-from-the-viewer's-perspective track per
// media kind the router advertises) so the initial offer already covers
// every future Consume, and no mid-session renegotiation is required.
type WebRTCTransport struct {
	id     TransportID
	router *Router
	pc     *webrtc.PeerConnection

	tracksMu sync.Mutex
	tracks   map[Kind]*webrtc.TrackLocalStaticRTP
	senders  map[Kind]*webrtc.RTPSender

	consumersMu sync.Mutex
	consumers   map[ConsumerID]*Consumer
}

// CreateWebRTCTransport builds a PeerConnection pre-wired with one outbound
// track per media kind the router advertises, so Consume never needs to
// renegotiate.
func (r *Router) CreateWebRTCTransport(iceServers []webrtc.ICEServer) (*WebRTCTransport, error) {
	pc, err := r.api.NewPeerConnection(webrtc.Configuration{ICEServers: iceServers})
	if err != nil {
		return nil, fmt.Errorf("sfu: new peer connection: %w", err)
	}

	t := &WebRTCTransport{
		id:        newTransportID(),
		router:    r,
		pc:        pc,
		tracks:    make(map[Kind]*webrtc.TrackLocalStaticRTP),
		senders:   make(map[Kind]*webrtc.RTPSender),
		consumers: make(map[ConsumerID]*Consumer),
	}

	if r.video != nil {
		if err := t.addOutboundTrack(KindVideo, r.video.Codec); err != nil {
			_ = pc.Close()
			return nil, err
		}
	}
	if r.audio != nil {
		if err := t.addOutboundTrack(KindAudio, r.audio.Codec); err != nil {
			_ = pc.Close()
			return nil, err
		}
	}

	r.addTransport(t)
	return t, nil
}

func (t *WebRTCTransport) addOutboundTrack(kind Kind, codec string) error {
	var capability webrtc.RTPCodecCapability
	var err error
	if kind == KindVideo {
		capability, err = videoCodecCapability(codec)
	} else {
		capability, err = audioCodecCapability(codec)
	}
	if err != nil {
		return err
	}

	track, err := webrtc.NewTrackLocalStaticRTP(capability, string(kind), "ftlsignal")
	if err != nil {
		return fmt.Errorf("sfu: new local track: %w", err)
	}
	sender, err := t.pc.AddTrack(track)
	if err != nil {
		return fmt.Errorf("sfu: add track: %w", err)
	}

	// Drain incoming RTCP so the sender's internal buffers don't block; the
	// facade has no use for viewer-side RTCP feedback today.
	go func() {
		buf := make([]byte, 1500)
		for {
			if _, _, err := sender.Read(buf); err != nil {
				return
			}
		}
	}()

	t.tracksMu.Lock()
	t.tracks[kind] = track
	t.senders[kind] = sender
	t.tracksMu.Unlock()
	return nil
}

func (t *WebRTCTransport) ID() TransportID { return t.id }

// CreateOffer generates and sets the local SDP offer, the transport
// descriptor sent to the viewer in the signaling Init message.
func (t *WebRTCTransport) CreateOffer() (webrtc.SessionDescription, error) {
	offer, err := t.pc.CreateOffer(nil)
	if err != nil {
		return webrtc.SessionDescription{}, err
	}
	if err := t.pc.SetLocalDescription(offer); err != nil {
		return webrtc.SessionDescription{}, err
	}
	return offer, nil
}

// Connect applies the viewer's SDP answer, completing ICE/DTLS negotiation.
func (t *WebRTCTransport) Connect(answer webrtc.SessionDescription) error {
	return t.pc.SetRemoteDescription(answer)
}

// Consume creates a paused consumer for producer. The caller (signaling
// session) is responsible for calling Resume once the viewer is ready.
func (t *WebRTCTransport) Consume(producer *Producer) (*Consumer, error) {
	t.tracksMu.Lock()
	track, ok := t.tracks[producer.Kind]
	t.tracksMu.Unlock()
	if !ok {
		return nil, fmt.Errorf("sfu: transport has no outbound track for kind %q", producer.Kind)
	}

	c := newConsumer(producer, track)
	t.consumersMu.Lock()
	t.consumers[c.ID] = c
	t.consumersMu.Unlock()
	return c, nil
}

// Consumer looks up a previously created consumer by id.
func (t *WebRTCTransport) Consumer(id ConsumerID) (*Consumer, bool) {
	t.consumersMu.Lock()
	defer t.consumersMu.Unlock()
	c, ok := t.consumers[id]
	return c, ok
}

// Close tears down the PeerConnection and every consumer created on it.
func (t *WebRTCTransport) Close() error {
	t.router.removeTransport(t.id)

	t.consumersMu.Lock()
	consumers := make([]*Consumer, 0, len(t.consumers))
	for _, c := range t.consumers {
		consumers = append(consumers, c)
	}
	t.consumersMu.Unlock()
	for _, c := range consumers {
		c.Close()
	}

	return t.pc.Close()
}
