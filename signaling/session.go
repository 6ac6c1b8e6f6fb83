// Package signaling drives one viewer's WebSocket connection: channel
// lookup, WebRTC consumer transport negotiation, and consumer creation for
// the channel's published producers.
package signaling

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"

	"github.com/gorilla/websocket"
	"github.com/n0remac/ftlsignal/registry"
	"github.com/n0remac/ftlsignal/sfu"
	"github.com/pion/webrtc/v4"
	"github.com/tidwall/gjson"
)

// state names the session's position in the signaling state machine.
type state int

const (
	stateAwaitingBegin state = iota
	stateNegotiating
)

// Session owns one viewer's WebSocket connection for its lifetime.
type Session struct {
	conn *websocket.Conn

	channels *registry.ChannelRegistry
	viewers  *registry.ViewerSet
	iceServers []webrtc.ICEServer

	viewerID  string
	channelID string
	state     state

	handle    *registry.PipelineHandle
	transport *sfu.WebRTCTransport
}

// NewSession wraps an already-upgraded WebSocket connection.
func NewSession(conn *websocket.Conn, channels *registry.ChannelRegistry, viewers *registry.ViewerSet, iceServers []webrtc.ICEServer) *Session {
	return &Session{
		conn:       conn,
		channels:   channels,
		viewers:    viewers,
		iceServers: iceServers,
		viewerID:   newViewerID(),
		state:      stateAwaitingBegin,
	}
}

func newViewerID() string {
	buf := make([]byte, 16)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

// Serve runs the signaling state machine until the connection closes. Every
// exit path removes this viewer from the ViewerSet and closes the consumer
// transport, if one was created.
func (s *Session) Serve() {
	defer s.cleanup()

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		typ := gjson.GetBytes(raw, "type").String()
		if typ == "" {
			log.Printf("[SIGNAL] viewer %s: message missing type discriminator", s.viewerID)
			return
		}

		if err := s.dispatch(typ, raw); err != nil {
			log.Printf("[SIGNAL] viewer %s: %v", s.viewerID, err)
			return
		}
	}
}

func (s *Session) cleanup() {
	if s.channelID != "" {
		s.viewers.Stop(s.channelID, s.viewerID)
	}
	if s.transport != nil {
		_ = s.transport.Close()
	}
	_ = s.conn.Close()
}

func (s *Session) dispatch(typ string, raw []byte) error {
	switch s.state {
	case stateAwaitingBegin:
		if typ != "Begin" {
			return errors.New("expected Begin as the first message")
		}
		return s.handleBegin(raw)

	case stateNegotiating:
		switch typ {
		case "Begin":
			// Repeated Begin after the first is ignored to avoid mid-session
			// channel switches; see the spec gap noted for this transition.
			return nil
		case "Init":
			return s.handleInit(raw)
		case "Connect":
			return s.handleConnect(raw)
		case "Consume":
			return s.handleConsume()
		case "Resume":
			return s.handleResume(raw)
		case "PollConnectedViewers":
			return s.handlePollConnectedViewers()
		default:
			return errors.New("unrecognized message type " + typ)
		}
	}
	return nil
}

func (s *Session) handleBegin(raw []byte) error {
	var msg beginMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return err
	}

	handle, ok := s.channels.Get(msg.ChannelID)
	if !ok {
		return errors.New("channel " + msg.ChannelID + " is not live")
	}

	transport, err := handle.Router.CreateWebRTCTransport(s.iceServers)
	if err != nil {
		return err
	}
	offer, err := transport.CreateOffer()
	if err != nil {
		return err
	}

	s.channelID = msg.ChannelID
	s.handle = handle
	s.transport = transport

	producers := make([]string, len(handle.ProducerIDs))
	for i, id := range handle.ProducerIDs {
		producers[i] = id.String()
	}

	out := initClientMessage{
		Type:      "Init",
		Producers: producers,
		Transport: transportDescriptor{
			ID:             transport.ID().String(),
			DTLSParameters: offer.SDP,
		},
		RouterRTPCapabilities: routerCapabilitiesFor(handle),
	}

	s.state = stateNegotiating
	return s.send(out)
}

func routerCapabilitiesFor(handle *registry.PipelineHandle) routerCapabilities {
	var caps routerCapabilities
	if v := handle.Handshake.Video; v != nil {
		caps.Video = &codecCapability{Mime: "video/" + v.Codec, ClockRate: 90000, PayloadType: v.PayloadType}
	}
	if a := handle.Handshake.Audio; a != nil {
		caps.Audio = &codecCapability{Mime: "audio/" + a.Codec, ClockRate: 48000, PayloadType: a.PayloadType}
	}
	return caps
}

func (s *Session) handleInit(raw []byte) error {
	var msg initMessage
	return json.Unmarshal(raw, &msg)
}

func (s *Session) handleConnect(raw []byte) error {
	var msg connectMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return err
	}

	answer := webrtc.SessionDescription{Type: webrtc.SDPTypeAnswer, SDP: msg.DTLSParameters}
	if err := s.transport.Connect(answer); err != nil {
		return err
	}

	s.viewers.Start(s.channelID, s.viewerID)
	return s.send(connectedMessage{Type: "Connected"})
}

func (s *Session) handleConsume() error {
	entries := make([]consumeEntry, 0, len(s.handle.ProducerIDs))
	for _, producerID := range s.handle.ProducerIDs {
		producer, ok := s.handle.Router.Producer(producerID)
		if !ok {
			continue
		}

		consumer, err := s.transport.Consume(producer)
		if err != nil {
			return err
		}

		params := consumer.RTPParameters()
		entry := consumeEntry{
			ID:         consumer.ID.String(),
			ProducerID: producerID.String(),
			Kind:       string(consumer.Kind),
		}
		entry.RTPParameters.Codec = params.Codec
		entry.RTPParameters.PayloadType = params.PayloadType
		entry.RTPParameters.SSRC = params.SSRC
		entries = append(entries, entry)
	}

	return s.send(consumingMessage{Type: "Consuming", Consume: entries})
}

func (s *Session) handleResume(raw []byte) error {
	var msg resumeMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return err
	}

	id, err := sfu.ParseConsumerID(msg.ID)
	if err != nil {
		return err
	}

	if consumer, ok := s.transport.Consumer(id); ok {
		consumer.Resume()
	}
	return nil
}

func (s *Session) handlePollConnectedViewers() error {
	count := s.viewers.Count(s.channelID)
	return s.send(viewerCountMessage{Type: "ViewerCount", Count: count})
}

func (s *Session) send(v interface{}) error {
	return s.conn.WriteJSON(v)
}
