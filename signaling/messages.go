package signaling

import "encoding/json"

// Server-bound message payloads. The discriminator lives in the wire
// envelope's "type" field (peeked with gjson in session.go), not in these
// structs, mirroring the reference protocol's internally-tagged enum.

type beginMessage struct {
	ChannelID string `json:"channelId"`
}

type initMessage struct {
	RTPCapabilities json.RawMessage `json:"rtpCapabilities"`
}

// connectMessage carries the viewer's local SDP answer in the
// dtlsParameters field. The reference protocol's Connect message carries a
// raw DTLS fingerprint because mediasoup negotiates ICE/DTLS ahead of SDP;
// pion negotiates DTLS as part of a conventional offer/answer exchange, so
// this facade folds the answer into the same wire field name rather than
// adding a new one. See the SFU facade's WebRTCTransport for the rationale.
type connectMessage struct {
	DTLSParameters string `json:"dtlsParameters"`
}

type resumeMessage struct {
	ID string `json:"id"`
}

// Client-bound message payloads.

type codecCapability struct {
	Mime        string `json:"mime"`
	ClockRate   uint32 `json:"clockRate"`
	PayloadType uint8  `json:"payloadType"`
}

type routerCapabilities struct {
	Video *codecCapability `json:"video,omitempty"`
	Audio *codecCapability `json:"audio,omitempty"`
}

type transportDescriptor struct {
	ID             string   `json:"id"`
	DTLSParameters string   `json:"dtlsParameters"`
	IceCandidates  []string `json:"iceCandidates"`
	IceParameters  string   `json:"iceParameters"`
}

type initClientMessage struct {
	Type                  string               `json:"type"`
	Producers             []string             `json:"producers"`
	Transport             transportDescriptor  `json:"transport"`
	RouterRTPCapabilities routerCapabilities   `json:"routerRtpCapabilities"`
}

type connectedMessage struct {
	Type string `json:"type"`
}

type consumeEntry struct {
	ID            string `json:"id"`
	ProducerID    string `json:"producerId"`
	Kind          string `json:"kind"`
	RTPParameters struct {
		Codec       string `json:"codec"`
		PayloadType uint8  `json:"payloadType"`
		SSRC        uint32 `json:"ssrc"`
	} `json:"rtpParameters"`
}

type consumingMessage struct {
	Type    string         `json:"type"`
	Consume []consumeEntry `json:"consume"`
}

type viewerCountMessage struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}
