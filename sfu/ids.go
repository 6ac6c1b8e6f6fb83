// Package sfu is an in-process facade over a mediasoup-style Selective
// Forwarding Unit, built on pion/webrtc. The wider system treats the SFU as
// an external black box (router creation, RTP ingress transports, producers,
// WebRTC consumer transports); this package gives that black box a concrete,
// testable body so the rest of the module has something to drive.
package sfu

import "github.com/google/uuid"

// RouterID identifies a Router.
type RouterID uuid.UUID

func newRouterID() RouterID { return RouterID(uuid.New()) }

func (id RouterID) String() string { return uuid.UUID(id).String() }

// TransportID identifies a Transport (direct, plain, or WebRTC).
type TransportID uuid.UUID

func newTransportID() TransportID { return TransportID(uuid.New()) }

func (id TransportID) String() string { return uuid.UUID(id).String() }

// ProducerID identifies a Producer.
type ProducerID uuid.UUID

func newProducerID() ProducerID { return ProducerID(uuid.New()) }

func (id ProducerID) String() string { return uuid.UUID(id).String() }

// ConsumerID identifies a Consumer.
type ConsumerID uuid.UUID

func newConsumerID() ConsumerID { return ConsumerID(uuid.New()) }

func (id ConsumerID) String() string { return uuid.UUID(id).String() }

// ParseConsumerID parses a consumer id previously rendered by
// ConsumerID.String, as received from a viewer's Resume message.
func ParseConsumerID(s string) (ConsumerID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ConsumerID{}, err
	}
	return ConsumerID(u), nil
}

// Kind is the media kind of a Producer or Consumer.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)
