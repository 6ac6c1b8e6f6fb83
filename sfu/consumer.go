package sfu

import (
	"sync"
	"sync/atomic"

	"github.com/pion/webrtc/v4"
)

// RTPParameters is the subset of a producer's RTP parameters a consumer
// reports back to the viewer in a Consuming message.
type RTPParameters struct {
	Codec       string
	PayloadType uint8
	SSRC        uint32
}

// Consumer forwards one producer's RTP stream into one viewer's local track.
// It is created paused; Resume starts forwarding.
type Consumer struct {
	ID         ConsumerID
	ProducerID ProducerID
	Kind       Kind

	producer *Producer
	track    *webrtc.TrackLocalStaticRTP

	paused atomic.Bool

	closeOnce sync.Once
	done      chan struct{}
}

func newConsumer(producer *Producer, track *webrtc.TrackLocalStaticRTP) *Consumer {
	c := &Consumer{
		ID:         newConsumerID(),
		ProducerID: producer.ID,
		Kind:       producer.Kind,
		producer:   producer,
		track:      track,
		done:       make(chan struct{}),
	}
	c.paused.Store(true)
	go c.forward()
	return c
}

// RTPParameters reports the forwarded producer's codec/payload type/SSRC.
func (c *Consumer) RTPParameters() RTPParameters {
	return RTPParameters{
		Codec:       c.producer.Codec,
		PayloadType: c.producer.PayloadType,
		SSRC:        c.producer.SSRC,
	}
}

// Resume un-pauses forwarding from producer to the viewer's local track.
func (c *Consumer) Resume() {
	c.paused.Store(false)
}

// Pause stops forwarding without tearing down the subscription.
func (c *Consumer) Pause() {
	c.paused.Store(true)
}

func (c *Consumer) forward() {
	sub := c.producer.subscribe(c.ID)
	for {
		select {
		case <-c.done:
			return
		case pkt, ok := <-sub:
			if !ok {
				return
			}
			if c.paused.Load() {
				continue
			}
			_ = c.track.WriteRTP(pkt)
		}
	}
}

// Close stops forwarding and unsubscribes from the producer. Idempotent.
func (c *Consumer) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.producer.unsubscribe(c.ID)
	})
}
