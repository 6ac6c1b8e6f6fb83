package sfu

import (
	"sync"

	"github.com/pion/rtp"
)

// Producer is an RTP source keyed by payload type and SSRC, fed by a
// DirectTransport or PlainTransport's ingest loop and fanned out to every
// Consumer subscribed to it.
type Producer struct {
	ID          ProducerID
	Kind        Kind
	Codec       string
	PayloadType uint8
	SSRC        uint32

	mu   sync.RWMutex
	subs map[ConsumerID]chan *rtp.Packet
}

func newProducer(kind Kind, codec string, payloadType uint8, ssrc uint32) *Producer {
	return &Producer{
		ID:          newProducerID(),
		Kind:        kind,
		Codec:       codec,
		PayloadType: payloadType,
		SSRC:        ssrc,
		subs:        make(map[ConsumerID]chan *rtp.Packet),
	}
}

// write hands one decoded RTP packet to every current subscriber. A
// subscriber whose channel is full drops the packet rather than blocking the
// ingest loop.
func (p *Producer) write(pkt *rtp.Packet) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, ch := range p.subs {
		select {
		case ch <- pkt:
		default:
		}
	}
}

func (p *Producer) subscribe(id ConsumerID) <-chan *rtp.Packet {
	ch := make(chan *rtp.Packet, 128)
	p.mu.Lock()
	p.subs[id] = ch
	p.mu.Unlock()
	return ch
}

func (p *Producer) unsubscribe(id ConsumerID) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if ch, ok := p.subs[id]; ok {
		delete(p.subs, id)
		close(ch)
	}
}
