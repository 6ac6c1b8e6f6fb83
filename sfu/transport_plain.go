package sfu

import (
	"net"
	"time"

	"github.com/pion/rtp"
)

// PlainTransport is a comedia-style RTP ingest transport modelled on
// mediasoup's PlainTransportOptions{Comedia: true, RtcpMux: true}: no remote
// tuple is configured ahead of time. It does not record the remote address
// of any datagram, and unlike DirectTransport it performs no source-address
// filtering: RTP is accepted from any sender for the transport's lifetime.
type PlainTransport struct {
	id     TransportID
	router *Router
	conn   *net.UDPConn

	byPayloadType map[uint8]*Producer
}

// CreatePlainTransport binds a UDP socket on port for comedia-style ingest.
func (r *Router) CreatePlainTransport(port uint16) (*PlainTransport, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: int(port)})
	if err != nil {
		return nil, err
	}
	t := &PlainTransport{
		id:            newTransportID(),
		router:        r,
		conn:          conn,
		byPayloadType: make(map[uint8]*Producer),
	}
	r.addTransport(t)
	return t, nil
}

func (t *PlainTransport) ID() TransportID { return t.id }

// LocalPort returns the UDP port this transport is bound to.
func (t *PlainTransport) LocalPort() uint16 {
	return uint16(t.conn.LocalAddr().(*net.UDPAddr).Port)
}

// Produce declares a producer with the given SSRC and payload type. The SFU
// demultiplexes arriving RTP to it once Run observes a matching packet.
func (t *PlainTransport) Produce(kind Kind, codec string, payloadType uint8, ssrc uint32) *Producer {
	p := newProducer(kind, codec, payloadType, ssrc)
	t.byPayloadType[payloadType] = p
	t.router.addProducer(p)
	return p
}

// Run mirrors DirectTransport.Run but never checks the datagram's source
// address, per comedia semantics.
func (t *PlainTransport) Run(stop <-chan struct{}) {
	buf := make([]byte, 4096)
	for {
		select {
		case <-stop:
			return
		default:
		}

		_ = t.conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, _, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return
		}

		pkt := &rtp.Packet{}
		if err := pkt.Unmarshal(buf[:n]); err != nil {
			continue
		}

		if producer, ok := t.byPayloadType[uint8(pkt.PayloadType)]; ok {
			producer.write(pkt)
		}
	}
}

// Close releases the UDP socket. Idempotent.
func (t *PlainTransport) Close() error {
	t.router.removeTransport(t.id)
	return t.conn.Close()
}
