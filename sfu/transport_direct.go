package sfu

import (
	"log"
	"net"
	"time"

	"github.com/pion/rtp"
)

// DirectTransport is an RTP ingest transport owned by the caller: it binds
// its own UDP socket, unmarshals every datagram, and dispatches to the
// producer matching the packet's payload type. This is the "pipeline owns
// the socket" shape required by every SFU facade implementation.
type DirectTransport struct {
	id     TransportID
	router *Router
	conn   *net.UDPConn

	// publisherIP, if set, restricts accepted datagrams to that source
	// address. Declared optional because the reference protocol ships
	// without this check; see CreateDirectTransport.
	publisherIP net.IP

	byPayloadType map[uint8]*Producer
}

// CreateDirectTransport binds a UDP socket on port and returns a transport
// ready for Produce calls. publisherIP, when non-nil, is compared against
// each datagram's source address; packets from any other address are
// dropped. Passing a nil publisherIP reproduces the reference behavior of
// accepting RTP from any source.
func (r *Router) CreateDirectTransport(port uint16, publisherIP net.IP) (*DirectTransport, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: int(port)})
	if err != nil {
		return nil, err
	}
	t := &DirectTransport{
		id:            newTransportID(),
		router:        r,
		conn:          conn,
		publisherIP:   publisherIP,
		byPayloadType: make(map[uint8]*Producer),
	}
	r.addTransport(t)
	return t, nil
}

func (t *DirectTransport) ID() TransportID { return t.id }

// LocalPort returns the UDP port this transport is bound to.
func (t *DirectTransport) LocalPort() uint16 {
	return uint16(t.conn.LocalAddr().(*net.UDPAddr).Port)
}

// Produce registers a producer for the given kind/payload type/SSRC and
// returns it; subsequent datagrams whose RTP payload type matches are
// fanned out to it.
func (t *DirectTransport) Produce(kind Kind, codec string, payloadType uint8, ssrc uint32) *Producer {
	p := newProducer(kind, codec, payloadType, ssrc)
	t.byPayloadType[payloadType] = p
	t.router.addProducer(p)
	return p
}

// Run drives the ingest loop until stop is closed. It is the direct-transport
// analogue of the reference "RTP ingest loop": a 4 KiB receive buffer, a
// 500ms read deadline so stop is observed promptly, silent drop of
// unparsable datagrams, and payload-type dispatch with no further
// validation beyond the optional source-address check.
func (t *DirectTransport) Run(stop <-chan struct{}) {
	buf := make([]byte, 4096)
	for {
		select {
		case <-stop:
			return
		default:
		}

		_ = t.conn.SetReadDeadline(time.Now().Add(500 * time.Millisecond))
		n, addr, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return
		}

		if t.publisherIP != nil && !t.publisherIP.Equal(addr.IP) {
			log.Printf("[SFU] direct transport %s: dropped datagram from unexpected source %s", t.id, addr.IP)
			continue
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

// Close removes the transport from its router and releases the UDP socket.
// Producers created on it stay registered with the router. Idempotent.
func (t *DirectTransport) Close() error {
	t.router.removeTransport(t.id)
	return t.conn.Close()
}
