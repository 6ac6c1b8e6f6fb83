package ingest

import (
	"bufio"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"strings"
	"testing"

	"github.com/n0remac/ftlsignal/ftl"
	"github.com/n0remac/ftlsignal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCallbacks struct {
	streamKeys map[string]string
	allocated  chan string
}

func (f *fakeCallbacks) GetStreamKey(ctx context.Context, channelID string) (string, error) {
	key, ok := f.streamKeys[channelID]
	if !ok {
		return "", errors.New("unknown channel")
	}
	return key, nil
}

func (f *fakeCallbacks) AllocateIngest(ctx context.Context, channelID string, handshake ftl.FinalHandshake, stop <-chan struct{}) (uint16, error) {
	if f.allocated != nil {
		f.allocated <- channelID
	}
	return 9000, nil
}

func (f *fakeCallbacks) GetStream(ctx context.Context, channelID string) (*registry.PipelineHandle, bool) {
	return nil, false
}

func clientHmac(challengeHex, streamKey string) string {
	challengeBytes, _ := hex.DecodeString(challengeHex)
	mac := hmac.New(sha512.New, []byte(streamKey))
	mac.Write(challengeBytes)
	return "$" + hex.EncodeToString(mac.Sum(nil))
}

func TestIngestSessionFullHandshake(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	callbacks := &fakeCallbacks{
		streamKeys: map[string]string{"77": "my-stream-key"},
		allocated:  make(chan string, 1),
	}

	session, err := NewSession(serverConn, callbacks)
	require.NoError(t, err)

	go session.Serve(context.Background())

	reader := bufio.NewReader(clientConn)

	send := func(line string) {
		_, err := clientConn.Write([]byte(line + "\n"))
		require.NoError(t, err)
	}
	recvLine := func() string {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		return strings.TrimRight(line, "\r\n")
	}

	send("HMAC")
	hmacLine := recvLine()
	require.True(t, strings.HasPrefix(hmacLine, "200 "))
	challengeHex := strings.TrimPrefix(hmacLine, "200 ")

	send(fmt.Sprintf("CONNECT 77 %s", clientHmac(challengeHex, "my-stream-key")))
	assert.Equal(t, "200", recvLine())

	send("ProtocolVersion: 0.9")
	send("Video: true")
	send("VideoCodec: H264")
	send("VideoHeight: 720")
	send("VideoWidth: 1280")
	send("VideoPayloadType: 96")
	send("VideoIngestSSRC: 1000")
	send(".")

	connectLine := recvLine()
	assert.Equal(t, "200. Use UDP port 9000", connectLine)

	select {
	case ch := <-callbacks.allocated:
		assert.Equal(t, "77", ch)
	default:
		t.Fatal("expected AllocateIngest to have been called")
	}
}

func TestIngestSessionBadHmacClosesConnection(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	callbacks := &fakeCallbacks{streamKeys: map[string]string{"77": "my-stream-key"}}
	session, err := NewSession(serverConn, callbacks)
	require.NoError(t, err)

	go session.Serve(context.Background())

	reader := bufio.NewReader(clientConn)
	_, _ = clientConn.Write([]byte("HMAC\n"))
	hmacLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(hmacLine, "200 "))

	_, _ = clientConn.Write([]byte("CONNECT 77 $deadbeef\n"))
	errLine, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "400 HMAC Decode Error\n", errLine)
}

func TestIngestSessionPingBeforeHmacRejected(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer clientConn.Close()

	callbacks := &fakeCallbacks{}
	session, err := NewSession(serverConn, callbacks)
	require.NoError(t, err)

	go session.Serve(context.Background())

	reader := bufio.NewReader(clientConn)
	_, _ = clientConn.Write([]byte("PING 77\n"))
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "400 Bad Request\n", line)
}
