package ftl

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		line string
		want Command
	}{
		{"HMAC", Command{Kind: CommandHmac}},
		{".", Command{Kind: CommandDot}},
		{"DISCONNECT", Command{Kind: CommandDisconnect}},
		{"PING 77", Command{Kind: CommandPing, ChannelID: "77"}},
		{"CONNECT 77 $abcd", Command{Kind: CommandConnect, ChannelID: "77", ClientHmacHex: "$abcd"}},
		{"ProtocolVersion: 0.9", Command{Kind: CommandAttribute, Key: "ProtocolVersion", Value: "0.9"}},
		{"VendorName: OBS", Command{Kind: CommandAttribute, Key: "VendorName", Value: "OBS"}},
	}
	for _, c := range cases {
		got, err := ParseCommand(c.line)
		require.NoError(t, err, c.line)
		assert.Equal(t, c.want, got, c.line)
	}
}

func TestParseCommandConnectExtraTokensIgnored(t *testing.T) {
	got, err := ParseCommand("CONNECT 77 $abcd extra tokens here")
	require.NoError(t, err)
	assert.Equal(t, "77", got.ChannelID)
	assert.Equal(t, "$abcd", got.ClientHmacHex)
}

func TestParseCommandConnectMissingPart(t *testing.T) {
	_, err := ParseCommand("CONNECT 77")
	require.Error(t, err)
	assert.Equal(t, CodeMissingPart, err.(*Error).Code)
}

func TestParseCommandAttributeMissingPart(t *testing.T) {
	_, err := ParseCommand("Key:")
	require.Error(t, err)
	assert.Equal(t, CodeMissingPart, err.(*Error).Code)
}

func TestParseCommandUnimplemented(t *testing.T) {
	_, err := ParseCommand("GARBAGE")
	require.Error(t, err)
	assert.Equal(t, CodeUnimplementedCommand, err.(*Error).Code)
}

func TestResponseString(t *testing.T) {
	assert.Equal(t, "200 abcd\n", HmacResponse("abcd").String())
	assert.Equal(t, "200\n", SuccessResponse().String())
	assert.Equal(t, "200. Use UDP port 9000\n", ConnectResponse(9000).String())
	assert.Equal(t, "201\n", PongResponse().String())
}

func TestErrorWireMessage(t *testing.T) {
	assert.Equal(t, "", newError(CodeDisconnect).WireMessage())
	assert.Equal(t, "400 HMAC Decode Error\n", newError(CodeHmacDecodeError).WireMessage())
	assert.Equal(t, "901 Invalid Command\n", newError(CodeUnimplementedCommand).WireMessage())
}

func TestHandshakeFinalizeVideoAndAudio(t *testing.T) {
	h := NewHandshake()
	require.NoError(t, h.Insert("ProtocolVersion", "0.9"))
	require.NoError(t, h.Insert("VendorName", "OBS"))
	require.NoError(t, h.Insert("VendorVersion", "30.0"))
	require.NoError(t, h.Insert("Video", "true"))
	require.NoError(t, h.Insert("VideoCodec", "H264"))
	require.NoError(t, h.Insert("VideoHeight", "1080"))
	require.NoError(t, h.Insert("VideoWidth", "1920"))
	require.NoError(t, h.Insert("VideoPayloadType", "96"))
	require.NoError(t, h.Insert("VideoIngestSSRC", "1234"))
	require.NoError(t, h.Insert("Audio", "true"))
	require.NoError(t, h.Insert("AudioCodec", "OPUS"))
	require.NoError(t, h.Insert("AudioPayloadType", "97"))
	require.NoError(t, h.Insert("AudioIngestSSRC", "5678"))

	final, err := h.Finalize()
	require.NoError(t, err)
	assert.Equal(t, ProtocolVersion{Major: 0, Minor: 9}, final.ProtocolVersion)
	assert.Equal(t, "OBS", final.Vendor.Name)
	require.NotNil(t, final.Video)
	assert.Equal(t, "H264", final.Video.Codec)
	assert.EqualValues(t, 96, final.Video.PayloadType)
	require.NotNil(t, final.Audio)
	assert.Equal(t, "OPUS", final.Audio.Codec)
}

func TestHandshakeFinalizeMissingProtocolVersion(t *testing.T) {
	h := NewHandshake()
	require.NoError(t, h.Insert("VendorName", "OBS"))
	_, err := h.Finalize()
	require.Error(t, err)
	assert.Equal(t, CodeInvalidProtocolVersion, err.(*Error).Code)
}

func TestHandshakeFinalizeUnsupportedVersion(t *testing.T) {
	h := NewHandshake()
	require.NoError(t, h.Insert("ProtocolVersion", "1.0"))
	_, err := h.Finalize()
	require.Error(t, err)
	assert.Equal(t, CodeUnsupportedProtocolVersion, err.(*Error).Code)
}

func TestHandshakeFinalizeIncompleteVideo(t *testing.T) {
	h := NewHandshake()
	require.NoError(t, h.Insert("ProtocolVersion", "0.9"))
	require.NoError(t, h.Insert("Video", "true"))
	require.NoError(t, h.Insert("VideoCodec", "H264"))
	_, err := h.Finalize()
	require.Error(t, err)
	assert.Equal(t, CodeMissingCodecInformation, err.(*Error).Code)
}

func TestHandshakeInsertIgnoresAttributeBeforeEnable(t *testing.T) {
	h := NewHandshake()
	require.NoError(t, h.Insert("VideoCodec", "H264"))
	assert.Nil(t, h.Video)
}

func TestHandshakeInsertUnknownKeyIgnored(t *testing.T) {
	h := NewHandshake()
	require.NoError(t, h.Insert("SomeFutureVendorAttribute", "whatever"))
}

func TestGenerateChallengeLength(t *testing.T) {
	challenge, err := GenerateChallenge()
	require.NoError(t, err)
	decoded, err := hex.DecodeString(challenge)
	require.NoError(t, err)
	assert.Len(t, decoded, ChallengeSize)
}

func TestVerifyConnectRoundTrip(t *testing.T) {
	const streamKey = "super-secret-stream-key"

	challengeHex, err := GenerateChallenge()
	require.NoError(t, err)

	challengeBytes, err := hex.DecodeString(challengeHex)
	require.NoError(t, err)

	mac := hmac.New(sha512.New, []byte(streamKey))
	mac.Write(challengeBytes)
	clientHashHex := hex.EncodeToString(mac.Sum(nil))

	err = VerifyConnect(challengeHex, "$"+clientHashHex, streamKey)
	assert.NoError(t, err)
}

func TestVerifyConnectWrongKeyFails(t *testing.T) {
	challengeHex, err := GenerateChallenge()
	require.NoError(t, err)
	challengeBytes, _ := hex.DecodeString(challengeHex)

	mac := hmac.New(sha512.New, []byte("wrong-key"))
	mac.Write(challengeBytes)
	clientHashHex := hex.EncodeToString(mac.Sum(nil))

	err = VerifyConnect(challengeHex, "$"+clientHashHex, "correct-key")
	require.Error(t, err)
	assert.Equal(t, CodeHmacVerifyError, err.(*Error).Code)
}

func TestVerifyConnectMissingDollarSign(t *testing.T) {
	challengeHex, err := GenerateChallenge()
	require.NoError(t, err)
	err = VerifyConnect(challengeHex, "abcd", "key")
	require.Error(t, err)
	assert.Equal(t, CodeHmacDecodeError, err.(*Error).Code)
}

func TestVerifyConnectMalformedHex(t *testing.T) {
	challengeHex, err := GenerateChallenge()
	require.NoError(t, err)
	err = VerifyConnect(challengeHex, "$not-hex", "key")
	require.Error(t, err)
	assert.Equal(t, CodeHmacDecodeError, err.(*Error).Code)
}
