package ftl

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"strings"
)

// ChallengeSize is the number of random bytes generated for each HMAC
// challenge, matching the OBS FTL reference implementation.
const ChallengeSize = 128

// GenerateChallenge returns ChallengeSize cryptographically random bytes,
// hex-encoded, suitable for sending as the payload of an HmacResponse.
func GenerateChallenge() (string, error) {
	buf := make([]byte, ChallengeSize)
	if _, err := rand.Read(buf); err != nil {
		return "", wrapError(CodeIoError, err)
	}
	return hex.EncodeToString(buf), nil
}

// VerifyConnect checks a CONNECT command's client HMAC against the stream
// key and the challenge issued earlier in the session.
//
// clientHmacHex is the wire value of CommandConnect.ClientHmacHex: it begins
// with a literal '$' that must be stripped before hex-decoding. The HMAC
// message is the challenge's decoded binary form (ChallengeSize raw bytes),
// not the ASCII hex string itself — OBS clients compute it the same way, and
// this implementation must match to interoperate.
func VerifyConnect(challengeHex, clientHmacHex, streamKey string) error {
	clientHash, ok := strings.CutPrefix(clientHmacHex, "$")
	if !ok {
		return newError(CodeHmacDecodeError)
	}
	clientHashBytes, err := hex.DecodeString(clientHash)
	if err != nil {
		return wrapError(CodeHmacDecodeError, err)
	}

	challengeBytes, err := hex.DecodeString(challengeHex)
	if err != nil {
		return wrapError(CodeHmacDecodeError, err)
	}

	mac := hmac.New(sha512.New, []byte(streamKey))
	mac.Write(challengeBytes)
	expected := mac.Sum(nil)

	if !hmac.Equal(expected, clientHashBytes) {
		return newError(CodeHmacVerifyError)
	}
	return nil
}
