package ftl

import (
	"strconv"
	"strings"
)

// Vendor identifies the publisher's client software. Both fields are
// optional throughout the handshake's lifetime.
type Vendor struct {
	Name    string
	Version string
}

// PartialVideo accumulates video attributes during handshake negotiation.
// Fields are pointers so "unset" is distinguishable from the zero value.
type PartialVideo struct {
	Codec       *string
	Height      *int
	Width       *int
	PayloadType *uint8
	SSRC        *uint32
}

// PartialAudio accumulates audio attributes during handshake negotiation.
type PartialAudio struct {
	Codec       *string
	PayloadType *uint8
	SSRC        *uint32
}

// ProtocolVersion is a (major, minor) pair, e.g. (0, 9).
type ProtocolVersion struct {
	Major int
	Minor int
}

// Handshake accumulates FTL attribute key/value pairs. All fields are
// optional until Finalize succeeds.
type Handshake struct {
	ProtocolVersion *ProtocolVersion
	Vendor          Vendor
	Video           *PartialVideo
	Audio           *PartialAudio
}

// NewHandshake returns an empty accumulator ready for Insert calls.
func NewHandshake() *Handshake { return &Handshake{} }

// Insert applies one FTL attribute to the handshake being accumulated.
// Unknown keys are silently ignored (forward-compatible with unknown vendor
// attributes); keys for a substructure the publisher never enabled (e.g.
// VideoCodec before Video: true) are also silently ignored.
func (h *Handshake) Insert(key, value string) error {
	switch key {
	case "ProtocolVersion":
		major, minor, err := parseProtocolVersion(value)
		if err != nil {
			return wrapError(CodeInvalidProtocolVersion, err)
		}
		h.ProtocolVersion = &ProtocolVersion{Major: major, Minor: minor}

	case "VendorName":
		h.Vendor.Name = value
	case "VendorVersion":
		h.Vendor.Version = value

	case "Video":
		switch value {
		case "true":
			h.Video = &PartialVideo{}
		case "false":
			// no-op
		default:
			return newError(CodeMissingPart)
		}
	case "Audio":
		switch value {
		case "true":
			h.Audio = &PartialAudio{}
		case "false":
			// no-op
		default:
			return newError(CodeMissingPart)
		}

	case "VideoCodec":
		if h.Video != nil {
			h.Video.Codec = &value
		}
	case "VideoHeight":
		if h.Video != nil {
			n, err := strconv.Atoi(value)
			if err != nil {
				return newError(CodeMissingPart)
			}
			h.Video.Height = &n
		}
	case "VideoWidth":
		if h.Video != nil {
			n, err := strconv.Atoi(value)
			if err != nil {
				return newError(CodeMissingPart)
			}
			h.Video.Width = &n
		}
	case "VideoPayloadType":
		if h.Video != nil {
			pt, err := parsePayloadType(value)
			if err != nil {
				return newError(CodeMissingPart)
			}
			h.Video.PayloadType = &pt
		}
	case "VideoIngestSSRC":
		if h.Video != nil {
			ssrc, err := parseSSRC(value)
			if err != nil {
				return newError(CodeMissingPart)
			}
			h.Video.SSRC = &ssrc
		}

	case "AudioCodec":
		if h.Audio != nil {
			h.Audio.Codec = &value
		}
	case "AudioPayloadType":
		if h.Audio != nil {
			pt, err := parsePayloadType(value)
			if err != nil {
				return newError(CodeMissingPart)
			}
			h.Audio.PayloadType = &pt
		}
	case "AudioIngestSSRC":
		if h.Audio != nil {
			ssrc, err := parseSSRC(value)
			if err != nil {
				return newError(CodeMissingPart)
			}
			h.Audio.SSRC = &ssrc
		}

	default:
		// forward-compatible: unknown vendor attributes are ignored.
	}

	return nil
}

func parseProtocolVersion(value string) (major, minor int, err error) {
	parts := strings.SplitN(value, ".", 2)
	if len(parts) != 2 {
		return 0, 0, strconv.ErrSyntax
	}
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	minor, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return major, minor, nil
}

func parsePayloadType(value string) (uint8, error) {
	n, err := strconv.ParseUint(value, 10, 8)
	if err != nil {
		return 0, err
	}
	return uint8(n), nil
}

func parseSSRC(value string) (uint32, error) {
	n, err := strconv.ParseUint(value, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(n), nil
}

// KnownVideo is the validated video substructure of a FinalHandshake.
type KnownVideo struct {
	Codec       string
	Height      int
	Width       int
	PayloadType uint8
	SSRC        uint32
}

// KnownAudio is the validated audio substructure of a FinalHandshake.
type KnownAudio struct {
	Codec       string
	PayloadType uint8
	SSRC        uint32
}

// FinalHandshake is the result of successfully validating a Handshake.
type FinalHandshake struct {
	ProtocolVersion ProtocolVersion
	Vendor          Vendor
	Video           *KnownVideo
	Audio           *KnownAudio
}

// SupportedMajor and SupportedMinor are the only protocol version this
// implementation accepts, per the FTL wire protocol.
const (
	SupportedMajor = 0
	SupportedMinor = 9
)

// Finalize validates the accumulated handshake and produces a
// FinalHandshake, or an error naming the first violated invariant.
func (h *Handshake) Finalize() (FinalHandshake, error) {
	if h.ProtocolVersion == nil {
		return FinalHandshake{}, newError(CodeInvalidProtocolVersion)
	}
	if h.ProtocolVersion.Major != SupportedMajor || h.ProtocolVersion.Minor != SupportedMinor {
		return FinalHandshake{}, newError(CodeUnsupportedProtocolVersion)
	}

	final := FinalHandshake{
		ProtocolVersion: *h.ProtocolVersion,
		Vendor:          h.Vendor,
	}

	if h.Video != nil {
		v := h.Video
		if v.Codec == nil || v.Height == nil || v.Width == nil || v.PayloadType == nil || v.SSRC == nil {
			return FinalHandshake{}, newError(CodeMissingCodecInformation)
		}
		final.Video = &KnownVideo{
			Codec:       *v.Codec,
			Height:      *v.Height,
			Width:       *v.Width,
			PayloadType: *v.PayloadType,
			SSRC:        *v.SSRC,
		}
	}

	if h.Audio != nil {
		a := h.Audio
		if a.Codec == nil || a.PayloadType == nil || a.SSRC == nil {
			return FinalHandshake{}, newError(CodeMissingCodecInformation)
		}
		final.Audio = &KnownAudio{
			Codec:       *a.Codec,
			PayloadType: *a.PayloadType,
			SSRC:        *a.SSRC,
		}
	}

	return final, nil
}
