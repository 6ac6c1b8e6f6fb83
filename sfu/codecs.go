package sfu

import (
	"fmt"

	"github.com/pion/webrtc/v4"
)

// videoCodecCapability resolves an FTL codec name to the RTP codec
// capability the router should advertise for it. Parameters match the
// upstream mediasoup-based reference: packetization-mode=0 and
// level-asymmetry-allowed=0, not the packetization-mode=1 baseline common in
// browser-to-browser H264.
func videoCodecCapability(codec string) (webrtc.RTPCodecCapability, error) {
	switch codec {
	case "H264":
		return webrtc.RTPCodecCapability{
			MimeType:    webrtc.MimeTypeH264,
			ClockRate:   90000,
			SDPFmtpLine: "packetization-mode=0;level-asymmetry-allowed=0",
			RTCPFeedback: []webrtc.RTCPFeedback{
				{Type: webrtc.TypeRTCPFBNACK},
				{Type: webrtc.TypeRTCPFBNACK, Parameter: "pli"},
				{Type: webrtc.TypeRTCPFBCCM, Parameter: "fir"},
				{Type: webrtc.TypeRTCPFBGoogREMB},
				{Type: webrtc.TypeRTCPFBTransportCC},
			},
		}, nil
	default:
		return webrtc.RTPCodecCapability{}, fmt.Errorf("sfu: unsupported video codec %q", codec)
	}
}

// audioCodecCapability resolves an FTL audio codec name to its RTP codec
// capability.
func audioCodecCapability(codec string) (webrtc.RTPCodecCapability, error) {
	switch codec {
	case "OPUS":
		return webrtc.RTPCodecCapability{
			MimeType:  webrtc.MimeTypeOpus,
			ClockRate: 48000,
			Channels:  2,
		}, nil
	default:
		return webrtc.RTPCodecCapability{}, fmt.Errorf("sfu: unsupported audio codec %q", codec)
	}
}
