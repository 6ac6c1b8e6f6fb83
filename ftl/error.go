package ftl

// Code names one member of the FTL control-plane error taxonomy. Values are
// stable across implementations of this protocol; see the wire mapping in
// WireMessage.
type Code int

const (
	// CodeDisconnect is a pseudo-error: it marks an orderly close and writes
	// nothing to the wire.
	CodeDisconnect Code = iota
	CodeIoError
	CodeAllocError
	CodeHmacDecodeError
	CodeHmacVerifyError
	CodeMissingPart
	CodeInvalidStreamKey
	CodeChannelNotAuthorized
	CodeChannelInUse
	CodeUnsupportedRegion
	CodeGameBlocked
	CodeInvalidProtocolVersion
	CodeUnsupportedProtocolVersion
	CodeMissingCodecInformation
	CodeUnimplementedCommand
)

// Error is the error type returned by every fallible operation in the ftl
// package. It carries enough information to render the exact wire response
// the FTL control protocol expects.
type Error struct {
	Code Code
	// Err is the underlying cause, if any (e.g. a hex-decode failure). It is
	// never part of the wire response.
	Err error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code.String() + ": " + e.Err.Error()
	}
	return e.Code.String()
}

func (e *Error) Unwrap() error { return e.Err }

func newError(code Code) *Error { return &Error{Code: code} }

func wrapError(code Code, err error) *Error { return &Error{Code: code, Err: err} }

// The New* constructors below let other packages (ingest, signaling) raise
// the same taxonomy of errors this package uses internally, without
// exposing the unexported newError/wrapError helpers.

func NewMissingPart() *Error          { return newError(CodeMissingPart) }
func NewInvalidStreamKey() *Error     { return newError(CodeInvalidStreamKey) }
func NewChannelNotAuthorized() *Error { return newError(CodeChannelNotAuthorized) }
func NewChannelInUse() *Error         { return newError(CodeChannelInUse) }
func NewUnsupportedRegion() *Error    { return newError(CodeUnsupportedRegion) }
func NewGameBlocked() *Error          { return newError(CodeGameBlocked) }
func NewAllocError() *Error           { return newError(CodeAllocError) }
func NewDisconnect() *Error           { return newError(CodeDisconnect) }
func NewUnimplementedCommand() *Error { return newError(CodeUnimplementedCommand) }
func NewIoError(err error) *Error     { return wrapError(CodeIoError, err) }

func (c Code) String() string {
	switch c {
	case CodeDisconnect:
		return "disconnect"
	case CodeIoError:
		return "io error"
	case CodeAllocError:
		return "allocate error"
	case CodeHmacDecodeError:
		return "hmac decode error"
	case CodeHmacVerifyError:
		return "hmac verify error"
	case CodeMissingPart:
		return "missing part"
	case CodeInvalidStreamKey:
		return "invalid stream key"
	case CodeChannelNotAuthorized:
		return "channel not authorized"
	case CodeChannelInUse:
		return "channel in use"
	case CodeUnsupportedRegion:
		return "unsupported region"
	case CodeGameBlocked:
		return "game blocked"
	case CodeInvalidProtocolVersion:
		return "invalid protocol version"
	case CodeUnsupportedProtocolVersion:
		return "unsupported protocol version"
	case CodeMissingCodecInformation:
		return "missing codec information"
	case CodeUnimplementedCommand:
		return "unimplemented command"
	default:
		return "unknown error"
	}
}

// IsErr reports whether the code represents a genuine failure, as opposed to
// CodeDisconnect's orderly close.
func (c Code) IsErr() bool { return c != CodeDisconnect }

// WireMessage renders the LF-terminated control-plane response line for this
// error. CodeDisconnect renders the empty string: it never reaches the wire.
func (e *Error) WireMessage() string {
	switch e.Code {
	case CodeIoError, CodeAllocError:
		return "500 Internal Server Error\n"
	case CodeHmacDecodeError, CodeHmacVerifyError:
		return "400 HMAC Decode Error\n"
	case CodeMissingPart:
		return "400 Bad Request\n"
	case CodeInvalidStreamKey:
		return "405 Invalid stream key\n"
	case CodeChannelNotAuthorized:
		return "401 Channel not authorized to stream\n"
	case CodeChannelInUse:
		return "406 Channel actively streaming\n"
	case CodeUnsupportedRegion:
		return "407 Streaming from your region is not authorized\n"
	case CodeGameBlocked:
		return "409 Channel is not allowed to stream set game\n"
	case CodeInvalidProtocolVersion:
		return "400 Invalid Protocol Version\n"
	case CodeUnsupportedProtocolVersion:
		return "402 Outdated FTL SDK version\n"
	case CodeMissingCodecInformation:
		return "400 Missing Codec Information\n"
	case CodeUnimplementedCommand:
		return "901 Invalid Command\n"
	default:
		return ""
	}
}
