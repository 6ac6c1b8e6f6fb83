// Package ingest drives one FTL publisher's TCP control connection: HMAC
// challenge issuance, CONNECT verification, handshake attribute
// accumulation, and triggering media pipeline allocation on the final ".".
package ingest

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log"
	"net"
	"sync"

	"github.com/n0remac/ftlsignal/ftl"
	"github.com/n0remac/ftlsignal/host"
)

// state names the session's position in the handshake state machine.
type state int

const (
	stateAwaitingHmac state = iota
	stateChallengeIssued
	stateAuthenticated
	stateStreaming
)

// Session owns one publisher's TCP connection for its entire lifetime.
type Session struct {
	conn      net.Conn
	callbacks host.Callbacks

	state     state
	challenge string
	channelID string
	handshake *ftl.Handshake

	stopOnce sync.Once
	stop     chan struct{}
}

// NewSession wraps conn, generating this session's HMAC challenge up front
// exactly as the reference implementation does (one challenge per accepted
// connection, before any bytes are read).
func NewSession(conn net.Conn, callbacks host.Callbacks) (*Session, error) {
	challenge, err := ftl.GenerateChallenge()
	if err != nil {
		return nil, err
	}
	return &Session{
		conn:      conn,
		callbacks: callbacks,
		state:     stateAwaitingHmac,
		challenge: challenge,
		handshake: ftl.NewHandshake(),
		stop:      make(chan struct{}),
	}, nil
}

// Stop signals this session's pipeline (if any) to tear down. Safe to call
// more than once and from any goroutine.
func (s *Session) Stop() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// StopSignal is observed by the media pipeline this session allocates.
func (s *Session) StopSignal() <-chan struct{} { return s.stop }

// Serve reads control-plane lines until the connection closes or a fatal
// protocol error occurs. It never returns an error the caller must act
// on — every fatal condition has already been written to the wire and the
// connection closed.
func (s *Session) Serve(ctx context.Context) {
	defer s.Stop()
	defer s.conn.Close()

	reader := bufio.NewReader(s.conn)
	var line []byte

	for {
		b, err := reader.ReadByte()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("[FTL] read error: %v", err)
			}
			return
		}

		switch b {
		case '\r':
			continue
		case '\n':
			if len(line) == 0 {
				continue
			}
			text := string(line)
			line = line[:0]

			cmd, err := ftl.ParseCommand(text)
			if err != nil {
				s.writeError(err)
				return
			}

			if err := s.handle(ctx, cmd); err != nil {
				var ftlErr *ftl.Error
				if errors.As(err, &ftlErr) && ftlErr.Code.IsErr() {
					log.Printf("[FTL] command failed: %v", err)
				}
				s.writeError(err)
				return
			}
		default:
			line = append(line, b)
		}
	}
}

func (s *Session) writeError(err error) {
	var ftlErr *ftl.Error
	if !errors.As(err, &ftlErr) {
		ftlErr = &ftl.Error{Code: ftl.CodeIoError, Err: err}
	}
	msg := ftlErr.WireMessage()
	if msg == "" {
		return
	}
	_, _ = io.WriteString(s.conn, msg)
}

// handle dispatches one parsed command per the state machine in the FTL
// control session design.
func (s *Session) handle(ctx context.Context, cmd ftl.Command) error {
	switch cmd.Kind {
	case ftl.CommandHmac:
		if s.state != stateAwaitingHmac {
			return ftl.NewMissingPart()
		}
		s.state = stateChallengeIssued
		return s.write(ftl.HmacResponse(s.challenge))

	case ftl.CommandConnect:
		if s.state != stateChallengeIssued {
			return ftl.NewMissingPart()
		}
		streamKey, err := s.callbacks.GetStreamKey(ctx, cmd.ChannelID)
		if err != nil {
			var ftlErr *ftl.Error
			if errors.As(err, &ftlErr) {
				return ftlErr
			}
			return ftl.NewInvalidStreamKey()
		}
		if err := ftl.VerifyConnect(s.challenge, cmd.ClientHmacHex, streamKey); err != nil {
			return err
		}
		s.channelID = cmd.ChannelID
		s.state = stateAuthenticated
		return s.write(ftl.SuccessResponse())

	case ftl.CommandAttribute:
		if s.state != stateAuthenticated {
			return ftl.NewMissingPart()
		}
		return s.handshake.Insert(cmd.Key, cmd.Value)

	case ftl.CommandDot:
		if s.state != stateAuthenticated || s.channelID == "" {
			return ftl.NewInvalidStreamKey()
		}
		final, err := s.handshake.Finalize()
		if err != nil {
			return err
		}
		port, err := s.callbacks.AllocateIngest(ctx, s.channelID, final, s.stop)
		if err != nil {
			var ftlErr *ftl.Error
			if errors.As(err, &ftlErr) {
				return ftlErr
			}
			return ftl.NewAllocError()
		}
		s.state = stateStreaming
		return s.write(ftl.ConnectResponse(port))

	case ftl.CommandPing:
		if s.state == stateAwaitingHmac {
			return ftl.NewMissingPart()
		}
		return s.write(ftl.PongResponse())

	case ftl.CommandDisconnect:
		return ftl.NewDisconnect()

	default:
		return ftl.NewUnimplementedCommand()
	}
}

func (s *Session) write(resp ftl.Response) error {
	_, err := io.WriteString(s.conn, resp.String())
	if err != nil {
		return ftl.NewIoError(err)
	}
	return nil
}
