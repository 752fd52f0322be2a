package server

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	cerrors "github.com/cohis-dev/cohis/internal/errors"
	"github.com/cohis-dev/cohis/pkg/dom"
	"github.com/cohis-dev/cohis/pkg/middleware"
	"github.com/cohis-dev/cohis/pkg/overlay"
	"github.com/cohis-dev/cohis/pkg/protocol"
)

// ErrSessionClosed is returned when queueing output on a closed session.
var ErrSessionClosed = errors.New("server: session closed")

// Session is one live WebSocket connection and the widgets it drives.
type Session struct {
	ID string

	conn    *websocket.Conn
	layer   *overlay.Layer
	limiter *rate.Limiter
	config  SessionConfig

	// pending collects updates emitted while one event is handled.
	pending []overlay.Update

	send      chan []byte
	done      chan struct{}
	writeDone chan struct{}
	closeOnce sync.Once

	metrics *middleware.Metrics
	logger  *slog.Logger
}

func newSession(conn *websocket.Conn, config SessionConfig, overlayConfig overlay.Config, metrics *middleware.Metrics, logger *slog.Logger) *Session {
	id := uuid.NewString()
	limit := rate.Inf
	if config.EventsPerSecond > 0 {
		limit = rate.Limit(config.EventsPerSecond)
	}
	s := &Session{
		ID:        id,
		conn:      conn,
		limiter:   rate.NewLimiter(limit, config.Burst),
		config:    config,
		send:      make(chan []byte, config.SendBuffer),
		done:      make(chan struct{}),
		writeDone: make(chan struct{}),
		metrics:   metrics,
		logger:    logger.With("session_id", id),
	}
	s.layer = overlay.NewLayer(dom.NewDocument(), s.emit,
		overlay.WithConfig(overlayConfig),
		overlay.WithLogger(s.logger),
	)
	return s
}

// Layer returns the session's widget layer. It must only be used from the
// read loop or before the loops start.
func (s *Session) Layer() *overlay.Layer {
	return s.layer
}

// Done is closed when the session starts shutting down.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

// Close shuts the session down. The write loop closes the connection, which
// ends the read loop. Safe to call more than once.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.done)
	})
}

// ReadLoop reads frames until the connection fails or the session closes.
// The layer is closed when it returns.
func (s *Session) ReadLoop() {
	defer s.layer.Close()
	defer s.Close()

	s.conn.SetReadLimit(s.config.MaxMessageSize)
	for {
		s.conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))

		mt, msg, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
				s.metrics.RecordWebSocketError("read")
			}
			return
		}
		if mt != websocket.BinaryMessage {
			s.reject(protocol.ErrInvalidFrame, cerrors.New("E140").WithDetail("text messages are not accepted"))
			continue
		}

		frame, err := protocol.DecodeFrame(msg)
		if err != nil {
			s.reject(protocol.ErrInvalidFrame, cerrors.New("E140").Wrap(err))
			continue
		}

		switch frame.Type {
		case protocol.FrameEvent:
			s.handleEventFrame(frame.Payload)
		case protocol.FrameControl:
			s.handleControlFrame(frame.Payload)
		default:
			s.logger.Warn("unexpected frame type", "type", frame.Type)
			s.reject(protocol.ErrInvalidFrame, cerrors.New("E140").WithDetail("unexpected frame type "+frame.Type.String()))
		}
	}
}

// handleEventFrame decodes one event and applies it to the layer.
func (s *Session) handleEventFrame(payload []byte) {
	ev, err := protocol.DecodeEvent(payload)
	if err != nil {
		s.reject(protocol.ErrInvalidEvent, cerrors.New("E140").Wrap(err))
		return
	}
	if ev.Type == protocol.EventPointer && !s.limiter.Allow() {
		s.logger.Warn("pointer event dropped", "seq", ev.Seq)
		s.reject(protocol.ErrRateLimited, cerrors.New("E142"))
		return
	}

	s.metrics.RecordEvent(ev.Type.String())
	s.logger.Debug("event", "seq", ev.Seq, "type", ev.Type, "target", ev.Target)

	if err := s.dispatch(ev); err != nil {
		switch {
		case errors.Is(err, overlay.ErrUnknownWidget):
			s.reject(protocol.ErrUnknownWidget, cerrors.New("E141").WithSource(ev.Target).Wrap(err))
		case errors.Is(err, overlay.ErrUnsupportedAction):
			s.reject(protocol.ErrInvalidEvent, cerrors.New("E140").WithSource(ev.Target).Wrap(err))
		default:
			s.logger.Error("event failed", "seq", ev.Seq, "error", err)
			s.reject(protocol.ErrServerError, err)
		}
	}
	s.flush()
}

func (s *Session) dispatch(ev *protocol.Event) error {
	switch ev.Type {
	case protocol.EventMount:
		s.layer.Mount(ev.Target, ev.Parent)
	case protocol.EventUnmount:
		s.layer.Unmount(ev.Target)
	case protocol.EventLayout:
		s.layer.Layout(ev.Target, ev.Rect)
	case protocol.EventViewport:
		s.layer.Resize(ev.Viewport)
	case protocol.EventPointer:
		s.layer.Pointer(dom.PointerEvent{TargetID: ev.Target, ClientX: ev.X, ClientY: ev.Y})
	case protocol.EventActivate:
		return s.layer.Activate(ev.Target)
	case protocol.EventEnter:
		return s.layer.Enter(ev.Target)
	case protocol.EventLeave:
		return s.layer.Leave(ev.Target)
	case protocol.EventConfirm:
		return s.layer.Confirm(ev.Target)
	case protocol.EventCancel:
		return s.layer.Cancel(ev.Target)
	}
	return nil
}

// handleControlFrame answers pings. Pongs only refresh the read deadline,
// which every message already does.
func (s *Session) handleControlFrame(payload []byte) {
	c, err := protocol.DecodeControl(payload)
	if err != nil {
		s.reject(protocol.ErrInvalidFrame, cerrors.New("E140").Wrap(err))
		return
	}
	if c.Type == protocol.ControlPing {
		pong := protocol.EncodeControl(protocol.Control{Type: protocol.ControlPong, Timestamp: c.Timestamp})
		s.queueFrame(protocol.NewFrame(protocol.FrameControl, pong))
	}
}

// emit is the layer's update sink.
func (s *Session) emit(u overlay.Update) {
	s.pending = append(s.pending, u)
}

// flush sends the updates collected since the last flush, marking the last
// one final.
func (s *Session) flush() {
	n := len(s.pending)
	for i, u := range s.pending {
		frame := protocol.NewFrame(protocol.FrameUpdate, protocol.EncodeUpdate(u))
		if i == n-1 {
			frame.Flags |= protocol.FlagFinal
		}
		if err := s.queueFrame(frame); err != nil {
			break
		}
		s.metrics.RecordUpdate(u.Kind.String())
	}
	s.pending = s.pending[:0]
}

// reject sends a non-fatal error frame.
func (s *Session) reject(code protocol.ErrorCode, err error) {
	s.metrics.RecordEventError(code.String())
	s.logger.Debug("event rejected", "code", code, "error", err)
	payload := protocol.EncodeErrorMessage(protocol.NewError(code, err.Error()))
	s.queueFrame(protocol.NewFrame(protocol.FrameError, payload))
}

// fail sends a fatal error frame and closes the session.
func (s *Session) fail(code protocol.ErrorCode, err error) {
	payload := protocol.EncodeErrorMessage(protocol.NewFatalError(code, err.Error()))
	s.queueFrame(protocol.NewFrame(protocol.FrameError, payload))
	s.Close()
}

// queueFrame hands a frame to the write loop. A full queue means the client
// is not keeping up, and the session is closed.
func (s *Session) queueFrame(f *protocol.Frame) error {
	data, err := f.Encode()
	if err != nil {
		s.logger.Error("frame encode error", "type", f.Type, "error", err)
		return err
	}
	select {
	case <-s.done:
		return ErrSessionClosed
	default:
	}
	select {
	case s.send <- data:
		return nil
	default:
		s.logger.Warn("send buffer full, closing session", "buffer", cap(s.send))
		s.metrics.RecordWebSocketError("send_overflow")
		s.Close()
		return ErrSessionClosed
	}
}

// WriteLoop drains the outbound queue and sends heartbeat pings. It owns the
// connection and closes it on exit.
func (s *Session) WriteLoop() {
	ticker := time.NewTicker(s.config.PingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
		close(s.writeDone)
	}()

	for {
		select {
		case data := <-s.send:
			if err := s.write(websocket.BinaryMessage, data); err != nil {
				s.logger.Error("write error", "error", err)
				s.metrics.RecordWebSocketError("write")
				s.Close()
				return
			}

		case <-ticker.C:
			ping := protocol.EncodeControl(protocol.Control{
				Type:      protocol.ControlPing,
				Timestamp: uint64(time.Now().UnixMilli()),
			})
			data, _ := protocol.NewFrame(protocol.FrameControl, ping).Encode()
			if err := s.write(websocket.BinaryMessage, data); err != nil {
				s.logger.Error("ping error", "error", err)
				s.Close()
				return
			}

		case <-s.done:
			s.drain()
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = s.write(websocket.CloseMessage, msg)
			return
		}
	}
}

// drain flushes frames that were queued before the session closed, such as
// a fatal error.
func (s *Session) drain() {
	for {
		select {
		case data := <-s.send:
			if s.write(websocket.BinaryMessage, data) != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *Session) write(messageType int, data []byte) error {
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	return s.conn.WriteMessage(messageType, data)
}
