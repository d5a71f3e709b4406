package realtime

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/shinyyama/localbid-backend/internal/apperr"
	"github.com/shinyyama/localbid-backend/internal/reqctx"
	"golang.org/x/time/rate"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBuffer     = 64

	topicPrefix = "/topic/"
	appPrefix   = "/app/"
)

var errSessionClosed = errors.New("realtime: session closed")

// Session is one STOMP connection. Only the read pump touches principal,
// connected and subs; the write pump is the only writer on conn.
type Session struct {
	id       string
	conn     *websocket.Conn
	endpoint *Endpoint
	limiter  *rate.Limiter

	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once

	principal *Principal
	connected bool
	subs      map[string]string // subscription id -> destination
}

func newSession(conn *websocket.Conn, e *Endpoint) *Session {
	return &Session{
		id:       uuid.NewString(),
		conn:     conn,
		endpoint: e,
		limiter:  rate.NewLimiter(e.opts.SendRate, e.opts.SendBurst),
		send:     make(chan []byte, sendBuffer),
		done:     make(chan struct{}),
		subs:     make(map[string]string),
	}
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// writeFrame queues f for the write pump. It never blocks: a full buffer drops
// the frame.
func (s *Session) writeFrame(f *frame.Frame) error {
	var buf bytes.Buffer
	if err := frame.NewWriter(&buf).Write(f); err != nil {
		return err
	}
	select {
	case <-s.done:
		return errSessionClosed
	default:
	}
	select {
	case s.send <- buf.Bytes():
		return nil
	case <-s.done:
		return errSessionClosed
	default:
		return errors.New("realtime: send buffer full")
	}
}

func (s *Session) ReadPump(ctx context.Context) {
	log := slog.With("session_id", s.id)
	defer func() {
		s.endpoint.broker.removeSession(s, s.destinations())
		s.close()
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				log.Warn("realtime read failed", "error", err)
			}
			return
		}
		f, err := frame.NewReader(bytes.NewReader(data)).Read()
		if err != nil {
			s.sendError(nil, "malformed frame")
			continue
		}
		if f == nil {
			// heart-beat
			continue
		}

		s.principal = BindIdentity(f.Header, s.principal)

		if !s.handle(ctx, f) {
			return
		}
	}
}

// handle processes one frame and reports whether the connection stays open.
func (s *Session) handle(ctx context.Context, f *frame.Frame) bool {
	switch f.Command {
	case frame.CONNECT, frame.STOMP:
		s.connected = true
		_ = s.writeFrame(frame.New(frame.CONNECTED,
			frame.Version, "1.2",
			frame.HeartBeat, "0,0",
			frame.Session, s.id,
			frame.Server, "localbid",
		))
		return true
	case frame.DISCONNECT:
		s.receipt(f)
		return false
	}

	if !s.connected {
		s.sendError(f, "not connected")
		return true
	}

	switch f.Command {
	case frame.SUBSCRIBE:
		s.subscribe(f)
	case frame.UNSUBSCRIBE:
		s.unsubscribe(f)
	case frame.SEND:
		s.dispatch(ctx, f)
	default:
		s.sendError(f, "unsupported command "+f.Command)
	}
	return true
}

func (s *Session) subscribe(f *frame.Frame) {
	dest := f.Header.Get(frame.Destination)
	subID := f.Header.Get(frame.Id)
	if subID == "" {
		s.sendError(f, "subscription id is required")
		return
	}
	if !strings.HasPrefix(dest, topicPrefix) {
		s.sendError(f, "cannot subscribe to "+dest)
		return
	}
	if old, ok := s.subs[subID]; ok && old != dest {
		s.endpoint.broker.unsubscribe(s, old)
	}
	for id, d := range s.subs {
		if d == dest {
			delete(s.subs, id)
		}
	}
	s.subs[subID] = dest
	s.endpoint.broker.subscribe(s, subID, dest)
	s.receipt(f)
}

func (s *Session) unsubscribe(f *frame.Frame) {
	subID := f.Header.Get(frame.Id)
	dest, ok := s.subs[subID]
	if !ok {
		s.sendError(f, "unknown subscription "+subID)
		return
	}
	delete(s.subs, subID)
	s.endpoint.broker.unsubscribe(s, dest)
	s.receipt(f)
}

func (s *Session) dispatch(ctx context.Context, f *frame.Frame) {
	if !s.limiter.Allow() {
		s.sendError(f, "rate limit exceeded")
		return
	}
	dest := f.Header.Get(frame.Destination)
	if !strings.HasPrefix(dest, appPrefix) {
		s.sendError(f, "cannot send to "+dest)
		return
	}
	h, params, ok := s.endpoint.router.Match(dest)
	if !ok {
		s.sendError(f, "no handler for "+dest)
		return
	}
	hctx := reqctx.WithRequestID(ctx, uuid.NewString())
	if uid, ok := s.principal.UserID(); ok {
		hctx = reqctx.WithUserID(hctx, uid)
	}
	err := h(hctx, &Request{
		Principal:   s.principal,
		Destination: dest,
		Params:      params,
		Header:      f.Header,
		Body:        f.Body,
	})
	if err != nil {
		ae := apperr.From(err)
		if ae.Code == apperr.CodeInternal {
			slog.ErrorContext(hctx, "realtime handler failed", "session_id", s.id, "destination", dest, "error", err)
		}
		s.sendError(f, ae.Message)
		return
	}
	s.receipt(f)
}

func (s *Session) receipt(f *frame.Frame) {
	id, ok := f.Header.Contains(frame.Receipt)
	if !ok {
		return
	}
	_ = s.writeFrame(frame.New(frame.RECEIPT, frame.ReceiptId, id))
}

// sendError reports a failure with an ERROR frame and keeps the connection open.
func (s *Session) sendError(f *frame.Frame, message string) {
	e := frame.New(frame.ERROR, frame.Message, message)
	if f != nil {
		if id, ok := f.Header.Contains(frame.Receipt); ok {
			e.Header.Add(frame.ReceiptId, id)
		}
	}
	_ = s.writeFrame(e)
}

func (s *Session) destinations() []string {
	out := make([]string, 0, len(s.subs))
	for _, d := range s.subs {
		out = append(out, d)
	}
	return out
}

func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = s.conn.Close()
	}()

	for {
		select {
		case msg := <-s.send:
			if err := s.write(websocket.TextMessage, msg); err != nil {
				s.close()
				return
			}
		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				s.close()
				return
			}
		case <-s.done:
			s.flush()
			_ = s.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes whatever is still queued, such as a final RECEIPT.
func (s *Session) flush() {
	for {
		select {
		case msg := <-s.send:
			if err := s.write(websocket.TextMessage, msg); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (s *Session) write(messageType int, data []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(messageType, data)
}
