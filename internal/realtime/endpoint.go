package realtime

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"
)

type Options struct {
	// SendRate and SendBurst throttle SEND frames per connection.
	SendRate  rate.Limit
	SendBurst int
	// CheckOrigin defaults to accepting every origin.
	CheckOrigin func(r *http.Request) bool
}

// Endpoint upgrades HTTP requests to STOMP-over-WebSocket sessions.
type Endpoint struct {
	broker   *Broker
	router   *Router
	opts     Options
	upgrader websocket.Upgrader
}

func NewEndpoint(broker *Broker, router *Router, opts Options) *Endpoint {
	if opts.SendRate <= 0 {
		opts.SendRate = 10
	}
	if opts.SendBurst <= 0 {
		opts.SendBurst = 20
	}
	checkOrigin := opts.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}
	return &Endpoint{
		broker: broker,
		router: router,
		opts:   opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			Subprotocols:    []string{"v12.stomp", "v11.stomp", "v10.stomp"},
			CheckOrigin:     checkOrigin,
		},
	}
}

func (e *Endpoint) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := e.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		slog.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}
	ctx, cancel := context.WithCancel(context.WithoutCancel(r.Context()))
	defer cancel()

	s := newSession(conn, e)
	slog.InfoContext(ctx, "realtime session opened", "session_id", s.id, "remote", r.RemoteAddr)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.WritePump()
	}()
	s.ReadPump(ctx)
	<-writerDone

	slog.InfoContext(ctx, "realtime session closed", "session_id", s.id, "principal", s.principal.Name())
}
