package realtime

import (
	"context"
	"strings"

	"github.com/go-stomp/stomp/v3/frame"
)

// Params holds the values captured by {name} segments of a route pattern.
type Params map[string]string

// Request is an inbound SEND frame routed to an application handler.
type Request struct {
	Principal   *Principal
	Destination string
	Params      Params
	Header      *frame.Header
	Body        []byte
}

type HandlerFunc func(ctx context.Context, req *Request) error

type route struct {
	segments []string
	handler  HandlerFunc
}

// Router maps /app destinations to handlers. Routes are registered before the
// endpoint starts serving and are read-only afterwards.
type Router struct {
	routes []route
}

func NewRouter() *Router {
	return &Router{}
}

func (r *Router) Handle(pattern string, h HandlerFunc) {
	r.routes = append(r.routes, route{segments: split(pattern), handler: h})
}

func (r *Router) Match(destination string) (HandlerFunc, Params, bool) {
	segs := split(destination)
	for _, rt := range r.routes {
		if params, ok := rt.match(segs); ok {
			return rt.handler, params, true
		}
	}
	return nil, nil, false
}

func (rt route) match(segs []string) (Params, bool) {
	if len(segs) != len(rt.segments) {
		return nil, false
	}
	params := Params{}
	for i, p := range rt.segments {
		if strings.HasPrefix(p, "{") && strings.HasSuffix(p, "}") {
			if segs[i] == "" {
				return nil, false
			}
			params[p[1:len(p)-1]] = segs[i]
			continue
		}
		if p != segs[i] {
			return nil, false
		}
	}
	return params, true
}

func split(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}
