package http

import (
	"net/http"
	"sync/atomic"
)

// Swappable serves whichever handler was stored last. It lets the server
// start degraded and switch to the full API once the database is reachable.
type Swappable struct {
	h atomic.Pointer[http.Handler]
}

func NewSwappable(h http.Handler) *Swappable {
	s := &Swappable{}
	s.Store(h)
	return s
}

func (s *Swappable) Store(h http.Handler) {
	s.h.Store(&h)
}

func (s *Swappable) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	(*s.h.Load()).ServeHTTP(w, r)
}
