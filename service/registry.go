package service

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// deliveryBuffer bounds how many undelivered results a single request can
// hold before the loop starts dropping them. The dispatch loop must never
// block on a caller that stopped receiving.
const deliveryBuffer = 16

// Registry correlates reply frames with in-flight requests so one
// connection can carry many concurrent outstanding requests.
//
// The id-to-channel map is touched only by the dispatch loop goroutine
// (Drain and Deliver run there). Foreground callers add entries through
// the registration queue, never the map, and the enqueue in Issue happens
// strictly before the caller writes the request frame. Since the service
// cannot reply before it has received that frame, a registration is
// always visible to Drain before the matching reply can arrive.
//
// Entries are never removed while the registry lives; a request that
// yields many results keeps its channel until Close. This mirrors the
// daemons' own client libraries and is a known growth limitation.
type Registry[T any] struct {
	mu     sync.Mutex
	queue  []registration[T]
	nextID uint32
	closed bool

	// handles is owned by the dispatch loop goroutine.
	handles map[uint32]chan T
}

type registration[T any] struct {
	id uint32
	ch chan T
}

// NewRegistry creates a registry whose request ids count up from firstID.
// Services sharing a connection keep their id ranges disjoint by
// convention (e.g. one protocol starting at the numeric midpoint); the
// registry only guarantees uniqueness among its own outstanding ids.
func NewRegistry[T any](firstID uint32) *Registry[T] {
	return &Registry[T]{nextID: firstID, handles: make(map[uint32]chan T)}
}

// Issue allocates the next request id and registers a delivery channel
// for it. Callers must call Issue before writing the request frame;
// reversing that order reintroduces the lost-reply race.
func (r *Registry[T]) Issue() (uint32, *Handle[T]) {
	ch := make(chan T, deliveryBuffer)
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	closed := r.closed
	if !closed {
		r.queue = append(r.queue, registration[T]{id: id, ch: ch})
	}
	r.mu.Unlock()
	if closed {
		close(ch)
	}
	return id, &Handle[T]{ch: ch}
}

// Drain applies pending registrations to the loop-owned map. The dispatch
// handler calls it first on every frame, before looking up the frame's
// request id.
func (r *Registry[T]) Drain() {
	r.mu.Lock()
	pending := r.queue
	r.queue = nil
	r.mu.Unlock()
	for _, reg := range pending {
		r.handles[reg.id] = reg.ch
	}
}

// Deliver routes one result to the handle registered for id and reports
// whether such a handle exists. An unknown id is dropped silently: the
// caller may simply have stopped listening.
func (r *Registry[T]) Deliver(id uint32, v T) bool {
	ch, ok := r.handles[id]
	if !ok {
		log.Debug().Uint32("id", id).Msg("reply for unknown request id dropped")
		return false
	}
	select {
	case ch <- v:
	default:
		log.Debug().Uint32("id", id).Msg("delivery buffer full, result dropped")
	}
	return true
}

// Close marks the registry dead and closes every delivery channel,
// including ones still sitting in the registration queue. Blocked Recv
// calls observe this as ok == false. Close must only be called after the
// dispatch loop has exited (it walks the loop-owned map).
func (r *Registry[T]) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	pending := r.queue
	r.queue = nil
	r.mu.Unlock()
	for _, reg := range pending {
		r.handles[reg.id] = reg.ch
	}
	for _, ch := range r.handles {
		close(ch)
	}
}

// Handle receives the results of one correlated request. It is bound to
// the connection that issued it: when that connection's dispatch loop
// exits, the channel closes and Recv returns ok == false.
type Handle[T any] struct {
	ch chan T
}

// Recv blocks until the next result for this request arrives. ok is false
// when the connection died before (more) results arrived; that closed
// channel is the only way a loop-side failure reaches the caller.
func (h *Handle[T]) Recv() (T, bool) {
	v, ok := <-h.ch
	return v, ok
}
