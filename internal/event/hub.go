package event

import "slices"

// Subscription identifies one Register call. The zero value matches nothing.
type Subscription struct {
	typ Type
	id  uint64
}

// Valid reports whether s came from a Register call.
func (s Subscription) Valid() bool { return s.id != 0 }

type registered struct {
	id  uint64
	obs Observer
}

// Sink receives every notification dispatched through hubs attached to it.
type Sink interface {
	Publish(n Notification)
}

// Hub is the observer registry embedded by entities.
// The zero value is ready to use. Not safe for concurrent use.
type Hub struct {
	observers map[Type][]registered
	seq       uint64
	sink      Sink
}

// Attach makes every dispatch through h also go to sink.
func (h *Hub) Attach(sink Sink) {
	h.sink = sink
}

// Register adds o after any observers already registered for t.
func (h *Hub) Register(t Type, o Observer) Subscription {
	if h.observers == nil {
		h.observers = make(map[Type][]registered)
	}
	h.seq++
	h.observers[t] = append(h.observers[t], registered{id: h.seq, obs: o})
	return Subscription{typ: t, id: h.seq}
}

// Unregister removes the observer behind s. Unknown subscriptions are ignored.
func (h *Hub) Unregister(s Subscription) bool {
	list := h.observers[s.typ]
	i := slices.IndexFunc(list, func(r registered) bool { return r.id == s.id })
	if i < 0 {
		return false
	}
	// Fresh slice so an in-flight notify keeps iterating its own copy.
	h.observers[s.typ] = slices.Delete(slices.Clone(list), i, i+1)
	return true
}

// Count returns the number of observers registered for t.
func (h *Hub) Count(t Type) int {
	return len(h.observers[t])
}

// Reset drops every observer. Used when a pooled entity is recycled.
func (h *Hub) Reset() {
	clear(h.observers)
}

func (h *Hub) notify(n Notification) {
	// Observers added during delivery wait for the next event.
	list := h.observers[n.Type]
	for _, r := range list {
		r.obs.Observe(n)
	}
}

// Dispatch implements the TriggerEvent contract for an entity e owning hub h:
// the sink sees the event first, then e.OnEvent runs, then the observers
// registered on h for t, in registration order.
func Dispatch(e Entity, h *Hub, t Type, p Payload) {
	if p == nil {
		p = None{}
	}
	n := Notification{Type: t, Source: e, Target: p.Subject(), Payload: p}
	if h.sink != nil {
		h.sink.Publish(n)
	}
	e.OnEvent(t, p)
	h.notify(n)
}
