package dom

// Event is a DOM event as seen by the graph components. Pointer fields are in
// screen (container) coordinates.
type Event struct {
	Type     string
	TargetID string

	X, Y      float64
	DeltaY    float64
	DeltaMode int

	Detail map[string]string

	stopped bool
}

// NewEvent creates an event of the given type.
func NewEvent(eventType string) *Event {
	return &Event{Type: eventType}
}

// NewCustomEvent creates an event carrying detail values.
func NewCustomEvent(eventType string, detail map[string]string) *Event {
	return &Event{Type: eventType, Detail: detail}
}

// StopPropagation keeps the event from reaching ancestor targets.
func (e *Event) StopPropagation() {
	e.stopped = true
}

// PropagationStopped reports whether a listener called StopPropagation.
func (e *Event) PropagationStopped() bool {
	return e.stopped
}

// DetailValue returns a detail entry or "".
func (e *Event) DetailValue(key string) string {
	if e.Detail == nil {
		return ""
	}
	return e.Detail[key]
}

// Listener handles a dispatched event.
type Listener func(*Event)

// ListenerID identifies one registration on an EventTarget.
type ListenerID uint64

type registration struct {
	id ListenerID
	fn Listener
}

// EventTarget holds listeners keyed by event type. It is not safe for
// concurrent use; all dispatch happens on the scheduler loop.
type EventTarget struct {
	next      ListenerID
	listeners map[string][]registration
}

// NewEventTarget creates an empty target.
func NewEventTarget() *EventTarget {
	return &EventTarget{listeners: make(map[string][]registration)}
}

// AddEventListener registers fn and returns the id needed to remove it.
func (t *EventTarget) AddEventListener(eventType string, fn Listener) ListenerID {
	t.next++
	t.listeners[eventType] = append(t.listeners[eventType], registration{id: t.next, fn: fn})
	return t.next
}

// RemoveEventListener detaches a registration. It reports whether id was live.
func (t *EventTarget) RemoveEventListener(id ListenerID) bool {
	for eventType, regs := range t.listeners {
		for i, r := range regs {
			if r.id != id {
				continue
			}
			regs = append(regs[:i:i], regs[i+1:]...)
			if len(regs) == 0 {
				delete(t.listeners, eventType)
			} else {
				t.listeners[eventType] = regs
			}
			return true
		}
	}
	return false
}

// Dispatch calls every listener registered for e.Type at the time of the call.
func (t *EventTarget) Dispatch(e *Event) {
	regs := append([]registration(nil), t.listeners[e.Type]...)
	for _, r := range regs {
		r.fn(e)
	}
}

// ListenerCount returns the number of live registrations across all types.
func (t *EventTarget) ListenerCount() int {
	n := 0
	for _, regs := range t.listeners {
		n += len(regs)
	}
	return n
}

// ListenerCountFor returns the number of registrations for one event type.
func (t *EventTarget) ListenerCountFor(eventType string) int {
	return len(t.listeners[eventType])
}

type subscription struct {
	target *EventTarget
	id     ListenerID
}

// Subscriptions tracks every listener a component attached so that a single
// Close detaches all of them.
type Subscriptions struct {
	entries []subscription
	closed  bool
}

// Listen attaches fn to target and remembers the registration.
func (s *Subscriptions) Listen(target *EventTarget, eventType string, fn Listener) {
	if s.closed {
		return
	}
	id := target.AddEventListener(eventType, fn)
	s.entries = append(s.entries, subscription{target: target, id: id})
}

// Len returns the number of tracked registrations.
func (s *Subscriptions) Len() int {
	return len(s.entries)
}

// Close detaches every tracked listener. Further Listen calls are ignored.
func (s *Subscriptions) Close() {
	for _, sub := range s.entries {
		sub.target.RemoveEventListener(sub.id)
	}
	s.entries = nil
	s.closed = true
}
