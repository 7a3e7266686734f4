package event

// Feed is the outward-facing stream of every dispatched event, for
// presentation, journaling and tracing. The core never depends on whether
// anyone listens.
type Feed struct {
	hub Hub
}

// feedType is the single bucket all feed subscribers live in.
const feedType Type = 0

// NewFeed creates an empty feed.
func NewFeed() *Feed {
	return &Feed{}
}

// Subscribe adds o to the feed.
func (f *Feed) Subscribe(o Observer) Subscription {
	return f.hub.Register(feedType, o)
}

// Unsubscribe removes a feed subscriber.
func (f *Feed) Unsubscribe(s Subscription) bool {
	return f.hub.Unregister(s)
}

// Len returns the number of subscribers.
func (f *Feed) Len() int {
	return f.hub.Count(feedType)
}

// Publish implements Sink.
func (f *Feed) Publish(n Notification) {
	for _, r := range f.hub.observers[feedType] {
		r.obs.Observe(n)
	}
}
