package model

// Comment is a single entry in a request's discussion thread, as returned by
// the hosting service. Adapters return comments oldest-first so the trigger
// scan sees the thread in chronological order.
type Comment struct {
	Author string
	Body   string
}
