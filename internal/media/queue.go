package media

// Queue is the ordered pending-playback list shared by both engines.
// Items keep insertion order and are unique by descriptor identity.
// It is not safe for concurrent use; the owning engine serializes access.
type Queue struct {
	items []QueueItem
}

// Add appends the item unless an item with the same descriptor identity is
// already queued. Returns false for the duplicate no-op.
func (q *Queue) Add(item QueueItem) bool {
	if q.Contains(item.Descriptor.Identity()) {
		return false
	}
	q.items = append(q.items, item)
	return true
}

// Remove drops the queued item with the given identity.
// Returns false when no such item is queued.
func (q *Queue) Remove(identity string) bool {
	for i, item := range q.items {
		if item.Descriptor.Identity() == identity {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return true
		}
	}
	return false
}

// Advance pops the head of the queue. A consumed item is gone for good, but
// nothing stops it from being re-added later.
func (q *Queue) Advance() (QueueItem, bool) {
	if len(q.items) == 0 {
		return QueueItem{}, false
	}
	head := q.items[0]
	q.items = q.items[1:]
	return head, true
}

// Contains reports whether an item with the given identity is queued.
func (q *Queue) Contains(identity string) bool {
	for _, item := range q.items {
		if item.Descriptor.Identity() == identity {
			return true
		}
	}
	return false
}

// Len returns the number of queued items.
func (q *Queue) Len() int { return len(q.items) }

// Items returns a copy of the queued items in order.
func (q *Queue) Items() []QueueItem {
	out := make([]QueueItem, len(q.items))
	copy(out, q.items)
	return out
}

// Clear drops everything.
func (q *Queue) Clear() { q.items = nil }
