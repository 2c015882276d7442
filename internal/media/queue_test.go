package media

import "testing"

func item(encID int64) QueueItem {
	return QueueItem{Descriptor: Descriptor{Kind: KindAudio, EnclosureID: encID, URL: "u"}}
}

func TestQueue(t *testing.T) {
	t.Run("duplicate add is a no-op", func(t *testing.T) {
		var q Queue
		if !q.Add(item(1)) {
			t.Fatal("first add should succeed")
		}
		if q.Add(item(1)) {
			t.Error("duplicate add should report false")
		}
		if q.Len() != 1 {
			t.Errorf("queue length = %d, want 1", q.Len())
		}
	})

	t.Run("remove by identity", func(t *testing.T) {
		var q Queue
		q.Add(item(1))
		q.Add(item(2))
		q.Add(item(3))
		if !q.Remove(item(2).Descriptor.Identity()) {
			t.Fatal("remove should succeed")
		}
		if q.Remove(item(2).Descriptor.Identity()) {
			t.Error("removing an absent item should report false")
		}
		items := q.Items()
		if len(items) != 2 || items[0].Descriptor.EnclosureID != 1 || items[1].Descriptor.EnclosureID != 3 {
			t.Errorf("unexpected order after remove: %+v", items)
		}
	})

	t.Run("advance pops front in insertion order", func(t *testing.T) {
		var q Queue
		q.Add(item(1))
		q.Add(item(2))
		head, ok := q.Advance()
		if !ok || head.Descriptor.EnclosureID != 1 {
			t.Fatalf("expected item 1, got %+v ok=%v", head, ok)
		}
		if _, ok := q.Advance(); !ok {
			t.Fatal("second advance should succeed")
		}
		if _, ok := q.Advance(); ok {
			t.Error("advance on empty queue should report false")
		}
	})

	t.Run("consumed item can be re-added", func(t *testing.T) {
		var q Queue
		q.Add(item(1))
		q.Advance()
		if !q.Add(item(1)) {
			t.Error("re-adding a consumed item should succeed")
		}
	})

	t.Run("items returns a copy", func(t *testing.T) {
		var q Queue
		q.Add(item(1))
		items := q.Items()
		items[0].Descriptor.EnclosureID = 99
		if q.Items()[0].Descriptor.EnclosureID != 1 {
			t.Error("mutating the snapshot leaked into the queue")
		}
	})
}
