package media

import (
	"log/slog"
	"sync"
)

// engine is the playback state machine shared by the audio and video
// engines. It owns one session: the current item, its transport state and
// progress, and the pending queue.
//
// Commands arrive from the UI loop; resource callbacks arrive from the
// playback resource's event goroutine. One mutex serializes every
// transition. The sibling-stop hook is always invoked with the mutex
// released, so the two engines' locks are never held at the same time.
type engine struct {
	label  string
	logger *slog.Logger

	// interrupt stops the sibling engine when this one is about to play.
	// Wired late, after both engines exist, to keep them from importing
	// each other.
	interrupt func()

	// resourceFor picks the underlying playback resource for a descriptor.
	resourceFor func(d Descriptor) Resource

	mu        sync.Mutex
	current   *QueueItem
	state     TransportState
	position  float64
	duration  float64
	errMsg    string
	queue     Queue
	active    Resource
	observers []SessionObserver
}

// Subscribe registers an observer that receives a session snapshot after
// every state mutation.
func (e *engine) Subscribe(o SessionObserver) {
	e.mu.Lock()
	e.observers = append(e.observers, o)
	e.mu.Unlock()
}

// Session returns a snapshot of the current playback session.
func (e *engine) Session() Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Active reports whether the session is in any non-idle state. The
// coordinator uses this to decide whether a sibling stop is needed.
func (e *engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state != StateIdle
}

// Pause suspends playback. Valid only while playing; a silent no-op
// otherwise.
func (e *engine) Pause() {
	e.mu.Lock()
	if e.state != StatePlaying {
		e.mu.Unlock()
		return
	}
	e.state = StatePaused
	res := e.active
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.publish(snap)
	if res != nil {
		if err := res.Pause(); err != nil {
			e.logger.Warn("pause command failed", "engine", e.label, "error", err)
		}
	}
}

// Resume continues paused playback. Valid only while paused; a silent
// no-op otherwise.
func (e *engine) Resume() {
	e.mu.Lock()
	if e.state != StatePaused {
		e.mu.Unlock()
		return
	}
	e.mu.Unlock()

	e.stopSibling()

	e.mu.Lock()
	if e.state != StatePaused {
		e.mu.Unlock()
		return
	}
	e.state = StatePlaying
	res := e.active
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.publish(snap)
	if res != nil {
		if err := res.Resume(); err != nil {
			e.logger.Warn("resume command failed", "engine", e.label, "error", err)
		}
	}
}

// Stop clears the current item and returns the session to idle, releasing
// the underlying resource. The queue survives. Callable from any state.
func (e *engine) Stop() {
	e.mu.Lock()
	wasIdle := e.state == StateIdle
	res := e.active
	e.active = nil
	e.current = nil
	e.state = StateIdle
	e.position = 0
	e.duration = 0
	e.errMsg = ""
	snap := e.snapshotLocked()
	e.mu.Unlock()

	if res != nil {
		if err := res.Stop(); err != nil {
			e.logger.Warn("stop command failed", "engine", e.label, "error", err)
		}
	}
	if !wasIdle {
		e.publish(snap)
	}
}

// RemoveFromQueue drops a queued item by descriptor identity.
func (e *engine) RemoveFromQueue(identity string) bool {
	e.mu.Lock()
	removed := e.queue.Remove(identity)
	var snap Session
	if removed {
		snap = e.snapshotLocked()
	}
	e.mu.Unlock()

	if removed {
		e.publish(snap)
	}
	return removed
}

// Queued reports whether a descriptor identity is already in the queue.
func (e *engine) Queued(identity string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queue.Contains(identity)
}

// play makes item the current one and starts loading it. Replacing the
// current item discards its position. Playing the item that is already
// current while paused is a resume; while loading or playing it is a no-op.
func (e *engine) play(item QueueItem) {
	// The sibling must be stopped before any load begins so the old media
	// is never left running while the new one spins up.
	e.stopSibling()

	id := item.Descriptor.Identity()
	e.mu.Lock()
	if e.current != nil && e.current.Descriptor.Identity() == id {
		switch e.state {
		case StatePaused:
			e.mu.Unlock()
			e.Resume()
			return
		case StateLoading, StatePlaying:
			e.mu.Unlock()
			return
		}
		// Ended or errored on this same descriptor: reload from the top.
	}
	// Playing an item that was sitting in the queue consumes it, keeping
	// the queue and the current slot disjoint by identity.
	e.queue.Remove(id)

	prev := e.active
	res := e.resourceFor(item.Descriptor)
	e.beginLoadLocked(item, res)
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.publish(snap)
	if prev != nil && prev != res {
		_ = prev.Stop()
	}
	e.startLoad(item, res)
}

// enqueue appends the item unless it duplicates the current item or an
// already queued one. The duplicate case is reported, not an error.
func (e *engine) enqueue(item QueueItem) bool {
	e.mu.Lock()
	if e.current != nil && e.current.Descriptor.Identity() == item.Descriptor.Identity() {
		e.mu.Unlock()
		return false
	}
	added := e.queue.Add(item)
	var snap Session
	if added {
		snap = e.snapshotLocked()
	}
	e.mu.Unlock()

	if added {
		e.publish(snap)
	}
	return added
}

// playBatch replaces the queue with items[1:] and starts items[0].
func (e *engine) playBatch(items []QueueItem) {
	if len(items) == 0 {
		return
	}
	e.mu.Lock()
	e.queue.Clear()
	for _, it := range items[1:] {
		e.queue.Add(it)
	}
	e.mu.Unlock()

	e.play(items[0])
}

// beginLoadLocked installs item as current in the loading state.
func (e *engine) beginLoadLocked(item QueueItem, res Resource) {
	e.current = &item
	e.active = res
	e.state = StateLoading
	e.position = 0
	e.duration = float64(item.Descriptor.DurationHint)
	e.errMsg = ""
}

// startLoad kicks off the asynchronous load. A synchronous load error takes
// the same path as an asynchronous one.
func (e *engine) startLoad(item QueueItem, res Resource) {
	id := item.Descriptor.Identity()
	url := item.Descriptor.URL
	if item.Descriptor.Kind == KindYouTube {
		url = item.Descriptor.WatchURL()
	}

	e.logger.Info("loading media", "engine", e.label, "identity", id, "title", item.Entry.Title)
	if err := res.Load(url, id); err != nil {
		e.handleFailed(id, err)
	}
}

// callbacks returns the event sinks a resource should deliver into.
func (e *engine) callbacks() Callbacks {
	return Callbacks{
		Ready:    e.handleReady,
		Progress: e.handleProgress,
		Ended:    e.handleEnded,
		Failed:   e.handleFailed,
	}
}

// handleReady transitions loading → playing. A ready for anything other
// than the descriptor currently loading is stale and discarded.
func (e *engine) handleReady(identity string, duration float64) {
	e.mu.Lock()
	if !e.loadingLocked(identity) {
		e.mu.Unlock()
		e.logger.Debug("discarding stale ready", "engine", e.label, "identity", identity)
		return
	}
	e.mu.Unlock()

	// The sibling may have started while this load was in flight.
	e.stopSibling()

	e.mu.Lock()
	if !e.loadingLocked(identity) {
		e.mu.Unlock()
		return
	}
	if duration > 0 {
		e.duration = duration
	}
	e.state = StatePlaying
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.logger.Info("playing", "engine", e.label, "identity", identity, "duration", duration)
	e.publish(snap)
}

// handleProgress records a position tick, clamped to [0, duration].
func (e *engine) handleProgress(identity string, position float64) {
	e.mu.Lock()
	if e.current == nil || e.current.Descriptor.Identity() != identity ||
		(e.state != StatePlaying && e.state != StatePaused) {
		e.mu.Unlock()
		return
	}
	if position < 0 {
		position = 0
	}
	if e.duration > 0 && position > e.duration {
		position = e.duration
	}
	e.position = position
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.publish(snap)
}

// handleEnded advances to the queued head on a natural end, or idles when
// nothing is queued. Stale ends are discarded.
func (e *engine) handleEnded(identity string) {
	e.mu.Lock()
	if e.current == nil || e.current.Descriptor.Identity() != identity {
		e.mu.Unlock()
		e.logger.Debug("discarding stale ended", "engine", e.label, "identity", identity)
		return
	}

	e.state = StateEnded
	if e.duration > 0 {
		e.position = e.duration
	}
	endedSnap := e.snapshotLocked()

	next, ok := e.queue.Advance()
	if !ok {
		res := e.active
		e.active = nil
		e.current = nil
		e.state = StateIdle
		e.position = 0
		e.duration = 0
		idleSnap := e.snapshotLocked()
		e.mu.Unlock()

		e.publish(endedSnap)
		e.publish(idleSnap)
		if res != nil {
			_ = res.Stop()
		}
		return
	}

	prev := e.active
	res := e.resourceFor(next.Descriptor)
	e.beginLoadLocked(next, res)
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.publish(endedSnap)
	e.publish(snap)
	if prev != nil && prev != res {
		_ = prev.Stop()
	}
	e.startLoad(next, res)
}

// handleFailed parks the session in the error state with the message
// retained for display. The queue is left untouched: advancing past a
// failure is an explicit user action, so a systemic outage cannot silently
// burn through the whole queue.
func (e *engine) handleFailed(identity string, err error) {
	e.mu.Lock()
	if e.current == nil || e.current.Descriptor.Identity() != identity {
		e.mu.Unlock()
		e.logger.Debug("discarding stale failure", "engine", e.label, "identity", identity, "error", err)
		return
	}
	e.state = StateError
	e.errMsg = err.Error()
	snap := e.snapshotLocked()
	e.mu.Unlock()

	e.logger.Error("media load failed", "engine", e.label, "identity", identity, "error", err)
	e.publish(snap)
}

func (e *engine) loadingLocked(identity string) bool {
	return e.current != nil && e.current.Descriptor.Identity() == identity && e.state == StateLoading
}

func (e *engine) stopSibling() {
	if e.interrupt != nil {
		e.interrupt()
	}
}

func (e *engine) snapshotLocked() Session {
	snap := Session{
		State:    e.state,
		Position: e.position,
		Duration: e.duration,
		Queue:    e.queue.Items(),
		Err:      e.errMsg,
	}
	if e.current != nil {
		cur := *e.current
		snap.Current = &cur
	}
	return snap
}

func (e *engine) publish(snap Session) {
	e.mu.Lock()
	obs := make([]SessionObserver, len(e.observers))
	copy(obs, e.observers)
	e.mu.Unlock()

	for _, o := range obs {
		o.OnSession(snap)
	}
}
