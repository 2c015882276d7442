package media

// Callbacks delivers playback resource events to an engine. Every callback
// echoes the identity passed to Load so the engine can discard events that
// belong to a superseded request.
type Callbacks struct {
	// Ready fires once the media is loaded and playing. Duration is in
	// seconds, 0 when the resource does not know yet.
	Ready func(identity string, duration float64)

	// Progress fires at the resource's own cadence while playing.
	Progress func(identity string, position float64)

	// Ended fires when the media reaches its natural end.
	Ended func(identity string)

	// Failed fires when the media cannot be loaded or dies mid-play.
	Failed func(identity string, err error)
}

// Resource is one underlying playback slot such as an mpv process. Load is
// asynchronous: it returns once the load is underway and the outcome arrives
// through the callbacks. The two engines never share a Resource.
type Resource interface {
	// SetCallbacks installs the event sinks. Called once, before any Load.
	SetCallbacks(cb Callbacks)

	// Load starts playback of url, tagging all resulting events with
	// identity. A second Load replaces whatever was playing.
	Load(url, identity string) error

	// Pause suspends playback, keeping the media loaded.
	Pause() error

	// Resume continues paused playback.
	Resume() error

	// Stop releases the media and any process or socket behind it.
	// Safe to call when nothing is loaded.
	Stop() error
}
