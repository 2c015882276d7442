package media

import (
	"log/slog"

	"github.com/rillfeed/rill/internal/domain"
)

// AudioEngine owns the single active audio playback slot: the current
// podcast track, its transport state, progress, and the pending queue.
type AudioEngine struct {
	engine
}

// NewAudioEngine creates the audio engine on top of one playback resource.
// Wire it to the coordinator before use.
func NewAudioEngine(res Resource, logger *slog.Logger) *AudioEngine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &AudioEngine{engine: engine{label: "audio", logger: logger}}
	e.resourceFor = func(Descriptor) Resource { return res }
	res.SetCallbacks(e.callbacks())
	return e
}

// Play starts playback of an audio descriptor, replacing whatever was
// current and resetting the position. Playing the descriptor that is
// already current while paused resumes instead. Descriptors of any other
// kind are ignored.
func (e *AudioEngine) Play(d Descriptor, entry domain.EntryRef) {
	if d.Kind != KindAudio {
		e.logger.Debug("audio engine ignoring non-audio descriptor", "kind", d.Kind.String())
		return
	}
	e.play(QueueItem{Descriptor: d, Entry: entry})
}

// AddToQueue appends an audio descriptor to the queue. Returns false when
// the descriptor is already current or already queued.
func (e *AudioEngine) AddToQueue(d Descriptor, entry domain.EntryRef) bool {
	if d.Kind != KindAudio {
		return false
	}
	return e.enqueue(QueueItem{Descriptor: d, Entry: entry})
}

// PlaySeries queues every playable audio entry belonging to one feed, in
// the entries' own order, and starts the first.
func (e *AudioEngine) PlaySeries(feedID int64, entries []domain.Entry) {
	items := collectPlayable(entries, KindAudio, 0, func(en domain.Entry) bool {
		return en.FeedID == feedID
	})
	e.playBatch(items)
}

// PlayAllRecent queues the most recent playable audio entries across all
// feeds, up to limit, and starts the first. Entries are expected newest
// first, the order the feed service returns them in.
func (e *AudioEngine) PlayAllRecent(entries []domain.Entry, limit int) {
	items := collectPlayable(entries, KindAudio, limit, nil)
	e.playBatch(items)
}

// collectPlayable resolves entries into queue items of one kind, keeping
// the input order. A limit of 0 means no limit.
func collectPlayable(entries []domain.Entry, kind Kind, limit int, keep func(domain.Entry) bool) []QueueItem {
	var items []QueueItem
	for _, en := range entries {
		if keep != nil && !keep(en) {
			continue
		}
		d := Resolve(en)
		if d == nil || d.Kind != kind {
			continue
		}
		items = append(items, QueueItem{Descriptor: *d, Entry: en.Ref()})
		if limit > 0 && len(items) == limit {
			break
		}
	}
	return items
}
