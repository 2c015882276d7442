package media

import (
	"log/slog"

	"github.com/rillfeed/rill/internal/domain"
)

// VideoEngine owns the single active video playback slot. It plays two
// kinds of media over two separate underlying resources: enclosure-backed
// video on the native resource and YouTube links on the embedded one.
// Stop releases whichever is active.
type VideoEngine struct {
	engine
}

// NewVideoEngine creates the video engine over its two playback resources.
// Wire it to the coordinator before use.
func NewVideoEngine(native, youtube Resource, logger *slog.Logger) *VideoEngine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &VideoEngine{engine: engine{label: "video", logger: logger}}
	e.resourceFor = func(d Descriptor) Resource {
		if d.Kind == KindYouTube {
			return youtube
		}
		return native
	}
	// Both resources feed the same handlers; the descriptor identity on
	// each event keeps the sessions from crossing.
	native.SetCallbacks(e.callbacks())
	youtube.SetCallbacks(e.callbacks())
	return e
}

// Play starts playback of a video or YouTube descriptor, replacing whatever
// was current. Audio descriptors are ignored.
func (e *VideoEngine) Play(d Descriptor, entry domain.EntryRef) {
	if d.Kind != KindVideo && d.Kind != KindYouTube {
		e.logger.Debug("video engine ignoring descriptor", "kind", d.Kind.String())
		return
	}
	e.play(QueueItem{Descriptor: d, Entry: entry})
}

// PlayYouTube starts a YouTube video by id. YouTube playback is single
// shot: a new video always replaces the current one directly.
func (e *VideoEngine) PlayYouTube(videoID string, entry domain.EntryRef) {
	e.play(QueueItem{
		Descriptor: Descriptor{Kind: KindYouTube, VideoID: videoID},
		Entry:      entry,
	})
}

// AddToQueue appends an enclosure-backed video descriptor to the queue.
// YouTube descriptors are not queueable; asking is a reported no-op.
func (e *VideoEngine) AddToQueue(d Descriptor, entry domain.EntryRef) bool {
	if d.Kind != KindVideo {
		return false
	}
	return e.enqueue(QueueItem{Descriptor: d, Entry: entry})
}

// PlaySeries queues every enclosure-backed video entry of one feed, in the
// entries' own order, and starts the first.
func (e *VideoEngine) PlaySeries(feedID int64, entries []domain.Entry) {
	items := collectPlayable(entries, KindVideo, 0, func(en domain.Entry) bool {
		return en.FeedID == feedID
	})
	e.playBatch(items)
}

// PlayAllRecent queues the most recent enclosure-backed video entries
// across all feeds, up to limit, and starts the first.
func (e *VideoEngine) PlayAllRecent(entries []domain.Entry, limit int) {
	items := collectPlayable(entries, KindVideo, limit, nil)
	e.playBatch(items)
}
