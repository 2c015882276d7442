package player

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	ytdlp "github.com/lrstanley/go-ytdlp"
	"github.com/rillfeed/rill/internal/media"
)

// resolveTimeout bounds one yt-dlp stream resolution.
const resolveTimeout = 60 * time.Second

var installOnce sync.Once

// YouTube is the embedded-player resource: it resolves a YouTube watch URL
// to a direct stream URL with yt-dlp, then plays the stream through its own
// mpv process. Nothing is shared with the native resource.
type YouTube struct {
	player  media.Resource
	resolve func(ctx context.Context, url string) (string, error)
	logger  *slog.Logger

	// gen invalidates in-flight resolutions: a resolve that finishes after
	// a newer Load or a Stop must not touch the player.
	gen atomic.Int64

	// playMu serializes the gen check with the player load so a stalled
	// resolution cannot slip its stream in after a newer one loaded.
	playMu sync.Mutex

	mu sync.Mutex
	cb media.Callbacks
}

// NewYouTube creates the YouTube playback resource on top of a dedicated
// mpv instance.
func NewYouTube(mpv *MPV, logger *slog.Logger) *YouTube {
	if logger == nil {
		logger = slog.Default()
	}
	return &YouTube{player: mpv, resolve: resolveStream, logger: logger}
}

// SetCallbacks installs the engine's event sinks on both this resource and
// the mpv instance underneath it.
func (y *YouTube) SetCallbacks(cb media.Callbacks) {
	y.mu.Lock()
	y.cb = cb
	y.mu.Unlock()
	y.player.SetCallbacks(cb)
}

// Load resolves url to a stream and starts playback. Resolution runs off
// the caller's goroutine; failures arrive through the Failed callback.
func (y *YouTube) Load(url, identity string) error {
	gen := y.gen.Add(1)

	y.mu.Lock()
	cb := y.cb
	y.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), resolveTimeout)
		defer cancel()

		streamURL, err := y.resolve(ctx, url)

		y.playMu.Lock()
		defer y.playMu.Unlock()
		if y.gen.Load() != gen {
			// Superseded while resolving or while waiting for the lock;
			// the newer request owns the player.
			y.logger.Debug("discarding superseded stream resolution", "identity", identity)
			return
		}
		if err != nil {
			if cb.Failed != nil {
				cb.Failed(identity, fmt.Errorf("youtube stream resolution: %w", err))
			}
			return
		}
		if err := y.player.Load(streamURL, identity); err != nil {
			if cb.Failed != nil {
				cb.Failed(identity, err)
			}
		}
	}()
	return nil
}

// Pause suspends playback.
func (y *YouTube) Pause() error { return y.player.Pause() }

// Resume continues paused playback.
func (y *YouTube) Resume() error { return y.player.Resume() }

// Stop invalidates any in-flight resolution and tears the player down.
func (y *YouTube) Stop() error {
	y.gen.Add(1)
	return y.player.Stop()
}

// resolveStream runs yt-dlp -J against the watch URL and picks a playable
// stream URL from the result.
func resolveStream(ctx context.Context, url string) (string, error) {
	installOnce.Do(func() {
		// Fetches yt-dlp when missing; a failure here surfaces as a run
		// error below.
		ytdlp.MustInstall(ctx, nil)
	})

	cmd := ytdlp.New().
		Format("best[ext=mp4]/best").
		NoCheckCertificates().
		DumpJSON()

	res, err := cmd.Run(ctx, url)
	if err != nil {
		return "", fmt.Errorf("yt-dlp run: %w", err)
	}

	infos, err := res.GetExtractedInfo()
	if err != nil {
		return "", fmt.Errorf("parse yt-dlp json: %w", err)
	}
	if len(infos) == 0 || infos[0] == nil {
		return "", fmt.Errorf("yt-dlp returned no media info")
	}

	info := infos[0]
	if info.URL != nil && *info.URL != "" {
		return *info.URL, nil
	}
	for _, f := range info.RequestedFormats {
		if f != nil && f.URL != "" {
			return f.URL, nil
		}
	}
	// Formats are ordered worst to best.
	for i := len(info.Formats) - 1; i >= 0; i-- {
		if f := info.Formats[i]; f != nil && f.URL != "" {
			return f.URL, nil
		}
	}
	return "", fmt.Errorf("no usable stream URL")
}
