package media

import (
	"net/url"
	"strings"

	"github.com/rillfeed/rill/internal/domain"
)

// Resolve maps an entry to its playable media descriptor, or nil when the
// entry has nothing playable. It is pure: same entry in, same descriptor out.
//
// Priority is deliberate: an audio enclosure wins over a video enclosure,
// and any enclosure wins over an incidental YouTube link on the entry URL.
func Resolve(entry domain.Entry) *Descriptor {
	for _, enc := range entry.Enclosures {
		if strings.HasPrefix(enc.MimeType, "audio/") {
			return &Descriptor{
				Kind:         KindAudio,
				EnclosureID:  enc.ID,
				URL:          enc.URL,
				MimeType:     enc.MimeType,
				DurationHint: enc.DurationSeconds,
			}
		}
	}

	for _, enc := range entry.Enclosures {
		if strings.HasPrefix(enc.MimeType, "video/") {
			return &Descriptor{
				Kind:        KindVideo,
				EnclosureID: enc.ID,
				URL:         enc.URL,
				MimeType:    enc.MimeType,
			}
		}
	}

	if id := YouTubeVideoID(entry.URL); id != "" {
		return &Descriptor{Kind: KindYouTube, VideoID: id}
	}

	return nil
}

// Playable reports whether the entry resolves to playable media, and as
// what kind. UI controls use this to pick the play affordance to show.
func Playable(entry domain.Entry) (Kind, bool) {
	d := Resolve(entry)
	if d == nil {
		return KindNone, false
	}
	return d.Kind, true
}

// YouTubeVideoID extracts the video id from a YouTube watch, shorts, live,
// embed, or youtu.be URL. Returns "" when the URL is not a YouTube video or
// carries no extractable id; a malformed link is not an error, just not a
// video.
func YouTubeVideoID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtu.be":
		return validVideoID(firstPathSegment(u.Path))
	case "youtube.com", "m.youtube.com", "music.youtube.com", "youtube-nocookie.com":
	default:
		return ""
	}

	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	switch segments[0] {
	case "watch":
		return validVideoID(u.Query().Get("v"))
	case "shorts", "live", "embed":
		if len(segments) < 2 {
			return ""
		}
		return validVideoID(segments[1])
	}
	return ""
}

func firstPathSegment(path string) string {
	path = strings.Trim(path, "/")
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}

// validVideoID accepts the 11-character id alphabet YouTube uses.
func validVideoID(id string) string {
	if len(id) != 11 {
		return ""
	}
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '-' || r == '_':
		default:
			return ""
		}
	}
	return id
}
