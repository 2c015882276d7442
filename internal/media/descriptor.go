package media

import "strconv"

// Kind distinguishes the playable resource types an entry can resolve to.
type Kind int

const (
	KindNone Kind = iota
	KindAudio
	KindVideo
	KindYouTube
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindAudio:
		return "audio"
	case KindVideo:
		return "video"
	case KindYouTube:
		return "youtube"
	default:
		return "none"
	}
}

// Descriptor is the resolved, typed representation of one playable resource:
// an audio enclosure, a video enclosure, or a YouTube video. Descriptors are
// values, resolved once per entry, and never persisted.
type Descriptor struct {
	Kind Kind

	// Enclosure-backed media (KindAudio, KindVideo)
	EnclosureID int64
	URL         string
	MimeType    string

	// DurationHint is the server-reported length in seconds, 0 when unknown.
	// Audio enclosures only; the playback resource's own duration wins once
	// the media is loaded.
	DurationHint int

	// YouTube media (KindYouTube)
	VideoID string
}

// Identity returns the stable identity used for queue dedupe and for
// matching resource callbacks to the request that triggered them.
func (d Descriptor) Identity() string {
	if d.Kind == KindYouTube {
		return "yt:" + d.VideoID
	}
	return "enc:" + strconv.FormatInt(d.EnclosureID, 10)
}

// WatchURL returns the canonical YouTube watch URL for a YouTube descriptor.
func (d Descriptor) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + d.VideoID
}
