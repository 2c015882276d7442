package media

import "sync"

// Coordinator enforces the cross-engine exclusivity invariant: at most one
// of the audio and video sessions is playing at any instant. It holds no
// state beyond the function references the engines register at startup.
//
// Registration is late-bound so the engines never reference each other:
// construct both engines first, then call Wire once.
type Coordinator struct {
	mu          sync.Mutex
	stopAudio   func()
	audioActive func() bool
	stopVideo   func()
	videoActive func() bool
}

// NewCoordinator creates an empty coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// RegisterAudioStopper installs the audio engine's stop operation and its
// activity check. Called once at startup.
func (c *Coordinator) RegisterAudioStopper(stop func(), active func() bool) {
	c.mu.Lock()
	c.stopAudio = stop
	c.audioActive = active
	c.mu.Unlock()
}

// RegisterVideoStopper installs the video engine's stop operation and its
// activity check. Called once at startup.
func (c *Coordinator) RegisterVideoStopper(stop func(), active func() bool) {
	c.mu.Lock()
	c.stopVideo = stop
	c.videoActive = active
	c.mu.Unlock()
}

// StopAudio stops the audio engine if it holds a non-idle session.
// The video engine calls this immediately before entering playback.
func (c *Coordinator) StopAudio() {
	c.mu.Lock()
	stop, active := c.stopAudio, c.audioActive
	c.mu.Unlock()

	if stop != nil && (active == nil || active()) {
		stop()
	}
}

// StopVideo stops the video engine if it holds a non-idle session.
// The audio engine calls this immediately before entering playback.
func (c *Coordinator) StopVideo() {
	c.mu.Lock()
	stop, active := c.stopVideo, c.videoActive
	c.mu.Unlock()

	if stop != nil && (active == nil || active()) {
		stop()
	}
}

// Wire connects both engines to the coordinator. Call once at process
// start, after both engines exist.
func Wire(c *Coordinator, audio *AudioEngine, video *VideoEngine) {
	c.RegisterAudioStopper(audio.Stop, audio.Active)
	c.RegisterVideoStopper(video.Stop, video.Active)
	audio.interrupt = c.StopVideo
	video.interrupt = c.StopAudio
}
