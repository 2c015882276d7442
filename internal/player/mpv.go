package player

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rillfeed/rill/internal/media"
)

const (
	// socketDialTimeout bounds how long we wait for mpv to create its IPC
	// socket after the process starts.
	socketDialTimeout = 10 * time.Second
	socketDialRetry   = 100 * time.Millisecond

	// durationRequestID tags the get_property duration round trip issued
	// after file-loaded.
	durationRequestID = 100
)

// Options configures an MPV resource.
type Options struct {
	Command   string   // mpv binary, "mpv" when empty
	Args      []string // extra args appended to every launch
	SocketDir string   // IPC socket directory, os.TempDir() when empty
	AudioOnly bool     // pass --no-video, for the audio engine
	Logger    *slog.Logger
}

// MPV plays media through an mpv subprocess driven over its JSON IPC
// socket. Each Load spawns a fresh process scoped to that one piece of
// media; Load and Stop tear the previous one down.
//
// It implements media.Resource. Events are delivered from the socket
// reader goroutine, tagged with the identity the engine passed to Load.
type MPV struct {
	command   string
	args      []string
	socketDir string
	audioOnly bool
	logger    *slog.Logger

	mu      sync.Mutex
	cb      media.Callbacks
	session *ipcSession
}

// New creates an mpv-backed playback resource.
func New(opts Options) *MPV {
	if opts.Command == "" {
		opts.Command = "mpv"
	}
	if opts.SocketDir == "" {
		opts.SocketDir = os.TempDir()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &MPV{
		command:   opts.Command,
		args:      opts.Args,
		socketDir: opts.SocketDir,
		audioOnly: opts.AudioOnly,
		logger:    opts.Logger,
	}
}

// SetCallbacks installs the engine's event sinks.
func (m *MPV) SetCallbacks(cb media.Callbacks) {
	m.mu.Lock()
	m.cb = cb
	m.mu.Unlock()
}

// Load starts a fresh mpv process for url. The outcome arrives through the
// callbacks: Ready once mpv reports the file loaded, then Progress ticks,
// then Ended or Failed.
func (m *MPV) Load(url, identity string) error {
	path, err := exec.LookPath(m.command)
	if err != nil {
		return fmt.Errorf("player not found: %w", err)
	}

	socket := filepath.Join(m.socketDir, "rill-"+uuid.NewString()+".sock")

	args := []string{
		"--no-terminal",
		"--idle=no",
		"--input-ipc-server=" + socket,
	}
	if m.audioOnly {
		args = append(args, "--no-video")
	}
	args = append(args, m.args...)
	args = append(args, "--", url)

	cmd := exec.Command(path, args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start player: %w", err)
	}

	sess := &ipcSession{
		identity: identity,
		socket:   socket,
		cmd:      cmd,
		logger:   m.logger,
		done:     make(chan struct{}),
	}

	m.mu.Lock()
	old := m.session
	m.session = sess
	cb := m.cb
	m.mu.Unlock()

	if old != nil {
		old.close()
	}

	m.logger.Debug("player started", "command", path, "socket", socket, "identity", identity)
	go sess.run(cb)
	return nil
}

// Pause suspends the running process via the pause property.
func (m *MPV) Pause() error { return m.setPause(true) }

// Resume clears the pause property.
func (m *MPV) Resume() error { return m.setPause(false) }

func (m *MPV) setPause(paused bool) error {
	m.mu.Lock()
	sess := m.session
	m.mu.Unlock()
	if sess == nil {
		return fmt.Errorf("no media loaded")
	}
	return sess.command("set_property", "pause", paused)
}

// Stop tears down the current process, if any.
func (m *MPV) Stop() error {
	m.mu.Lock()
	sess := m.session
	m.session = nil
	m.mu.Unlock()
	if sess != nil {
		sess.close()
	}
	return nil
}

// ipcSession is one mpv process plus its IPC socket, scoped to a single
// piece of media.
type ipcSession struct {
	identity string
	socket   string
	cmd      *exec.Cmd
	logger   *slog.Logger
	done     chan struct{}

	writeMu sync.Mutex
	conn    net.Conn

	closeOnce sync.Once
}

// ipcMessage covers both mpv events and command responses; unused fields
// stay zero.
type ipcMessage struct {
	Event     string `json:"event"`
	Name      string `json:"name"`
	Data      any    `json:"data"`
	Reason    string `json:"reason"`
	RequestID int64  `json:"request_id"`
	Error     string `json:"error"`
	FileError string `json:"file_error"`
}

// run dials the socket, subscribes to properties, and pumps events into
// the callbacks until the session dies.
func (s *ipcSession) run(cb media.Callbacks) {
	defer s.reap()

	conn, err := s.dial()
	if err != nil {
		s.close()
		s.fail(cb, fmt.Errorf("player IPC unavailable: %w", err))
		return
	}

	s.writeMu.Lock()
	s.conn = conn
	s.writeMu.Unlock()

	// Deliver time-pos ticks for progress. Duration is fetched explicitly
	// once the file is loaded, so live streams (no duration) still get a
	// ready.
	if err := s.command("observe_property", 1, "time-pos"); err != nil {
		s.close()
		s.fail(cb, err)
		return
	}

	scanner := bufio.NewScanner(conn)
	ready := false
	for scanner.Scan() {
		var msg ipcMessage
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil {
			continue
		}

		switch {
		case msg.Event == "file-loaded":
			// Ask for the duration; the tagged response fires Ready.
			if err := s.command2("get_property", "duration", durationRequestID); err != nil {
				s.close()
				s.fail(cb, err)
				return
			}

		case msg.RequestID == durationRequestID:
			if msg.Error != "" && msg.Error != "success" {
				// Live streams have no duration; Ready still fires with 0.
				s.logger.Debug("duration unavailable", "identity", s.identity, "error", msg.Error)
			}
			if !ready {
				ready = true
				if cb.Ready != nil {
					cb.Ready(s.identity, asFloat(msg.Data))
				}
			}

		case msg.Event == "property-change" && msg.Name == "time-pos":
			if pos, ok := msg.Data.(float64); ok && cb.Progress != nil {
				cb.Progress(s.identity, pos)
			}

		case msg.Event == "end-file":
			switch msg.Reason {
			case "eof":
				if cb.Ended != nil {
					cb.Ended(s.identity)
				}
			case "error":
				s.fail(cb, fmt.Errorf("playback failed: %s", msg.FileError))
			}
			// quit/stop reasons are ours; say nothing.
			s.close()
			return
		}
	}

	// Socket died underneath us. If we never got as far as playing, the
	// load failed; a crash mid-play is reported the same way.
	select {
	case <-s.done:
		// closed by Stop or a superseding Load
	default:
		s.close()
		s.fail(cb, fmt.Errorf("player exited unexpectedly"))
	}
}

func (s *ipcSession) fail(cb media.Callbacks, err error) {
	s.logger.Debug("player session failed", "identity", s.identity, "error", err)
	if cb.Failed != nil {
		cb.Failed(s.identity, err)
	}
}

// dial waits for mpv to create the socket, retrying briefly.
func (s *ipcSession) dial() (net.Conn, error) {
	deadline := time.Now().Add(socketDialTimeout)
	for {
		conn, err := net.Dial("unix", s.socket)
		if err == nil {
			return conn, nil
		}
		if time.Now().After(deadline) {
			return nil, err
		}
		select {
		case <-s.done:
			return nil, fmt.Errorf("session closed")
		case <-time.After(socketDialRetry):
		}
	}
}

// command sends an untagged IPC command.
func (s *ipcSession) command(parts ...any) error {
	return s.write(map[string]any{"command": parts})
}

// command2 sends a tagged IPC command whose response carries request_id.
func (s *ipcSession) command2(cmd, arg string, requestID int64) error {
	return s.write(map[string]any{"command": []any{cmd, arg}, "request_id": requestID})
}

func (s *ipcSession) write(payload map[string]any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	data = append(data, '\n')

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.conn == nil {
		return fmt.Errorf("IPC socket not connected")
	}
	_, err = s.conn.Write(data)
	return err
}

// close shuts the session down: signal done, close the socket, kill the
// process. Idempotent.
func (s *ipcSession) close() {
	s.closeOnce.Do(func() {
		close(s.done)

		s.writeMu.Lock()
		if s.conn != nil {
			s.conn.Close()
			s.conn = nil
		}
		s.writeMu.Unlock()

		if s.cmd.Process != nil {
			_ = s.cmd.Process.Kill()
		}
	})
}

// reap waits for the process and removes the socket file.
func (s *ipcSession) reap() {
	_ = s.cmd.Wait()
	_ = os.Remove(s.socket)
}

func asFloat(v any) float64 {
	f, _ := v.(float64)
	return f
}
