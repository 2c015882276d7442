package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rillfeed/rill/internal/media"
	"github.com/rillfeed/rill/internal/tui/styles"
)

const progressBarWidth = 24

// renderNowPlaying renders the persistent playback bar. An idle session with
// no queue renders an empty string; the caller collapses the bar.
func (m Model) renderNowPlaying(width int) string {
	s := m.barSession()
	if !s.Active() || s.Current == nil {
		if len(s.Queue) > 0 {
			status := fmt.Sprintf("%d queued", len(s.Queue))
			return styles.NowPlayingBar.Width(width).Render(
				styles.DimStyle.Render("stopped") + "  " + status)
		}
		return ""
	}

	icon := styles.AudioChar
	if s.Current.Descriptor.Kind != media.KindAudio {
		icon = styles.VideoChar
	}

	title := s.Current.Entry.Title
	if s.Current.Entry.FeedTitle != "" {
		title = s.Current.Entry.FeedTitle + " · " + title
	}

	var status string
	switch s.State {
	case media.StateLoading:
		status = m.spinner.View() + " loading"
	case media.StatePlaying, media.StatePaused:
		status = formatClock(s.Position) + " / " + formatClock(s.Duration)
		if s.Duration > 0 {
			prog := m.prog
			prog.Width = progressBarWidth
			status = prog.ViewAs(s.Position/s.Duration) + " " + status
		}
		if s.State == media.StatePaused {
			status += " ⏸"
		}
	case media.StateEnded:
		status = "ended"
	case media.StateError:
		status = styles.ErrorStyle.Render("error: " + s.Err)
	}

	if n := len(s.Queue); n > 0 {
		status += fmt.Sprintf("  +%d queued", n)
	}

	// Truncate the plain title before styling so the bar fits on one line.
	avail := width - lipgloss.Width(status) - 7
	if avail > 0 {
		title = truncate(title, avail)
	}

	left := styles.NowPlayingState.Render(icon) + " " + title
	gap := width - lipgloss.Width(left) - lipgloss.Width(status) - 4
	if gap < 1 {
		gap = 1
	}

	return styles.NowPlayingBar.Width(width).Render(left + strings.Repeat(" ", gap) + status)
}

// formatClock renders seconds as m:ss, or h:mm:ss past the hour.
func formatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	total := int(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func truncate(s string, max int) string {
	if max <= 1 {
		return "…"
	}
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
