package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rillfeed/rill/internal/service"
	"github.com/rillfeed/rill/internal/tui/styles"
)

// View renders the whole application
func (m Model) View() string {
	if !m.Ready {
		return "loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}
	if m.showQueue {
		return m.renderQueue()
	}
	if m.searching {
		return m.renderSearch()
	}

	var body string
	if m.focus == PaneReader {
		body = styles.ActiveBorder.
			Width(m.readerWidth()).
			Height(m.contentHeight()).
			Render(m.reader.View())
	} else {
		body = lipgloss.JoinHorizontal(
			lipgloss.Top,
			m.renderFeeds(),
			m.renderEntries(),
		)
	}

	bar := m.renderNowPlaying(m.width)
	if bar == "" {
		bar = styles.DimStyle.Render(strings.Repeat("─", max(0, m.width)))
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		body,
		bar,
		m.renderFooter(),
	)
}

func (m Model) renderHeader() string {
	title := styles.TitleStyle.Render("rill")
	feed := "Recent"
	if m.feedID != service.RecentFeedID {
		for _, f := range m.feeds {
			if f.ID == m.feedID {
				feed = f.Title
				break
			}
		}
	}
	return title + styles.DimStyle.Render(" · ") + styles.SubtitleStyle.Render(feed)
}

func (m Model) renderFeeds() string {
	w := m.feedColumnWidth()
	h := m.contentHeight()

	rows := make([]string, 0, len(m.feeds)+1)
	rows = append(rows, m.feedRow("Recent", 0, w, m.feedCursor == 0))
	for i, f := range m.feeds {
		rows = append(rows, m.feedRow(f.Title, f.UnreadCount, w, m.feedCursor == i+1))
	}
	for len(rows) < h {
		rows = append(rows, "")
	}
	if len(rows) > h {
		top := m.feedCursor - h + 1
		if top < 0 {
			top = 0
		}
		rows = rows[top : top+h]
	}

	border := styles.InactiveBorder
	if m.focus == PaneFeeds {
		border = styles.ActiveBorder
	}
	return border.Width(w).Height(h).Render(strings.Join(rows, "\n"))
}

func (m Model) feedRow(title string, unread int, width int, selected bool) string {
	var count string
	if unread > 0 {
		count = fmt.Sprintf(" %d", unread)
	}
	text := truncate(title, width-len(count)-3)
	if selected {
		return styles.HighlightStyle.Render(text) + styles.AccentStyle.Render(count)
	}
	if unread > 0 {
		return " " + styles.TitleStyle.Render(text) + styles.AccentStyle.Render(count)
	}
	return " " + styles.SubtitleStyle.Render(text)
}

func (m Model) renderEntries() string {
	w := m.width - m.feedColumnWidth() - 4
	if w < MinColumnWidth {
		w = MinColumnWidth
	}
	h := m.contentHeight()

	visible := m.visibleEntries()
	now := time.Now()

	rows := make([]string, 0, h)
	end := m.entryOffset + h
	if end > len(visible) {
		end = len(visible)
	}
	for i := m.entryOffset; i < end; i++ {
		e := visible[i]

		status := styles.ReadChar
		if !e.Read {
			status = styles.UnreadStyle.Render(styles.UnreadChar)
		}
		age := e.FormattedAge(now)
		title := truncate(e.Title, w-len(age)-8)

		var line string
		switch {
		case i == m.entryCursor && m.focus == PaneEntries:
			line = styles.HighlightStyle.Render(fmt.Sprintf("%s %s", entryGlyph(e), title))
		case e.Read:
			line = fmt.Sprintf("%s %s %s", status, entryGlyph(e), styles.DimStyle.Render(title))
		default:
			line = fmt.Sprintf("%s %s %s", status, entryGlyph(e), styles.TitleStyle.Render(title))
		}
		pad := w - lipgloss.Width(line) - len(age) - 2
		if pad < 1 {
			pad = 1
		}
		rows = append(rows, line+strings.Repeat(" ", pad)+styles.DimStyle.Render(age))
	}
	if len(rows) == 0 {
		rows = append(rows, styles.DimStyle.Render("  no entries"))
	}
	for len(rows) < h {
		rows = append(rows, "")
	}

	if m.filtering || m.filterInput.Value() != "" {
		rows[h-1] = m.filterInput.View()
	}

	border := styles.InactiveBorder
	if m.focus == PaneEntries {
		border = styles.ActiveBorder
	}
	return border.Width(w).Height(h).Render(strings.Join(rows, "\n"))
}

func (m Model) renderSearch() string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Search"))
	b.WriteString("\n\n")
	b.WriteString(m.searchInput.View())
	b.WriteString("\n\n")

	if m.searchInput.Value() == "" {
		b.WriteString(styles.DimStyle.Render("  type to search every cached entry"))
	} else if len(m.searchResults) == 0 {
		b.WriteString(styles.DimStyle.Render("  no matches"))
	}

	shown := m.searchResults
	if limit := m.contentHeight() - 2; len(shown) > limit && limit > 0 {
		shown = shown[:limit]
	}
	for i, e := range shown {
		line := fmt.Sprintf("  %s %s", entryGlyph(e), e.Title)
		if e.FeedTitle != "" {
			line += styles.DimStyle.Render(" · " + e.FeedTitle)
		}
		if i == m.searchCursor {
			line = styles.HighlightStyle.Render(fmt.Sprintf("%s %s", entryGlyph(e), e.Title))
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.DimStyle.Render("↑/↓ move · enter open · esc close"))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m Model) renderQueue() string {
	s := m.barSession()
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Queue"))
	b.WriteString("\n\n")

	if s.Current != nil {
		b.WriteString(styles.AccentStyle.Render("▸ " + s.Current.Entry.Title))
		b.WriteString(styles.DimStyle.Render("  " + s.State.String()))
		b.WriteString("\n")
	}
	if len(s.Queue) == 0 {
		b.WriteString(styles.DimStyle.Render("  queue is empty"))
	}
	for i, item := range s.Queue {
		line := "  " + item.Entry.Title
		if item.Entry.FeedTitle != "" {
			line += styles.DimStyle.Render(" · " + item.Entry.FeedTitle)
		}
		if i == m.queueCursor {
			line = styles.HighlightStyle.Render(item.Entry.Title)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.DimStyle.Render("j/k move · d remove · esc close"))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m Model) renderHelp() string {
	bindings := []struct{ keys, desc string }{
		{"j/k", "move"},
		{"h/l", "switch pane / open reader"},
		{"enter", "play media or open entry"},
		{"a", "add to playback queue"},
		{"S", "play feed as series"},
		{"R", "play recent episodes"},
		{"space", "pause / resume"},
		{"x", "stop playback"},
		{"Q", "show queue"},
		{"m", "mark read"},
		{"z", "show/hide read entries"},
		{"/", "filter entries"},
		{"f", "search all entries"},
		{"r", "refresh"},
		{"ctrl+r", "drop cache and refresh"},
		{"q", "quit"},
	}

	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render("Keys"))
	b.WriteString("\n\n")
	for _, bind := range bindings {
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			styles.AccentStyle.Render(fmt.Sprintf("%-7s", bind.keys)),
			styles.SubtitleStyle.Render(bind.desc)))
	}
	b.WriteString("\n")
	b.WriteString(styles.DimStyle.Render("press any key to close"))
	return lipgloss.NewStyle().Padding(1, 2).Render(b.String())
}

func (m Model) renderFooter() string {
	if m.statusMsg != "" {
		return " " + m.statusMsg
	}
	return styles.DimStyle.Render(" ?: help · /: filter · enter: play · q: quit")
}
