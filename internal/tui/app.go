package tui

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/rillfeed/rill/internal/domain"
	"github.com/rillfeed/rill/internal/media"
	"github.com/rillfeed/rill/internal/service"
	"github.com/rillfeed/rill/internal/tui/styles"
)

// Pane identifies which column has keyboard focus
type Pane int

const (
	PaneFeeds Pane = iota
	PaneEntries
	PaneReader
)

// Layout proportions
const (
	FeedColumnPercent = 30
	MinColumnWidth    = 20
	ChromeHeight      = 3 // header + now playing bar + footer
)

// Model is the main Bubble Tea model for the application
type Model struct {
	Keys  KeyMap
	Ready bool

	// Services and engines
	FeedSvc *service.FeedService
	Audio   *media.AudioEngine
	Video   *media.VideoEngine

	// Playback session snapshots, one per engine
	sessionCh    chan SessionUpdate
	audioSession media.Session
	videoSession media.Session
	lastEngine   string

	// Data
	feeds   []domain.Feed
	entries []domain.Entry
	feedID  int64

	// UI state
	focus       Pane
	feedCursor  int
	entryCursor int
	entryOffset int
	reader      viewport.Model
	filterInput textinput.Model
	filtering   bool
	filteredIdx []int
	showRead    bool
	showHelp    bool
	showQueue   bool
	queueCursor int

	// Global search overlay
	searching     bool
	searchInput   textinput.Model
	searchPool    []domain.Entry
	searchResults []domain.Entry
	searchCursor  int

	spinner spinner.Model
	prog    progress.Model

	statusMsg string
	statusID  int

	recentLimit int
	width       int
	height      int
}

// NewModel constructs the application model. The session channel must be
// the one both engines' observers publish to.
func NewModel(svc *service.FeedService, audio *media.AudioEngine, video *media.VideoEngine, sessionCh chan SessionUpdate, recentLimit int, showRead bool) Model {
	ti := textinput.New()
	ti.Placeholder = "Filter entries..."
	ti.CharLimit = 100
	ti.Prompt = "/ "
	ti.PromptStyle = styles.AccentStyle
	ti.PlaceholderStyle = styles.DimStyle

	si := textinput.New()
	si.Placeholder = "Search all entries..."
	si.CharLimit = 100
	si.Width = 40
	si.Prompt = "🔍 "
	si.PromptStyle = styles.AccentStyle
	si.PlaceholderStyle = styles.DimStyle

	sp := spinner.New()
	sp.Spinner = spinner.Spinner{Frames: styles.SpinnerFrames, FPS: time.Second / 12}
	sp.Style = styles.AccentStyle

	return Model{
		Keys:        DefaultKeyMap(),
		FeedSvc:     svc,
		Audio:       audio,
		Video:       video,
		sessionCh:   sessionCh,
		feedID:      service.RecentFeedID,
		filterInput: ti,
		searchInput: si,
		spinner:     sp,
		prog:        progress.New(progress.WithDefaultGradient()),
		recentLimit: recentLimit,
		showRead:    showRead,
	}
}

// Init starts the initial feed load and the session listener
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		LoadFeedsCmd(m.FeedSvc, false),
		LoadEntriesCmd(m.FeedSvc, service.RecentFeedID, false),
		WaitForSessionCmd(m.sessionCh),
	)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.reader.Width = m.readerWidth()
		m.reader.Height = m.contentHeight()
		m.Ready = true
		return m, nil

	case FeedsLoadedMsg:
		m.feeds = msg.Feeds
		if m.feedCursor > len(m.feeds) {
			m.feedCursor = 0
		}
		return m, nil

	case EntriesLoadedMsg:
		if msg.FeedID != m.feedID {
			return m, nil
		}
		m.entries = msg.Entries
		m.entryCursor = 0
		m.entryOffset = 0
		m.applyFilter()
		return m, nil

	case EntryMarkedReadMsg:
		for i := range m.entries {
			if m.entries[i].ID == msg.EntryID {
				m.entries[i].Read = true
			}
		}
		for i := range m.feeds {
			if m.feeds[i].ID == msg.FeedID && m.feeds[i].UnreadCount > 0 {
				m.feeds[i].UnreadCount--
			}
		}
		if n := len(m.visibleEntries()); m.entryCursor >= n && n > 0 {
			m.entryCursor = n - 1
		}
		return m, nil

	case SearchPoolMsg:
		m.searchPool = msg.Entries
		if m.searching && m.searchInput.Value() != "" {
			m.applySearch()
		}
		return m, nil

	case SessionMsg:
		if msg.Engine == "audio" {
			m.audioSession = msg.Session
		} else {
			m.videoSession = msg.Session
		}
		if msg.Session.Active() {
			m.lastEngine = msg.Engine
		}
		if m.showQueue && m.queueCursor >= len(m.barSession().Queue) {
			m.queueCursor = 0
		}
		if msg.Session.State == media.StateLoading {
			return m, tea.Batch(WaitForSessionCmd(m.sessionCh), m.spinner.Tick)
		}
		return m, WaitForSessionCmd(m.sessionCh)

	case spinner.TickMsg:
		// Only animate while something is loading
		if m.barSession().State == media.StateLoading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil

	case ErrMsg:
		return m.setStatus(styles.ErrorStyle.Render(msg.Error()))

	case StatusExpiredMsg:
		if msg.ID == m.statusID {
			m.statusMsg = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Filter input captures everything except escape and enter
	if m.filtering {
		switch msg.String() {
		case "esc":
			m.filtering = false
			m.filterInput.Blur()
			m.filterInput.SetValue("")
			m.applyFilter()
			return m, nil
		case "enter":
			m.filtering = false
			m.filterInput.Blur()
			return m, nil
		default:
			var cmd tea.Cmd
			m.filterInput, cmd = m.filterInput.Update(msg)
			m.applyFilter()
			return m, cmd
		}
	}

	if m.searching {
		return m.handleSearchKey(msg)
	}

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.showQueue {
		return m.handleQueueKey(msg)
	}

	switch {
	case key.Matches(msg, m.Keys.Quit):
		m.Audio.Stop()
		m.Video.Stop()
		return m, tea.Quit

	case key.Matches(msg, m.Keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.Keys.Filter):
		if m.focus == PaneEntries {
			m.filtering = true
			m.filterInput.Focus()
			m.filterInput.SetValue("")
		}
		return m, nil

	case key.Matches(msg, m.Keys.GlobalSearch):
		m.searching = true
		m.searchInput.Focus()
		m.searchInput.SetValue("")
		m.searchResults = nil
		m.searchCursor = 0
		return m, LoadSearchPoolCmd(m.FeedSvc)

	case key.Matches(msg, m.Keys.Refresh):
		return m, tea.Batch(
			LoadFeedsCmd(m.FeedSvc, true),
			LoadEntriesCmd(m.FeedSvc, m.feedID, true),
		)

	case key.Matches(msg, m.Keys.HardRefresh):
		return m, tea.Batch(
			LoadFeedsCmd(m.FeedSvc, true),
			HardRefreshCmd(m.FeedSvc, m.feedID),
		)

	case key.Matches(msg, m.Keys.PauseResume):
		m.togglePause()
		return m, nil

	case key.Matches(msg, m.Keys.StopPlayer):
		if eng := m.barEngineName(); eng == "video" {
			m.Video.Stop()
		} else {
			m.Audio.Stop()
		}
		return m, nil

	case key.Matches(msg, m.Keys.ShowQueue):
		m.showQueue = true
		m.queueCursor = 0
		return m, nil

	case key.Matches(msg, m.Keys.PlayRecent):
		return m.setStatusAnd(
			"queueing recent episodes",
			PlayRecentCmd(m.FeedSvc, m.Audio, m.recentLimit),
		)

	case key.Matches(msg, m.Keys.Escape):
		if m.focus == PaneReader {
			m.focus = PaneEntries
		}
		return m, nil
	}

	switch m.focus {
	case PaneFeeds:
		return m.handleFeedKey(msg)
	case PaneEntries:
		return m.handleEntryKey(msg)
	case PaneReader:
		return m.handleReaderKey(msg)
	}
	return m, nil
}

func (m Model) handleFeedKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Row 0 is the synthetic recent timeline, feeds follow
	rows := len(m.feeds) + 1
	switch {
	case key.Matches(msg, m.Keys.Up):
		if m.feedCursor > 0 {
			m.feedCursor--
		}
	case key.Matches(msg, m.Keys.Down):
		if m.feedCursor < rows-1 {
			m.feedCursor++
		}
	case key.Matches(msg, m.Keys.Home):
		m.feedCursor = 0
	case key.Matches(msg, m.Keys.End):
		m.feedCursor = rows - 1
	case key.Matches(msg, m.Keys.Enter), key.Matches(msg, m.Keys.Right):
		m.feedID = m.selectedFeedID()
		m.focus = PaneEntries
		return m, LoadEntriesCmd(m.FeedSvc, m.feedID, false)
	}
	return m, nil
}

func (m Model) handleEntryKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	visible := m.visibleEntries()
	switch {
	case key.Matches(msg, m.Keys.Up):
		if m.entryCursor > 0 {
			m.entryCursor--
		}
	case key.Matches(msg, m.Keys.Down):
		if m.entryCursor < len(visible)-1 {
			m.entryCursor++
		}
	case key.Matches(msg, m.Keys.HalfUp):
		m.entryCursor -= m.contentHeight() / 2
		if m.entryCursor < 0 {
			m.entryCursor = 0
		}
	case key.Matches(msg, m.Keys.HalfDown):
		m.entryCursor += m.contentHeight() / 2
		if m.entryCursor >= len(visible) {
			m.entryCursor = len(visible) - 1
		}
	case key.Matches(msg, m.Keys.Home):
		m.entryCursor = 0
	case key.Matches(msg, m.Keys.End):
		m.entryCursor = len(visible) - 1
	case key.Matches(msg, m.Keys.Left):
		m.focus = PaneFeeds

	case key.Matches(msg, m.Keys.Enter):
		entry, ok := m.selectedEntry()
		if !ok {
			return m, nil
		}
		return m.openEntry(entry)

	case key.Matches(msg, m.Keys.Right):
		if entry, ok := m.selectedEntry(); ok {
			m.openReader(entry)
		}

	case key.Matches(msg, m.Keys.MarkRead):
		if entry, ok := m.selectedEntry(); ok && !entry.Read {
			return m, MarkReadCmd(m.FeedSvc, entry.ID, entry.FeedID)
		}

	case key.Matches(msg, m.Keys.ToggleRead):
		m.showRead = !m.showRead
		m.entryCursor = 0
		m.entryOffset = 0

	case key.Matches(msg, m.Keys.Queue):
		entry, ok := m.selectedEntry()
		if !ok {
			return m, nil
		}
		d := media.Resolve(entry)
		if d == nil {
			return m.setStatus("nothing playable in this entry")
		}
		var added bool
		if d.Kind == media.KindAudio {
			added = m.Audio.AddToQueue(*d, entry.Ref())
		} else {
			added = m.Video.AddToQueue(*d, entry.Ref())
		}
		if !added {
			return m.setStatus("already queued")
		}
		return m.setStatus("queued: " + entry.Title)

	case key.Matches(msg, m.Keys.PlaySeries):
		if m.feedID == service.RecentFeedID {
			return m.setStatus("select a feed to play its series")
		}
		m.Audio.PlaySeries(m.feedID, m.entries)
		m.Video.PlaySeries(m.feedID, m.entries)
		return m, nil
	}

	if m.entryCursor < 0 {
		m.entryCursor = 0
	}
	if m.entryCursor < m.entryOffset {
		m.entryOffset = m.entryCursor
	}
	if page := m.contentHeight(); m.entryCursor >= m.entryOffset+page {
		m.entryOffset = m.entryCursor - page + 1
	}
	return m, nil
}

func (m Model) handleReaderKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Left):
		m.focus = PaneEntries
		return m, nil
	}
	var cmd tea.Cmd
	m.reader, cmd = m.reader.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.searching = false
		m.searchInput.Blur()
		return m, nil

	case "enter":
		if m.searchCursor >= len(m.searchResults) {
			return m, nil
		}
		entry := m.searchResults[m.searchCursor]
		m.searching = false
		m.searchInput.Blur()
		return m.openEntry(entry)

	case "down", "ctrl+n":
		if m.searchCursor < len(m.searchResults)-1 {
			m.searchCursor++
		}
		return m, nil

	case "up", "ctrl+p":
		if m.searchCursor > 0 {
			m.searchCursor--
		}
		return m, nil

	default:
		var cmd tea.Cmd
		m.searchInput, cmd = m.searchInput.Update(msg)
		m.applySearch()
		return m, cmd
	}
}

// applySearch re-ranks the search pool against the current query
func (m *Model) applySearch() {
	m.searchResults = service.SearchEntries(m.searchInput.Value(), m.searchPool)
	m.searchCursor = 0
}

// openEntry plays the entry's media when it has any, otherwise opens the
// reader, and marks it read either way
func (m Model) openEntry(entry domain.Entry) (tea.Model, tea.Cmd) {
	if d := media.Resolve(entry); d != nil {
		m.playDescriptor(*d, entry)
		return m, MarkReadCmd(m.FeedSvc, entry.ID, entry.FeedID)
	}
	m.openReader(entry)
	return m, MarkReadCmd(m.FeedSvc, entry.ID, entry.FeedID)
}

func (m Model) handleQueueKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	queue := m.barSession().Queue
	switch msg.String() {
	case "esc", "q", "Q":
		m.showQueue = false
	case "j", "down":
		if m.queueCursor < len(queue)-1 {
			m.queueCursor++
		}
	case "k", "up":
		if m.queueCursor > 0 {
			m.queueCursor--
		}
	case "d", "x":
		if m.queueCursor < len(queue) {
			id := queue[m.queueCursor].Descriptor.Identity()
			if m.barEngineName() == "video" {
				m.Video.RemoveFromQueue(id)
			} else {
				m.Audio.RemoveFromQueue(id)
			}
		}
	}
	return m, nil
}

// playDescriptor routes a resolved descriptor to the engine that owns its kind
func (m *Model) playDescriptor(d media.Descriptor, entry domain.Entry) {
	if d.Kind == media.KindAudio {
		m.Audio.Play(d, entry.Ref())
		return
	}
	m.Video.Play(d, entry.Ref())
}

// togglePause pauses a playing engine or resumes a paused one
func (m *Model) togglePause() {
	for _, s := range []struct {
		session media.Session
		pause   func()
		resume  func()
	}{
		{m.audioSession, m.Audio.Pause, m.Audio.Resume},
		{m.videoSession, m.Video.Pause, m.Video.Resume},
	} {
		switch s.session.State {
		case media.StatePlaying:
			s.pause()
			return
		case media.StatePaused:
			s.resume()
			return
		}
	}
}

func (m *Model) openReader(entry domain.Entry) {
	m.reader.Width = m.readerWidth()
	m.reader.Height = m.contentHeight()
	m.reader.SetContent(renderEntryBody(entry, m.reader.Width))
	m.reader.GotoTop()
	m.focus = PaneReader
}

func (m Model) setStatus(text string) (tea.Model, tea.Cmd) {
	return m.setStatusAnd(text, nil)
}

func (m Model) setStatusAnd(text string, cmd tea.Cmd) (tea.Model, tea.Cmd) {
	m.statusMsg = text
	m.statusID++
	expire := ExpireStatusCmd(m.statusID, 4*time.Second)
	if cmd == nil {
		return m, expire
	}
	return m, tea.Batch(cmd, expire)
}

// applyFilter recomputes the fuzzy filtered index set from the input value
func (m *Model) applyFilter() {
	query := m.filterInput.Value()
	if query == "" {
		m.filteredIdx = nil
		return
	}

	titles := make([]string, len(m.entries))
	for i, e := range m.entries {
		titles[i] = strings.ToLower(e.Title)
	}
	matches := fuzzy.Find(strings.ToLower(query), titles)

	m.filteredIdx = make([]int, len(matches))
	for i, match := range matches {
		m.filteredIdx[i] = match.Index
	}
	m.entryCursor = 0
	m.entryOffset = 0
}

func (m Model) visibleEntries() []domain.Entry {
	var out []domain.Entry
	if m.filteredIdx == nil {
		out = m.entries
	} else {
		out = make([]domain.Entry, len(m.filteredIdx))
		for i, idx := range m.filteredIdx {
			out[i] = m.entries[idx]
		}
	}
	if m.showRead {
		return out
	}
	kept := make([]domain.Entry, 0, len(out))
	for _, e := range out {
		if !e.Read {
			kept = append(kept, e)
		}
	}
	return kept
}

func (m Model) selectedEntry() (domain.Entry, bool) {
	visible := m.visibleEntries()
	if m.entryCursor < 0 || m.entryCursor >= len(visible) {
		return domain.Entry{}, false
	}
	return visible[m.entryCursor], true
}

func (m Model) selectedFeedID() int64 {
	if m.feedCursor == 0 {
		return service.RecentFeedID
	}
	if m.feedCursor-1 < len(m.feeds) {
		return m.feeds[m.feedCursor-1].ID
	}
	return service.RecentFeedID
}

// barEngineName picks the engine the now playing bar and queue overlay act
// on. The coordinator keeps at most one engine non-idle, so ties only happen
// in transient windows; the most recently active engine wins those. When
// both are idle, a queue that survived a stop still deserves the slot.
func (m Model) barEngineName() string {
	if m.lastEngine == "video" && m.videoSession.Active() {
		return "video"
	}
	if m.audioSession.Active() {
		return "audio"
	}
	if m.videoSession.Active() {
		return "video"
	}
	if len(m.audioSession.Queue) > 0 && (m.lastEngine != "video" || len(m.videoSession.Queue) == 0) {
		return "audio"
	}
	return "video"
}

func (m Model) barSession() media.Session {
	if m.barEngineName() == "audio" {
		return m.audioSession
	}
	return m.videoSession
}

func (m Model) feedColumnWidth() int {
	w := m.width * FeedColumnPercent / 100
	if w < MinColumnWidth {
		w = MinColumnWidth
	}
	return w
}

func (m Model) readerWidth() int {
	w := m.width - 4
	if w < MinColumnWidth {
		w = MinColumnWidth
	}
	return w
}

func (m Model) contentHeight() int {
	h := m.height - ChromeHeight - 2 // borders
	if h < 3 {
		h = 3
	}
	return h
}

// renderEntryBody flattens entry HTML into readable reader text
func renderEntryBody(entry domain.Entry, width int) string {
	var b strings.Builder
	b.WriteString(styles.TitleStyle.Render(entry.Title))
	b.WriteString("\n")
	meta := entry.FeedTitle
	if entry.Author != "" {
		meta += " · " + entry.Author
	}
	meta += " · " + entry.PublishedAt.Format("Jan 2, 2006")
	b.WriteString(styles.SubtitleStyle.Render(meta))
	b.WriteString("\n\n")
	b.WriteString(flattenHTML(entry.Content))
	if entry.URL != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.DimStyle.Render(entry.URL))
	}
	return lipgloss.NewStyle().Width(width).Render(b.String())
}

// flattenHTML strips tags and decodes the handful of entities that show up
// in feed content. Good enough for terminal reading, not a sanitizer.
func flattenHTML(s string) string {
	var b strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
		case !inTag:
			b.WriteRune(r)
		}
	}
	r := strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&nbsp;", " ",
		"&amp;", "&",
	)
	return strings.TrimSpace(r.Replace(b.String()))
}

// entryGlyph returns the media indicator for an entry row
func entryGlyph(entry domain.Entry) string {
	kind, ok := media.Playable(entry)
	if !ok {
		return " "
	}
	if kind == media.KindAudio {
		return styles.MediaStyle.Render(styles.AudioChar)
	}
	return styles.MediaStyle.Render(styles.VideoChar)
}
