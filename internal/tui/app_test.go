package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rillfeed/rill/internal/domain"
	"github.com/rillfeed/rill/internal/media"
)

func TestApplyFilter(t *testing.T) {
	m := NewModel(nil, nil, nil, nil, 25, true)
	m.entries = []domain.Entry{
		{ID: 1, Title: "Understanding Go Generics"},
		{ID: 2, Title: "Rust Borrow Checker Deep Dive"},
		{ID: 3, Title: "Go Modules in Practice"},
	}

	t.Run("empty query shows everything", func(t *testing.T) {
		m.filterInput.SetValue("")
		m.applyFilter()
		if got := len(m.visibleEntries()); got != 3 {
			t.Fatalf("visible = %d, want 3", got)
		}
	})

	t.Run("fuzzy match narrows the list", func(t *testing.T) {
		m.filterInput.SetValue("go")
		m.applyFilter()
		for _, e := range m.visibleEntries() {
			if e.ID == 2 {
				t.Fatalf("rust entry should not match %q", "go")
			}
		}
		if len(m.visibleEntries()) != 2 {
			t.Fatalf("visible = %d, want 2", len(m.visibleEntries()))
		}
	})

	t.Run("filter resets the cursor", func(t *testing.T) {
		m.entryCursor = 2
		m.filterInput.SetValue("modules")
		m.applyFilter()
		if m.entryCursor != 0 {
			t.Fatalf("cursor = %d, want 0", m.entryCursor)
		}
	})

	t.Run("read entries hide unless showRead", func(t *testing.T) {
		m.filterInput.SetValue("")
		m.applyFilter()
		m.entries[1].Read = true

		m.showRead = false
		if got := len(m.visibleEntries()); got != 2 {
			t.Fatalf("visible = %d, want 2 with read hidden", got)
		}
		m.showRead = true
		if got := len(m.visibleEntries()); got != 3 {
			t.Fatalf("visible = %d, want 3 with read shown", got)
		}
	})
}

func TestGlobalSearch(t *testing.T) {
	pool := []domain.Entry{
		{ID: 1, Title: "Understanding Go generics", FeedTitle: "Go Blog"},
		{ID: 2, Title: "Rust borrow checker deep dive", FeedTitle: "Systems Weekly"},
		{ID: 3, Title: "Generics in practice", FeedTitle: "Go Time"},
	}

	t.Run("search key opens the overlay and loads the pool", func(t *testing.T) {
		m := NewModel(nil, nil, nil, nil, 25, true)
		next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'f'}})
		m = next.(Model)
		if !m.searching {
			t.Fatal("search overlay did not open")
		}
		if cmd == nil {
			t.Fatal("expected a pool-loading command")
		}
	})

	t.Run("query ranks the pool", func(t *testing.T) {
		m := NewModel(nil, nil, nil, nil, 25, true)
		m.searching = true
		next, _ := m.Update(SearchPoolMsg{Entries: pool})
		m = next.(Model)

		m.searchInput.SetValue("generics")
		m.applySearch()
		if len(m.searchResults) != 2 {
			t.Fatalf("results = %d, want 2", len(m.searchResults))
		}
		for _, e := range m.searchResults {
			if e.ID == 2 {
				t.Error("unrelated entry matched")
			}
		}
	})

	t.Run("enter opens the selected result", func(t *testing.T) {
		m := NewModel(nil, nil, nil, nil, 25, true)
		m.searching = true
		m.searchPool = pool
		m.searchInput.SetValue("borrow")
		m.applySearch()

		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		m = next.(Model)
		if m.searching {
			t.Fatal("overlay should close on enter")
		}
		if m.focus != PaneReader {
			t.Fatalf("focus = %v, want reader", m.focus)
		}
	})

	t.Run("escape closes without side effects", func(t *testing.T) {
		m := NewModel(nil, nil, nil, nil, 25, true)
		m.searching = true
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyEscape})
		m = next.(Model)
		if m.searching {
			t.Fatal("overlay should close on escape")
		}
	})
}

func TestBarSession(t *testing.T) {
	item := &media.QueueItem{Entry: domain.EntryRef{Title: "ep"}}

	t.Run("prefers the active engine", func(t *testing.T) {
		m := NewModel(nil, nil, nil, nil, 25, true)
		m.videoSession = media.Session{Current: item, State: media.StatePlaying}
		m.lastEngine = "video"
		if got := m.barSession().State; got != media.StatePlaying {
			t.Fatalf("state = %v, want playing", got)
		}
		if m.barEngineName() != "video" {
			t.Fatalf("bar engine = %q, want video", m.barEngineName())
		}
	})

	t.Run("falls back to audio when video goes idle", func(t *testing.T) {
		m := NewModel(nil, nil, nil, nil, 25, true)
		m.lastEngine = "video"
		m.audioSession = media.Session{Current: item, State: media.StatePaused}
		if m.barEngineName() != "audio" {
			t.Fatalf("bar engine = %q, want audio", m.barEngineName())
		}
	})

	t.Run("a queue that survives a stop keeps the slot", func(t *testing.T) {
		m := NewModel(nil, nil, nil, nil, 25, true)
		m.lastEngine = "video" // video played last, then everything stopped
		m.audioSession = media.Session{
			State: media.StateIdle,
			Queue: []media.QueueItem{{Entry: domain.EntryRef{Title: "queued ep"}}},
		}
		if m.barEngineName() != "audio" {
			t.Fatalf("bar engine = %q, want audio", m.barEngineName())
		}
		if got := len(m.barSession().Queue); got != 1 {
			t.Fatalf("bar queue = %d, want 1", got)
		}
	})
}

func TestFormatClock(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{59, "0:59"},
		{61, "1:01"},
		{3599, "59:59"},
		{3661, "1:01:01"},
		{-5, "0:00"},
	}
	for _, tc := range cases {
		if got := formatClock(tc.seconds); got != tc.want {
			t.Errorf("formatClock(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestFlattenHTML(t *testing.T) {
	in := `<p>Hello &amp; welcome to the <a href="x">show</a>.</p>`
	want := "Hello & welcome to the show."
	if got := flattenHTML(in); got != want {
		t.Fatalf("flattenHTML = %q, want %q", got, want)
	}
}

func TestChannelObserverNonBlocking(t *testing.T) {
	ch := make(chan SessionUpdate, 1)
	obs := NewChannelObserver("audio", ch)

	obs.OnSession(media.Session{State: media.StateLoading})
	obs.OnSession(media.Session{State: media.StatePlaying}) // dropped, channel full

	select {
	case upd := <-ch:
		if upd.Engine != "audio" || upd.Session.State != media.StateLoading {
			t.Fatalf("unexpected update: %+v", upd)
		}
	default:
		t.Fatal("expected a buffered update")
	}
}
