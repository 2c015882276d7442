package styles

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	Teal      = lipgloss.Color("#2DD4BF")
	SlateDark = lipgloss.Color("#1F2937")
	DimGray   = lipgloss.Color("#6B7280")
	LightGray = lipgloss.Color("#9CA3AF")
	White     = lipgloss.Color("#F9FAFB")
	Green     = lipgloss.Color("#10B981")
	Red       = lipgloss.Color("#EF4444")
	Amber     = lipgloss.Color("#F59E0B")
)

// Borders
var (
	ActiveBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Teal)

	InactiveBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(DimGray)
)

// Text styles
var (
	TitleStyle = lipgloss.NewStyle().
			Foreground(White).
			Bold(true)

	SubtitleStyle = lipgloss.NewStyle().
			Foreground(LightGray)

	DimStyle = lipgloss.NewStyle().
			Foreground(DimGray)

	AccentStyle = lipgloss.NewStyle().
			Foreground(Teal)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(Red)

	SuccessStyle = lipgloss.NewStyle().
			Foreground(Green)

	HighlightStyle = lipgloss.NewStyle().
			Foreground(SlateDark).
			Background(Teal).
			Padding(0, 1)
)

// Read status characters (unstyled)
const (
	UnreadChar = "●"
	ReadChar   = " "
)

// Playback kind indicators for entry lists and the now playing bar.
const (
	AudioChar = "♪"
	VideoChar = "▶"
)

var (
	UnreadStyle = lipgloss.NewStyle().Foreground(Teal)
	MediaStyle  = lipgloss.NewStyle().Foreground(Amber)
)

// Now playing bar
var (
	NowPlayingBar = lipgloss.NewStyle().
			Foreground(White).
			Background(SlateDark).
			Padding(0, 1)

	NowPlayingState = lipgloss.NewStyle().
			Foreground(Teal).
			Background(SlateDark).
			Bold(true)
)

// Spinner animation frames
var SpinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}
