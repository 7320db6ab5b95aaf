package output

import "github.com/charmbracelet/lipgloss"

// Color constants using the ANSI 256-color palette.
// These provide a consistent color scheme across formatters.
const (
	// ColorPrimary is used for primary elements like headers (bright blue).
	ColorPrimary = lipgloss.Color("39")

	// ColorSuccess is used for additions and positive status (green).
	ColorSuccess = lipgloss.Color("42")

	// ColorWarning is used for updates and warnings (orange/yellow).
	ColorWarning = lipgloss.Color("214")

	// ColorDanger is used for bitrot and errors (red).
	ColorDanger = lipgloss.Color("196")

	// ColorMuted is used for secondary text (gray).
	ColorMuted = lipgloss.Color("245")
)

// Box styles for grouped content.
var (
	// HeaderBox is the style for the header section containing run info.
	HeaderBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPrimary).
			Padding(0, 1).
			MarginBottom(1)

	// FooterBox is the style for the summary section.
	FooterBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorMuted).
			Padding(0, 1).
			MarginTop(1)
)

// Text styles per change category and for general content.
var (
	// LabelStyle is used for field labels (e.g., "Root:", "Mode:").
	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// ValueStyle is used for field values.
	ValueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	// AddedStyle renders added paths.
	AddedStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// RemovedStyle renders removed paths.
	RemovedStyle = lipgloss.NewStyle().
			Foreground(ColorDanger)

	// UpdatedStyle renders updated paths.
	UpdatedStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// MovedStyle renders moves.
	MovedStyle = lipgloss.NewStyle().
			Foreground(ColorPrimary)

	// BitrotStyle renders bitrot paths; bold because this is the one
	// category that signals silent corruption.
	BitrotStyle = lipgloss.NewStyle().
			Foreground(ColorDanger).
			Bold(true)

	// WarningStyle renders per-path I/O warnings.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// MutedStyle renders secondary information.
	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)
)
