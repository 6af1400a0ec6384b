package styles

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/medbook/internal/domain"
)

// Color palette
var (
	Teal       = lipgloss.Color("#14B8A6")
	SlateDark  = lipgloss.Color("#1F2937")
	SlateLight = lipgloss.Color("#374151")
	DimGray    = lipgloss.Color("#6B7280")
	LightGray  = lipgloss.Color("#9CA3AF")
	White      = lipgloss.Color("#F9FAFB")
	Green      = lipgloss.Color("#10B981")
	Red        = lipgloss.Color("#EF4444")
	Amber      = lipgloss.Color("#F59E0B")
	Blue       = lipgloss.Color("#3B82F6")
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
)

// Tab bar styles
var (
	ActiveTabStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(Teal).
			Bold(true).
			Padding(0, 1)

	InactiveTabStyle = lipgloss.NewStyle().
				Foreground(LightGray).
				Padding(0, 1)
)

// List item styles
var (
	SelectedItemStyle = lipgloss.NewStyle().
				Foreground(White).
				Background(SlateLight).
				Padding(0, 1)

	NormalItemStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Padding(0, 1)
)

// Panel styles
var (
	BrowserStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(DimGray).
			Padding(0, 1)

	ConfirmStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Red).
			Padding(0, 2)
)

// Help styles
var (
	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(Teal)

	HelpDescStyle = lipgloss.NewStyle().
			Foreground(DimGray)
)

// Badge styles
var (
	BadgeStyle = lipgloss.NewStyle().
			Foreground(White).
			Background(Red).
			Padding(0, 1)

	DimBadgeStyle = lipgloss.NewStyle().
			Foreground(LightGray).
			Background(SlateLight).
			Padding(0, 1)
)

// Spinner style
var (
	SpinnerStyle = lipgloss.NewStyle().
		Foreground(Teal)
)

// Filter styles
var (
	FilterStyle = lipgloss.NewStyle().
			Foreground(Teal)

	FilterPromptStyle = lipgloss.NewStyle().
				Foreground(Teal).
				Bold(true)
)

var statusColors = map[domain.AppointmentStatus]lipgloss.Color{
	domain.StatusPending:   Amber,
	domain.StatusConfirmed: Blue,
	domain.StatusCompleted: Green,
	domain.StatusCancelled: DimGray,
	domain.StatusRejected:  Red,
}

// RenderStatus renders an appointment status as a colored label
func RenderStatus(status domain.AppointmentStatus) string {
	color, ok := statusColors[status]
	if !ok {
		color = LightGray
	}
	return lipgloss.NewStyle().Foreground(color).Render(string(status))
}

// RenderBadge renders a count badge, dimmed when zero
func RenderBadge(label string, count int) string {
	text := label
	if count > 0 {
		text = label + " " + itoa(count)
		return BadgeStyle.Render(text)
	}
	return DimBadgeStyle.Render(text)
}

// Truncate truncates a string to the given width with ellipsis
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 3 {
		return string(r[:width])
	}
	return string(r[:width-3]) + "..."
}

func itoa(n int) string {
	if n > 99 {
		return "99+"
	}
	return strconv.Itoa(n)
}
