package nowplaying

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/soundwave/internal/catalog"
	"github.com/llehouerou/soundwave/internal/icons"
	"github.com/llehouerou/soundwave/internal/playback"
	"github.com/llehouerou/soundwave/internal/theme"
	"github.com/llehouerou/soundwave/internal/ui/render"
)

// barHeight is the height of the bordered now-playing bar.
const barHeight = 3

const (
	separator   = "   "
	minBarWidth = 10
)

// renderBar draws the one-line now-playing bar:
//
//	Title   Subject   ▶  ━━━━────   1:23 / 3:58   🔊  70%  🔀 🔁 ♥
func renderBar(s playback.Session, muted bool, width int, th theme.Theme) string {
	box := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(th.Lip(theme.Border)).
		Padding(0, 2).
		Width(max(width-2, 0))
	innerWidth := max(width-6, 0)

	if s.CurrentTrack == nil {
		idle := lipgloss.NewStyle().Foreground(th.Lip(theme.FgMuted)).Render("Nothing playing")
		return box.Render(render.Row(idle, volumeText(s.Volume, muted, th), innerWidth))
	}

	title := render.Sanitize(s.CurrentTrack.Title)
	if title == "" {
		title = "Unknown Track"
	}
	subject := render.Sanitize(s.CurrentTrack.Subject())
	if s.CurrentTrack.ContentType == catalog.Podcast && subject != "" {
		subject = icons.FormatPodcast(subject)
	}

	status := icons.Play()
	if !s.IsPlaying {
		status = icons.Pause()
	}

	right := clockText(s.CurrentTime, s.Duration, th) + separator + volumeText(s.Volume, muted, th)
	if flags := flagsText(s, th); flags != "" {
		right += separator + flags
	}

	sepWidth := lipgloss.Width(separator)
	fixedWidth := sepWidth + lipgloss.Width(status) + 2 + sepWidth + lipgloss.Width(right)
	available := innerWidth - fixedWidth - minBarWidth

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(th.Lip(theme.Fg))
	subjectStyle := lipgloss.NewStyle().Foreground(th.Lip(theme.FgMuted))
	titleWidth := lipgloss.Width(title)
	subjectWidth := lipgloss.Width(subject)

	var styledTitle, styledSubject string
	var used int
	switch {
	case subject != "" && titleWidth+sepWidth+subjectWidth <= available:
		styledTitle = titleStyle.Render(title)
		styledSubject = subjectStyle.Render(subject)
		used = titleWidth + sepWidth + subjectWidth
	case subject != "" && titleWidth+sepWidth < available:
		maxSubject := available - titleWidth - sepWidth
		styledTitle = titleStyle.Render(title)
		styledSubject = subjectStyle.Render(render.Truncate(subject, maxSubject))
		used = titleWidth + sepWidth + lipgloss.Width(render.Truncate(subject, maxSubject))
	default:
		maxTitle := max(available, 10)
		short := render.Truncate(title, maxTitle)
		styledTitle = titleStyle.Render(short)
		used = lipgloss.Width(short)
	}

	barWidth := max(innerWidth-used-fixedWidth, 5)

	var content strings.Builder
	content.WriteString(styledTitle)
	if styledSubject != "" {
		content.WriteString(separator)
		content.WriteString(styledSubject)
	}
	content.WriteString(separator)
	content.WriteString(status)
	content.WriteString("  ")
	content.WriteString(progressBar(s.CurrentTime, s.Duration, barWidth, th))
	content.WriteString(separator)
	content.WriteString(right)

	return box.Render(content.String())
}

// progressBar renders the played fraction. It stays empty while the
// duration is unknown.
func progressBar(position, duration time.Duration, width int, th theme.Theme) string {
	var ratio float64
	if duration > 0 {
		ratio = min(max(float64(position)/float64(duration), 0), 1)
	}
	filled := min(int(float64(width)*ratio), width)
	return lipgloss.NewStyle().Foreground(th.Lip(theme.Primary)).Render(strings.Repeat("━", filled)) +
		lipgloss.NewStyle().Foreground(th.Lip(theme.Muted)).Render(strings.Repeat("─", width-filled))
}

func clockText(position, duration time.Duration, th theme.Theme) string {
	text := playback.FormatClock(position) + " / " + playback.FormatClock(duration)
	return lipgloss.NewStyle().Foreground(th.Lip(theme.FgMuted)).Render(text)
}

func volumeText(volume float64, muted bool, th theme.Theme) string {
	pct := int(math.Round(volume * 100))
	return lipgloss.NewStyle().Foreground(th.Lip(theme.FgMuted)).
		Render(fmt.Sprintf("%s %3d%%", icons.Volume(muted), pct))
}

// flagsText lists the active shuffle, repeat and favorite indicators.
func flagsText(s playback.Session, th theme.Theme) string {
	active := lipgloss.NewStyle().Foreground(th.Lip(theme.Primary))
	var flags []string
	if s.Shuffle {
		flags = append(flags, active.Render(icons.Shuffle()))
	}
	switch s.RepeatMode {
	case playback.RepeatAll:
		flags = append(flags, active.Render(icons.RepeatAll()))
	case playback.RepeatOne:
		flags = append(flags, active.Render(icons.RepeatOne()))
	case playback.RepeatOff:
	}
	if s.IsFavorite {
		flags = append(flags, lipgloss.NewStyle().Foreground(th.Lip(theme.Secondary)).Render(icons.Favorite()))
	}
	return strings.Join(flags, " ")
}
