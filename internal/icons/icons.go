// Package icons provides the status glyphs of the now-playing screen.
package icons

// Style represents the icon style to use.
type Style string

const (
	StyleNerd    Style = "nerd"
	StyleUnicode Style = "unicode"
	StyleNone    Style = "none"
)

// Icons holds the icon characters for the current style.
type Icons struct {
	Play       string
	Pause      string
	Shuffle    string
	RepeatAll  string
	RepeatOne  string
	Favorite   string
	Volume     string
	VolumeMute string
	Podcast    string
}

var (
	nerdIcons = Icons{
		Play:       "\uf04b", // nf-fa-play
		Pause:      "\uf04c", // nf-fa-pause
		Shuffle:    "󰒟",      // nf-md-shuffle
		RepeatAll:  "󰑖",      // nf-md-repeat
		RepeatOne:  "󰑘",      // nf-md-repeat_once
		Favorite:   "󰣐",      // nf-md-heart
		Volume:     "󰕾",      // nf-md-volume_high
		VolumeMute: "󰝟",      // nf-md-volume_mute
		Podcast:    "\U000f0994 ", // nf-md-podcast
	}

	unicodeIcons = Icons{
		Play:       "▶",
		Pause:      "⏸",
		Shuffle:    "🔀",
		RepeatAll:  "🔁",
		RepeatOne:  "🔂",
		Favorite:   "♥",
		Volume:     "🔊",
		VolumeMute: "🔇",
		Podcast:    "🎙 ",
	}

	noneIcons = Icons{
		Play:       ">",
		Pause:      "||",
		Shuffle:    "[S]",
		RepeatAll:  "[R]",
		RepeatOne:  "[1]",
		Favorite:   "*",
		Volume:     "vol",
		VolumeMute: "mute",
		Podcast:    "",
	}

	// current holds the active icon set
	current = noneIcons
)

// Init initializes the icons based on the style.
// Call this once at startup with the config value.
func Init(style string) {
	switch Style(style) {
	case StyleNerd:
		current = nerdIcons
	case StyleUnicode:
		current = unicodeIcons
	default:
		current = noneIcons
	}
}

// Play returns the playing status icon.
func Play() string {
	return current.Play
}

// Pause returns the paused status icon.
func Pause() string {
	return current.Pause
}

// Shuffle returns the shuffle icon.
func Shuffle() string {
	return current.Shuffle
}

// RepeatAll returns the repeat all icon.
func RepeatAll() string {
	return current.RepeatAll
}

// RepeatOne returns the repeat one icon.
func RepeatOne() string {
	return current.RepeatOne
}

// Favorite returns the favorite/heart icon.
func Favorite() string {
	return current.Favorite
}

// Volume returns the volume icon, or the muted one.
func Volume(muted bool) string {
	if muted {
		return current.VolumeMute
	}
	return current.Volume
}

// FormatPodcast formats a podcast name with the appropriate icon.
func FormatPodcast(name string) string {
	if current == noneIcons {
		return name
	}
	return current.Podcast + name
}
