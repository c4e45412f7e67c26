// Package nowplaying is the terminal now-playing screen: the current track,
// its progress and the live waveform.
package nowplaying

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/llehouerou/soundwave/internal/errmsg"
	"github.com/llehouerou/soundwave/internal/keymap"
	"github.com/llehouerou/soundwave/internal/playback"
	"github.com/llehouerou/soundwave/internal/theme"
	"github.com/llehouerou/soundwave/internal/ui/render"
	"github.com/llehouerou/soundwave/internal/visualizer"
)

const (
	seekStep     = 5 * time.Second
	seekStepLong = 30 * time.Second
	volumeStep   = 0.05
	toastTTL     = 4 * time.Second
)

// Controller is the part of the playback controller the screen drives.
type Controller interface {
	Snapshot() playback.Session
	TogglePlayPause()
	PauseTrack()
	PlayNext()
	PlayPrevious()
	SeekTo(position time.Duration)
	SetVolume(v float64)
	ToggleShuffle()
	ToggleRepeat()
	ToggleFavorite(ctx context.Context) error
	RemoveFromQueue(index int)
	ClearQueue()
}

// Visualizer is the renderer lifecycle the screen controls.
type Visualizer interface {
	Bind(src visualizer.Source) error
	Unbind() error
	Resize(width, height int)
}

// Option configures a Model.
type Option func(*Model)

// WithVisualizer shows the waveform of src above the bar. The renderer
// draws on surface; it is bound immediately when on is set.
func WithVisualizer(v Visualizer, src visualizer.Source, surface *Surface, on bool) Option {
	return func(m *Model) {
		m.viz = v
		m.vizSrc = src
		m.surface = surface
		m.vizOn = on
	}
}

// WithThemes sets the colour provider cycled by the theme key.
func WithThemes(p *theme.Provider) Option {
	return func(m *Model) { m.themes = p }
}

// WithLogger sets the screen's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Model) { m.log = l }
}

// WithFavoriteTimeout bounds the favorite toggle.
func WithFavoriteTimeout(d time.Duration) Option {
	return func(m *Model) { m.favoriteTimeout = d }
}

// Model is the bubbletea model of the now-playing screen.
type Model struct {
	ctrl     Controller
	sub      *playback.Subscription
	resolver *keymap.Resolver
	themes   *theme.Provider
	log      zerolog.Logger

	viz     Visualizer
	vizSrc  visualizer.Source
	surface *Surface
	vizOn   bool

	help     help.Model
	showHelp bool
	globalKeys   []key.Binding
	playbackKeys []key.Binding

	session playback.Session
	width   int
	height  int

	// preMute is the volume to restore; the controller only knows the
	// current level. Any other volume change ends the mute.
	muted   bool
	preMute float64

	toast           string
	toastID         int
	favoriteTimeout time.Duration
}

// New creates the screen. sub must come from the same controller.
func New(ctrl Controller, sub *playback.Subscription, opts ...Option) Model {
	m := Model{
		ctrl:            ctrl,
		sub:             sub,
		resolver:        keymap.Default(),
		log:             log.Logger,
		help:            help.New(),
		globalKeys:      keymap.HelpKeys(keymap.ByContext(keymap.Global)),
		playbackKeys:    keymap.HelpKeys(keymap.ByContext(keymap.Playback)),
		session:         ctrl.Snapshot(),
		favoriteTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(&m)
	}
	if m.themes == nil {
		m.themes = theme.NewProvider()
	}
	if m.viz != nil && m.vizOn {
		if err := m.viz.Bind(m.vizSrc); err != nil {
			m.toast = errmsg.Format(errmsg.OpVisualizerStart, err)
		}
	}
	return m
}

type sessionMsg playback.Session

type errorMsg playback.ErrorEvent

type doneMsg struct{}

type favoriteMsg struct{ err error }

type clearToastMsg struct{ id int }

// waitEvent reads the next subscription event.
func waitEvent(sub *playback.Subscription) tea.Cmd {
	return func() tea.Msg {
		select {
		case s := <-sub.Changed:
			return sessionMsg(s)
		case e := <-sub.Error:
			return errorMsg(e)
		case <-sub.Done:
			return doneMsg{}
		}
	}
}

// Init starts listening to the controller and the visualizer.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitEvent(m.sub)}
	if m.surface != nil {
		cmds = append(cmds, m.surface.wait())
	}
	return tea.Batch(cmds...)
}

// Update handles a message.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case sessionMsg:
		m.session = playback.Session(msg)
		return m, waitEvent(m.sub)

	case errorMsg:
		// Favorite failures come back through favoriteMsg as well.
		if msg.Operation == "favorite" {
			return m, waitEvent(m.sub)
		}
		m.log.Debug().Str("op", msg.Operation).Str("track_id", msg.TrackID).Err(msg.Err).Msg("playback error shown")
		cmd := m.showToast(errmsg.Format(errmsg.ForEvent(msg.Operation), msg.Err))
		return m, tea.Batch(cmd, waitEvent(m.sub))

	case doneMsg:
		return m, tea.Quit

	case frameMsg:
		return m, m.surface.wait()

	case favoriteMsg:
		if msg.err != nil {
			return m, m.showToast(errmsg.Format(errmsg.OpFavoriteToggle, msg.err))
		}
		return m, nil

	case clearToastMsg:
		if msg.id == m.toastID {
			m.toast = ""
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleAction(m.resolver.ResolveKey(msg, m.activeContexts()...))
	}
	return m, nil
}

// activeContexts lists the key contexts beyond global. Playback keys apply
// only while something is queued.
func (m Model) activeContexts() []string {
	if m.session.CurrentTrack == nil && len(m.session.Queue) == 0 {
		return nil
	}
	return []string{keymap.Playback}
}

func (m *Model) showToast(text string) tea.Cmd {
	m.toastID++
	m.toast = text
	id := m.toastID
	return tea.Tick(toastTTL, func(time.Time) tea.Msg { return clearToastMsg{id: id} })
}

func (m Model) handleAction(action keymap.Action) (tea.Model, tea.Cmd) {
	s := m.session
	switch action {
	case keymap.ActionQuit:
		return m, tea.Quit
	case keymap.ActionHelp:
		m.showHelp = !m.showHelp
		m.resize()
	case keymap.ActionPlayPause:
		m.ctrl.TogglePlayPause()
	case keymap.ActionStop:
		m.ctrl.PauseTrack()
		m.ctrl.SeekTo(0)
	case keymap.ActionNextTrack:
		m.ctrl.PlayNext()
	case keymap.ActionPrevTrack:
		m.ctrl.PlayPrevious()
	case keymap.ActionSeekForward:
		m.seekBy(seekStep)
	case keymap.ActionSeekBack:
		m.seekBy(-seekStep)
	case keymap.ActionSeekForwardLong:
		m.seekBy(seekStepLong)
	case keymap.ActionSeekBackLong:
		m.seekBy(-seekStepLong)
	case keymap.ActionVolumeUp:
		m.changeVolume(volumeStep)
	case keymap.ActionVolumeDown:
		m.changeVolume(-volumeStep)
	case keymap.ActionMute:
		m.toggleMute()
	case keymap.ActionCycleRepeat:
		m.ctrl.ToggleRepeat()
	case keymap.ActionToggleShuffle:
		m.ctrl.ToggleShuffle()
	case keymap.ActionToggleFavorite:
		if s.CurrentTrack == nil {
			return m, nil
		}
		return m, m.toggleFavorite()
	case keymap.ActionRemoveCurrent:
		if s.CurrentTrack != nil {
			m.ctrl.RemoveFromQueue(s.CurrentIndex)
		}
	case keymap.ActionClearQueue:
		m.ctrl.ClearQueue()
	case keymap.ActionToggleVisualizer:
		return m, m.toggleVisualizer()
	case keymap.ActionCycleTheme:
		m.cycleTheme()
	}
	return m, nil
}

func (m *Model) seekBy(d time.Duration) {
	if m.session.CurrentTrack == nil {
		return
	}
	m.ctrl.SeekTo(max(m.session.CurrentTime+d, 0))
}

func (m *Model) isMuted() bool {
	return m.muted && m.session.Volume == 0
}

func (m *Model) changeVolume(delta float64) {
	base := m.session.Volume
	if m.isMuted() {
		base = m.preMute
	}
	m.muted = false
	m.ctrl.SetVolume(min(max(base+delta, 0), 1))
}

func (m *Model) toggleMute() {
	if m.isMuted() {
		m.muted = false
		m.ctrl.SetVolume(m.preMute)
		return
	}
	m.preMute = m.session.Volume
	m.muted = true
	m.ctrl.SetVolume(0)
}

func (m *Model) toggleFavorite() tea.Cmd {
	ctrl, timeout := m.ctrl, m.favoriteTimeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return favoriteMsg{err: ctrl.ToggleFavorite(ctx)}
	}
}

func (m *Model) toggleVisualizer() tea.Cmd {
	if m.viz == nil {
		return nil
	}
	if m.vizOn {
		m.vizOn = false
		if err := m.viz.Unbind(); err != nil {
			m.log.Debug().Err(err).Msg("unbind visualizer")
		}
		m.surface.Clear()
		m.resize()
		return nil
	}
	m.vizOn = true
	m.resize()
	if err := m.viz.Bind(m.vizSrc); err != nil {
		return m.showToast(errmsg.Format(errmsg.OpVisualizerStart, err))
	}
	return nil
}

func (m *Model) cycleTheme() {
	names := theme.Names()
	current := m.themes.Current().Name
	next := names[0]
	for i, name := range names {
		if name == current {
			next = names[(i+1)%len(names)]
			break
		}
	}
	if err := m.themes.Use(next); err != nil {
		m.log.Warn().Err(err).Str("theme", next).Msg("switch theme")
	}
}

// Volume returns the volume to restore next time: the pre-mute level while
// muted.
func (m Model) Volume() float64 {
	if m.isMuted() {
		return m.preMute
	}
	return m.session.Volume
}

// ThemeName returns the active theme.
func (m Model) ThemeName() string {
	return m.themes.Current().Name
}

func (m *Model) footer() string {
	if m.showHelp {
		half := len(m.playbackKeys) / 2
		return m.help.FullHelpView([][]key.Binding{m.globalKeys, m.playbackKeys[:half], m.playbackKeys[half:]})
	}
	if m.toast != "" {
		th := m.themes.Current()
		return lipgloss.NewStyle().Foreground(th.Lip(theme.Secondary)).Render(render.Truncate(m.toast, m.width))
	}
	return m.help.ShortHelpView(m.globalKeys)
}

// resize gives the visualizer the rows left by the bar and the footer.
func (m *Model) resize() {
	if m.viz == nil {
		return
	}
	if !m.vizOn {
		m.viz.Resize(0, 0)
		return
	}
	rows := max(m.height-barHeight-lipgloss.Height(m.footer()), 0)
	m.viz.Resize(m.width, rows)
}

// View renders the screen.
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}
	th := m.themes.Current()
	parts := make([]string, 0, 3)
	if m.vizOn && m.surface != nil {
		if frame := RenderFrame(m.surface.Frame()); frame != "" {
			parts = append(parts, frame)
		}
	}
	parts = append(parts, renderBar(m.session, m.isMuted(), m.width, th), m.footer())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
