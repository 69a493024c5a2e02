package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/unklstewy/plane-spotter/internal/app"
	"github.com/unklstewy/plane-spotter/internal/db"
	"github.com/unklstewy/plane-spotter/internal/log"
	"github.com/unklstewy/plane-spotter/pkg/config"
	"github.com/unklstewy/plane-spotter/pkg/tracking"
)

const maxEvents = 10

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	eventStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("229"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
)

type eventLine struct {
	at   time.Time
	kind string
	text string
}

type model struct {
	app      *app.App
	interval time.Duration

	busy    bool
	steps   int
	fixes   int
	last    tracking.StepResult
	state   tracking.State
	lastAt  time.Time
	nearest string
	events  []eventLine
	err     error

	journalStatus *journalMsg
	width   int
}

type tickMsg time.Time

type stepMsg struct {
	res     tracking.StepResult
	state   tracking.State
	nearest string
	at      time.Time
}

type historyMsg []db.StoredEvent

type journalMsg struct {
	status app.JournalStatus
	err    error
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// step runs one tracker iteration off the UI goroutine.
func (m model) step() tea.Cmd {
	a := m.app
	return func() tea.Msg {
		res := a.Runner.Step(context.Background())

		return stepMsg{res: res, state: a.Runner.Tracker.State(), nearest: nearestLabel(res), at: time.Now()}
	}
}

func nearestLabel(res tracking.StepResult) string {
	switch {
	case res.Err != nil:
		return ""
	case !res.Resolved:
		return "none within radius"
	}
	ap := res.Airport
	return fmt.Sprintf("%s %s (%.1f km)", ap.Ident, ap.Name, ap.DistanceKm)
}

// journal reads the journal health and event counts.
func (m model) journal() tea.Cmd {
	a := m.app
	return func() tea.Msg {
		st, err := a.JournalStatus(context.Background())
		return journalMsg{status: st, err: err}
	}
}

// history loads recent journal entries so a restart keeps the event list.
func (m model) history() tea.Cmd {
	journal := m.app.Journal
	icao := m.app.Config.Aircraft.ICAOHex
	return func() tea.Msg {
		events, err := journal.Recent(context.Background(), icao, maxEvents)
		if err != nil {
			return historyMsg(nil)
		}
		return historyMsg(events)
	}
}

// Init starts the first poll at once; the model is created busy.
func (m model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.step(), tick(m.interval)}
	if m.app.Journal != nil {
		cmds = append(cmds, m.history(), m.journal())
	}
	return tea.Batch(cmds...)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "r":
			if !m.busy {
				m.busy = true
				return m, m.step()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tickMsg:
		if m.busy {
			return m, tick(m.interval)
		}
		m.busy = true
		return m, tea.Batch(m.step(), tick(m.interval))

	case stepMsg:
		m.busy = false
		m.steps++
		m.lastAt = msg.at
		m.err = msg.res.Err
		m.state = msg.state
		if msg.res.Err == nil {
			m.fixes++
			m.last = msg.res
			m.nearest = msg.nearest
		}
		if ev := msg.res.Event; ev != nil {
			m.events = append([]eventLine{{at: ev.At, kind: ev.Kind.String(), text: ev.String()}}, m.events...)
			if len(m.events) > maxEvents {
				m.events = m.events[:maxEvents]
			}
			if m.app.Journal != nil {
				return m, m.journal()
			}
		}

	case journalMsg:
		m.journalStatus = &msg

	case historyMsg:
		// Journal entries are older than anything seen since startup
		for _, ev := range msg {
			if len(m.events) >= maxEvents {
				break
			}
			m.events = append(m.events, eventLine{at: ev.OccurredAt, kind: ev.Kind, text: ev.Message})
		}
	}

	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	cfg := m.app.Config

	title := fmt.Sprintf("plane-spotter  %s", cfg.Aircraft.ICAOHex)
	if cfg.Aircraft.Registration != "" {
		title += "  " + cfg.Aircraft.Registration
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	row := func(label, value string) {
		b.WriteString(labelStyle.Render(label))
		b.WriteString(value)
		b.WriteString("\n")
	}

	var status strings.Builder
	state := m.state
	switch {
	case state.LastLanded == nil:
		row("State:", "waiting for first airport")
	case state.InFlight:
		row("State:", okStyle.Render("in flight"))
	default:
		row("State:", "on the ground")
	}
	if state.LastLanded != nil {
		row("Last landed:", fmt.Sprintf("%s (%s)", state.LastLanded.Name(), state.LastLanded.At.Local().Format("2006-01-02 15:04")))
	}

	switch {
	case m.steps == 0:
		row("Position:", "fetching...")
	case m.fixes == 0:
		row("Position:", "unknown")
	default:
		pos := m.last.Position
		where := pos.Point().String()
		alt := fmt.Sprintf("%.0f ft", pos.AltitudeFt)
		if pos.OnGround {
			alt = "ground"
		}
		row("Position:", fmt.Sprintf("%s  %s  %.0f kt", where, alt, pos.GroundSpeed))
		row("Nearest:", m.nearest)
	}
	if m.err != nil {
		status.WriteString(errorStyle.Render(fmt.Sprintf("last poll failed: %v", m.err)))
	} else if m.steps > 0 {
		status.WriteString(fmt.Sprintf("polled %d times, last at %s", m.steps, m.lastAt.Format("15:04:05")))
	}
	if m.busy {
		status.WriteString(helpStyle.Render("  (polling)"))
	}
	row("Status:", status.String())

	b.WriteString("\n")
	b.WriteString(headerStyle.Render("Recent events"))
	b.WriteString("\n")

	var events strings.Builder
	if len(m.events) == 0 {
		events.WriteString(helpStyle.Render("no events yet"))
	}
	for i, ev := range m.events {
		if i > 0 {
			events.WriteString("\n")
		}
		events.WriteString(fmt.Sprintf("%s  %-9s %s",
			ev.at.Local().Format("01-02 15:04"), ev.kind, eventStyle.Render(ev.text)))
	}
	box := boxStyle
	if m.width > 4 {
		box = box.Width(m.width - 4)
	}
	b.WriteString(box.Render(events.String()))

	if m.journalStatus != nil {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("Journal"))
		b.WriteString("\n")
		b.WriteString(box.Render(journalSummary(*m.journalStatus)))
	}

	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render(fmt.Sprintf("polling every %s  r: poll now  q: quit", m.interval)))
	b.WriteString("\n")

	return b.String()
}

func journalSummary(msg journalMsg) string {
	st := msg.status
	if !st.Healthy {
		return errorStyle.Render("unhealthy")
	}
	if msg.err != nil {
		return errorStyle.Render(msg.err.Error())
	}

	kinds := make([]string, 0, len(st.ByKind))
	for kind := range st.ByKind {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)

	var b strings.Builder
	b.WriteString(okStyle.Render("ok"))
	b.WriteString(fmt.Sprintf("  %d events", st.Events))
	for _, kind := range kinds {
		b.WriteString(fmt.Sprintf("  %s %d", kind, st.ByKind[kind]))
	}
	return b.String()
}

func main() {
	configPath := flag.String("config", "configs/config.json", "Path to configuration file")
	icao := flag.String("icao", "", "ICAO hex address to track (overrides aircraft.icao_hex)")
	interval := flag.Duration("interval", 0, "Polling interval (overrides tracker.poll_interval_seconds)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *icao != "" {
		cfg.Aircraft.ICAOHex = *icao
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	// Log records would draw over the alternate screen
	cfg.Log.Console = false
	if cfg.Log.Dir == "" {
		dir, err := os.UserCacheDir()
		if err != nil {
			dir = os.TempDir()
		}
		cfg.Log.Dir = filepath.Join(dir, "plane-spotter")
	}
	lg := log.New(cfg.Log)
	defer lg.Close()

	a, err := app.New(context.Background(), cfg, lg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Startup failed: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	m := model{app: a, interval: cfg.Tracker.PollInterval(), busy: true}
	if *interval > 0 {
		m.interval = *interval
	}
	if m.interval <= 0 {
		m.interval = 30 * time.Second
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
