package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/world"
)

const (
	stateMenu = iota
	stateSim
)

type entry struct {
	name string
	cfg  *config.Config
}

// picker lists every preset and opens the chosen one in the live view.
type picker struct {
	state     int
	cursor    int
	entries   []entry
	liveModel Model
	err       error
}

func newPicker() picker {
	var entries []entry
	for _, scene := range config.Scenes() {
		for _, variant := range config.ListPresets(scene) {
			entries = append(entries, entry{
				name: scene + "/" + variant,
				cfg:  config.GetPreset(scene, variant),
			})
		}
	}
	return picker{state: stateMenu, entries: entries}
}

func (m picker) Init() tea.Cmd { return nil }

func (m picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateSim {
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
			m.state = stateMenu
			return m, nil
		}
		newLive, cmd := m.liveModel.Update(msg)
		m.liveModel = newLive.(Model)
		return m, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "enter":
		return m.start()
	}
	return m, nil
}

func (m picker) start() (tea.Model, tea.Cmd) {
	e := m.entries[m.cursor]
	live, err := NewModel(e.name, BuilderFor(e.cfg), SimConfig(e.cfg))
	if err != nil {
		m.err = err
		return m, nil
	}
	m.err = nil
	m.liveModel = live
	m.state = stateSim
	return m, m.liveModel.Init()
}

func (m picker) View() string {
	if m.state == stateSim {
		return m.liveModel.View()
	}

	t := CurrentTheme
	h := lipgloss.NewStyle().Foreground(t.Primary).Bold(true)
	sub := lipgloss.NewStyle().Foreground(t.Muted)
	sel := lipgloss.NewStyle().Foreground(t.Text).Bold(true)
	desc := lipgloss.NewStyle().Foreground(t.Accent)

	var b strings.Builder
	b.WriteString("\n\n    " + h.Render("RIGIDSIM") + "\n    " + sub.Render("2d rigid body sandbox") + "\n    " + sub.Render("─────────────────────────") + "\n\n")
	for i, e := range m.entries {
		info := fmt.Sprintf("%d bodies", len(e.cfg.Bodies))
		if n := len(e.cfg.Joints); n > 0 {
			info += fmt.Sprintf(", %d joints", n)
		}
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", h.Render("▸"), sel.Render(fmt.Sprintf("%-18s", e.name)), desc.Render(info)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", sub.Render(fmt.Sprintf("  %-18s", e.name)), sub.Render(info)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + lipgloss.NewStyle().Foreground(t.Error).Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + h.Render("j/k") + sub.Render(" navigate  ") + h.Render("enter") + sub.Render(" select  ") + h.Render("esc") + sub.Render(" back  ") + h.Render("q") + sub.Render(" quit") + "\n")
	return b.String()
}

// BuilderFor returns a Builder that creates a fresh world from cfg.
func BuilderFor(cfg *config.Config) Builder {
	return func() (*world.World, error) {
		w, _, err := cfg.Build()
		return w, err
	}
}

// SimConfig is the stepping configuration the live view uses for cfg.
func SimConfig(cfg *config.Config) sim.Config {
	return sim.Config{
		Dt:           cfg.Dt,
		Duration:     cfg.Duration,
		CullBelow:    cfg.CullBelow,
		CullInterval: world.CullInterval,
	}
}

// RunInteractive opens the scene picker.
func RunInteractive() error {
	_, err := tea.NewProgram(newPicker(), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
