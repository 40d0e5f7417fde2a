package viz

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"math"
	"math/rand"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/rigidsim/internal/body"
	"github.com/san-kum/rigidsim/internal/config"
	"github.com/san-kum/rigidsim/internal/control"
	"github.com/san-kum/rigidsim/internal/geom"
	"github.com/san-kum/rigidsim/internal/shape"
	"github.com/san-kum/rigidsim/internal/sim"
	"github.com/san-kum/rigidsim/internal/world"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600

	// canvas offset inside the rendered view, in cells
	canvasLeft = 2
	canvasTop  = 1

	// pushAccel is the acceleration an arrow key gives the selected body
	// for one step.
	pushAccel = 600.0
	spawnMass = 10.0

	gifPath = "simulation.gif"
)

type TickMsg time.Time

// Mode decides what the left mouse button does.
type Mode int

const (
	// ModeMove drags bodies toward the pointer.
	ModeMove Mode = iota
	// ModeCreate draws a new box from the press point to the release point.
	ModeCreate
)

func (md Mode) String() string {
	if md == ModeCreate {
		return "create"
	}
	return "move"
}

// draft is a box being drawn in create mode.
type draft struct {
	start geom.Vec2
	box   *body.Body
	valid bool
}

// Builder creates the world shown by the live view; it is called again on reset.
type Builder func() (*world.World, error)

// Model contains simulation state, visualization buffers, and UI context.
type Model struct {
	title          string
	build          Builder
	cfg            sim.Config
	sim            *sim.Simulator
	drag           *control.Drag
	push           *control.Manual
	canvas         *Canvas
	view           Viewport
	selected       world.BodyID
	running        bool
	energyHistory  []float64
	contactHistory []float64
	culled         int
	status         string
	err            error
	recording      bool
	frames         []*image.Paletted
	showHelp       bool
	rng            *rand.Rand
	mode           Mode
	draft          *draft
}

// NewModel builds the world and frames it on the canvas.
func NewModel(title string, build Builder, cfg sim.Config) (Model, error) {
	m := Model{
		title:   title,
		build:   build,
		cfg:     cfg,
		canvas:  NewCanvas(width, height),
		running: true,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

// World is the world currently shown.
func (m Model) World() *world.World { return m.sim.World() }

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if err := m.reset(); err != nil {
				m.err = err
			}
		case "tab":
			m.cycleSelection()
		case "up", "k":
			m.pushSelected(geom.V(0, -1))
		case "down", "j":
			m.pushSelected(geom.V(0, 1))
		case "left", "h":
			m.pushSelected(geom.V(-1, 0))
		case "right", "l":
			m.pushSelected(geom.V(1, 0))
		case "a":
			m.spawn()
		case "b":
			if m.mode == ModeMove {
				m.mode = ModeCreate
			} else {
				m.mode = ModeMove
			}
			m.draft = nil
			m.status = m.mode.String() + " mode"
		case "c":
			n := len(m.World().Cull(m.view.MinY + m.view.Height()))
			m.culled += n
			m.status = fmt.Sprintf("culled %d bodies", n)
		case "t":
			NextTheme()
		case "g":
			if m.recording {
				if err := m.saveGIF(); err != nil {
					m.err = err
				} else {
					m.status = "saved " + gifPath
				}
				m.recording = false
				m.frames = nil
			} else {
				m.recording = true
				m.frames = make([]*image.Paletted, 0)
			}
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.MouseMsg:
		m.mouse(msg)
	case TickMsg:
		if m.running {
			m.step()
		}
		if m.recording {
			m.draw()
			m.captureFrame()
		}
		return m, tick()
	}
	return m, nil
}

// reset rebuilds the world and clears all history.
func (m *Model) reset() error {
	w, err := m.build()
	if err != nil {
		return err
	}
	m.drag = control.NewDrag()
	m.push = control.NewManual(0)
	m.sim = sim.New(w)
	m.sim.AddController(m.drag)
	m.sim.AddController(m.push)

	m.view = FitViewport(w, width, height)
	m.energyHistory = make([]float64, 0, historyCapacity)
	m.contactHistory = make([]float64, 0, historyCapacity)
	m.culled = 0
	m.draft = nil
	m.err = nil
	m.status = ""
	m.selected = 0
	m.cycleSelection()
	return nil
}

// step advances the physics simulation.
func (m *Model) step() {
	w := m.World()
	err := m.sim.Step(m.cfg, w.Steps())
	m.push.SetControl(geom.Zero, 0)
	if err != nil {
		m.err = err
		if errors.Is(err, world.ErrUnstable) {
			m.running = false
		}
	}

	if m.cfg.CullBelow != 0 && m.cfg.CullInterval > 0 && w.Steps()%m.cfg.CullInterval == 0 {
		m.culled += len(w.Cull(m.cfg.CullBelow))
	}

	m.energyHistory = appendCapped(m.energyHistory, w.KineticEnergy())
	m.contactHistory = appendCapped(m.contactHistory, float64(w.ContactCount()))
}

func appendCapped(h []float64, v float64) []float64 {
	h = append(h, v)
	if len(h) > historyCapacity {
		h = h[1:]
	}
	return h
}

// cycleSelection moves the selection to the next movable body.
func (m *Model) cycleSelection() {
	w := m.World()
	ids := w.BodyIDs()
	start := 0
	for i, id := range ids {
		if id == m.selected {
			start = i + 1
			break
		}
	}
	for k := range ids {
		id := ids[(start+k)%len(ids)]
		if b, _ := w.Body(id); !b.Static() {
			m.selected = id
			m.push.Target(id)
			return
		}
	}
	m.selected = 0
}

func (m *Model) pushSelected(dir geom.Vec2) {
	b, ok := m.World().Body(m.selected)
	if !ok {
		return
	}
	m.push.Target(m.selected)
	m.push.SetControl(dir.Scale(pushAccel*b.Mass()), 0)
}

// spawn drops a copy of the selected body, or a default box, at a random
// spot along the top of the view if there is room for it.
func (m *Model) spawn() {
	w := m.World()
	var proto shape.Shape = shape.NewBox(m.view.Width()/16, m.view.Width()/16)
	mass := spawnMass
	if b, ok := w.Body(m.selected); ok {
		proto, mass = b.Shape, b.Mass()
	}

	b := body.MustNew(proto, mass)
	span := m.view.Width() * 0.8
	b.Position = geom.V(
		m.view.MinX+m.view.Width()*0.1+m.rng.Float64()*span,
		m.view.MinY+proto.Bounds().Height/2,
	)
	if !w.CanPlace(b) {
		m.status = "no room to add a body"
		return
	}
	id := w.QueueAddBody(b)
	m.status = fmt.Sprintf("added body %d", id)
}

func (m *Model) mouse(msg tea.MouseMsg) {
	p := m.view.Unproject((msg.X-canvasLeft)*2+1, (msg.Y-canvasTop)*4+2)
	w := m.World()
	if m.mode == ModeCreate {
		m.create(w, msg, p)
		return
	}
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft && m.drag.Grab(w, p) {
			m.selected, _ = m.drag.Held()
			m.push.Target(m.selected)
		}
	case tea.MouseActionMotion:
		m.drag.MoveTo(p)
	case tea.MouseActionRelease:
		m.drag.Release(w)
	}
}

// create sizes a box between the press point and the pointer and adds it
// on release when it overlaps nothing.
func (m *Model) create(w *world.World, msg tea.MouseMsg, p geom.Vec2) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button != tea.MouseButtonLeft {
			return
		}
		m.draft = &draft{start: p, box: body.MustNew(shape.NewBox(1, 1), config.BuilderMass)}
		m.draft.box.Position = p
		m.draft.valid = w.CanPlace(m.draft.box)
	case tea.MouseActionMotion:
		if m.draft == nil {
			return
		}
		d := p.Sub(m.draft.start)
		m.draft.box.Shape = shape.NewBox(max(math.Abs(d.X), 1), max(math.Abs(d.Y), 1))
		m.draft.box.Position = m.draft.start.Add(d.Scale(0.5))
		m.draft.valid = w.CanPlace(m.draft.box)
	case tea.MouseActionRelease:
		if m.draft == nil {
			return
		}
		if m.draft.valid {
			b := body.MustNew(m.draft.box.Shape, config.BuilderMass)
			b.Position = m.draft.box.Position
			id := w.QueueAddBody(b)
			m.status = fmt.Sprintf("added body %d", id)
		} else {
			m.status = "box overlaps another body"
		}
		m.draft = nil
	}
}

func (m *Model) draw() {
	m.canvas.Clear()
	DrawWorld(m.canvas, m.view, m.World())
	// mark the selected body's centre
	if b, ok := m.World().Body(m.selected); ok {
		x, y := m.view.Project(b.Position)
		for d := -1; d <= 1; d++ {
			m.canvas.Set(x+d, y)
			m.canvas.Set(x, y+d)
		}
	}
	if m.draft != nil {
		box := m.draft.box.Shape.(shape.Box)
		corners := box.Points(m.draft.box.Position, 0)
		pts := make([][2]int, len(corners))
		for i, c := range corners {
			pts[i][0], pts[i][1] = m.view.Project(c)
		}
		m.canvas.DrawPolygon(pts)
		// crossed out while it would overlap something
		if !m.draft.valid {
			m.canvas.DrawLine(pts[0][0], pts[0][1], pts[2][0], pts[2][1])
			m.canvas.DrawLine(pts[1][0], pts[1][1], pts[3][0], pts[3][1])
		}
	}
}

// View renders the TUI interface.
func (m Model) View() string {
	st := newStyles(CurrentTheme)
	w := m.World()

	m.draw()
	canvasView := st.canvas.Render(m.canvas.String())

	var s strings.Builder
	s.WriteString(st.header.Render(strings.ToUpper(m.title)) + "\n")
	if m.running {
		s.WriteString(st.running.Render("RUNNING"))
	} else {
		s.WriteString(st.paused.Render("PAUSED"))
	}
	if m.recording {
		s.WriteString("  " + st.err.Render("● REC"))
	}
	s.WriteString("\n\n")

	if len(m.energyHistory) > 1 {
		chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Kinetic energy"))
		s.WriteString(st.graph.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", w.Time()))
	row("Steps", fmt.Sprintf("%d", w.Steps()))
	row("Bodies", fmt.Sprintf("%d", w.Len()))
	row("Culled", fmt.Sprintf("%d", m.culled))
	row("Contacts", SparklineChart(m.contactHistory, 20, CurrentTheme))
	row("Penetration", fmt.Sprintf("%.3f", w.MaxPenetration()))
	row("Solver", fmt.Sprintf("%d iter, warm %v", w.Iterations(), w.WarmStarting()))
	row("Mouse", m.mode.String())

	s.WriteString("\nSELECTED\n")
	if b, ok := w.Body(m.selected); ok {
		s.WriteString(st.active.Render(fmt.Sprintf("> #%d %s", m.selected, b)) + "\n")
		s.WriteString(st.value.Render(fmt.Sprintf("  v (%.1f, %.1f) ω %.2f", b.Velocity.X, b.Velocity.Y, b.AngularVelocity)) + "\n")
	} else {
		s.WriteString(st.value.Render("  (none)") + "\n")
	}

	if m.err != nil {
		s.WriteString("\n" + st.err.Render(m.err.Error()) + "\n")
	} else if m.status != "" {
		s.WriteString("\n" + st.value.Render(m.status) + "\n")
	}

	s.WriteString(st.help.Render("─────────────────────\nSP:Pause R:Reset Q:Quit\nTab:Select ←↑↓→:Push\nA:Add B:Draw C:Cull G:Record ?:Help"))
	statsView := st.panel.Render(s.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  R        - Reset scene              ║
║  Q        - Quit                     ║
║  Tab      - Select next body         ║
║  Arrows   - Push selected body       ║
║  Mouse    - Drag body or draw a box  ║
║  A        - Add a body               ║
║  B        - Toggle move/create mode  ║
║  C        - Cull bodies below view   ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// captureFrame rasterises the canvas into a GIF frame.
func (m *Model) captureFrame() {
	const charW, charH = 8, 16
	imgW, imgH := m.canvas.Width*charW, m.canvas.Height*charH
	img := image.NewPaletted(image.Rect(0, 0, imgW, imgH), color.Palette{color.Black, color.White})
	dotW, dotH := charW/2, charH/4
	for row := 0; row < m.canvas.Height; row++ {
		for col := 0; col < m.canvas.Width; col++ {
			pattern := int(m.canvas.Grid[row][col] - blank)
			if pattern == 0 {
				continue
			}
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] == 0 {
						continue
					}
					baseX, baseY := col*charW+dx*dotW, row*charH+dy*dotH
					for py := 0; py < dotH; py++ {
						for px := 0; px < dotW; px++ {
							img.SetColorIndex(baseX+px, baseY+py, 1)
						}
					}
				}
			}
		}
	}
	m.frames = append(m.frames, img)
}

func (m *Model) saveGIF() error {
	if len(m.frames) == 0 {
		return nil
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 2)
	}
	f, err := os.Create(gifPath)
	if err != nil {
		return err
	}
	defer f.Close()
	return gif.EncodeAll(f, &anim)
}

// RunLive opens the live view on one scene.
func RunLive(title string, build Builder, cfg sim.Config) error {
	m, err := NewModel(title, build, cfg)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
