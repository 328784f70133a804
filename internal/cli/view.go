package cli

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/image/draw"

	"github.com/matzehuels/flametower/pkg/flame"
	"github.com/matzehuels/flametower/pkg/pipeline"
	"github.com/matzehuels/flametower/pkg/store"
)

// frameInterval paces the viewer at about 30 frames per second.
const frameInterval = time.Second / 30

// viewCommand creates the interactive terminal viewer.
func (c *CLI) viewCommand() *cobra.Command {
	var (
		flags    engineFlags
		noStore  bool
		saveName string
		logFile  string
	)

	cmd := &cobra.Command{
		Use:   "view",
		Short: "Watch a flame render in the terminal",
		Long: `View runs the engine on the terminal's frame loop and draws the live frame
with half-block characters.

Controls:
  r, space   restart with random transforms
  drag       restart from the pointer while dragging (fast mode)
  s          save the current transforms as a preset
  q          quit`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadedConfig()
			if err != nil {
				return err
			}
			opts := flags.options(cmd, cfg.Engine)

			s, err := c.openStore(ctx, noStore)
			if err != nil {
				return err
			}
			defer s.Close()
			presets := store.NewPresets(s, c.storeKeyer())

			if flags.preset != "" {
				p, err := presets.Load(ctx, flags.preset)
				if err != nil {
					return err
				}
				opts.Params = &p
			}
			if !cmd.Flags().Changed("seed") && cfg.Engine.Seed == 0 {
				opts.Seed = uint64(time.Now().UnixNano())
			}

			restore, err := c.redirectLogs(logFile)
			if err != nil {
				return err
			}
			defer restore()

			engine, err := pipeline.NewRunner(nil, nil, c.Logger).NewEngine(opts)
			if err != nil {
				return err
			}

			if saveName == "" {
				saveName = "view-" + time.Now().Format("20060102-150405")
			}
			if noStore {
				presets = nil
			}
			m := newViewModel(ctx, engine, presets, saveName)
			prog := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
			_, err = prog.Run()
			return err
		},
	}

	flags.register(cmd, flame.HighQuality.String())
	cmd.Flags().BoolVar(&noStore, "no-store", false, "disable the store (no presets)")
	cmd.Flags().StringVar(&saveName, "save-name", "", "preset name used by the s key (default view-<time>)")
	cmd.Flags().StringVar(&logFile, "log-file", "", "write logs to this file while the viewer runs")

	return cmd
}

// redirectLogs sends log output to path, or discards it when path is empty,
// so that logging does not tear the alternate screen.
func (c *CLI) redirectLogs(path string) (func(), error) {
	var (
		w       io.Writer = io.Discard
		closeFn           = func() {}
	)
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		w = f
		closeFn = func() { _ = f.Close() }
	}
	c.Logger.SetOutput(w)
	return func() {
		c.Logger.SetOutput(os.Stderr)
		closeFn()
	}, nil
}

// =============================================================================
// viewModel - bubbletea model driving the engine
// =============================================================================

type tickMsg time.Time

var errStoreDisabled = errors.New("store disabled")

type savedMsg struct {
	name string
	err  error
}

var (
	viewStatusStyle = lipgloss.NewStyle().Foreground(colorGray)
	viewKeyStyle    = lipgloss.NewStyle().Foreground(colorCyan)
	viewFrozenStyle = lipgloss.NewStyle().Foreground(colorGreen)
)

// viewModel steps the engine once per tick and translates keys and pointer
// drags into engine commands.
type viewModel struct {
	ctx      context.Context
	engine   *flame.Engine
	presets  *store.Presets
	saveName string

	cols, rows int
	display    *image.RGBA
	dragging   bool
	status     string
}

func newViewModel(ctx context.Context, e *flame.Engine, presets *store.Presets, saveName string) viewModel {
	return viewModel{ctx: ctx, engine: e, presets: presets, saveName: saveName}
}

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m viewModel) Init() tea.Cmd {
	return tick()
}

func (m viewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		frame := m.engine.Step()
		if m.display != nil {
			draw.NearestNeighbor.Scale(m.display, m.display.Bounds(), frame, frame.Bounds(), draw.Src, nil)
		}
		return m, tick()

	case tea.WindowSizeMsg:
		m.cols, m.rows = msg.Width, msg.Height
		if fr := m.frameRows(); m.cols > 0 && fr > 0 {
			m.display = image.NewRGBA(image.Rect(0, 0, m.cols, 2*fr))
		} else {
			m.display = nil
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r", " ":
			m.engine.Restart()
			m.status = "restarted"
		case "s":
			return m, m.save()
		}

	case tea.MouseMsg:
		m.handleMouse(msg)

	case savedMsg:
		if msg.err != nil {
			m.status = "save failed: " + msg.err.Error()
		} else {
			m.status = "saved preset " + msg.name
		}
	}
	return m, nil
}

// handleMouse switches to interactive quality while the left button is held,
// restarts from the pointer on every motion and rerenders in high quality on
// release.
func (m *viewModel) handleMouse(msg tea.MouseMsg) {
	switch msg.Action {
	case tea.MouseActionPress:
		if msg.Button == tea.MouseButtonLeft && msg.Y < m.frameRows() {
			m.dragging = true
			m.engine.SetQuality(flame.Interactive)
		}
	case tea.MouseActionMotion:
		if !m.dragging {
			return
		}
		w, h := m.engine.Size()
		mx, my := pointerToFrame(msg.X, msg.Y, m.cols, m.frameRows(), w, h)
		m.engine.RestartAt(mx, my)
		m.status = fmt.Sprintf("control %.0f,%.0f", mx, my)
	case tea.MouseActionRelease:
		if !m.dragging {
			return
		}
		m.dragging = false
		m.engine.SetQuality(flame.HighQuality)
		m.engine.Rerender()
	}
}

func (m viewModel) save() tea.Cmd {
	if m.presets == nil {
		return func() tea.Msg {
			return savedMsg{name: m.saveName, err: errStoreDisabled}
		}
	}
	params := m.engine.Snapshot()
	ctx, presets, name := m.ctx, m.presets, m.saveName
	return func() tea.Msg {
		return savedMsg{name: name, err: presets.Save(ctx, name, params)}
	}
}

// frameRows is the number of terminal rows used for the frame; the last row
// holds the status line.
func (m viewModel) frameRows() int {
	return m.rows - 1
}

func (m viewModel) View() string {
	if m.display == nil {
		return "starting..."
	}
	var b strings.Builder
	b.WriteString(renderHalfBlocks(m.display))
	b.WriteString(m.statusLine())
	return b.String()
}

func (m viewModel) statusLine() string {
	state := fmt.Sprintf("%s %d/%d", m.engine.Quality(), m.engine.Iterations(), m.engine.MaxIterations()+1)
	if m.engine.Frozen() {
		state = viewFrozenStyle.Render("done") + viewStatusStyle.Render(" "+state)
	} else {
		state = viewStatusStyle.Render(state)
	}
	help := viewKeyStyle.Render("r") + viewStatusStyle.Render(" restart  ") +
		viewKeyStyle.Render("drag") + viewStatusStyle.Render(" steer  ") +
		viewKeyStyle.Render("s") + viewStatusStyle.Render(" save  ") +
		viewKeyStyle.Render("q") + viewStatusStyle.Render(" quit")
	line := state + "  " + help
	if m.status != "" {
		line += "  " + StyleDim.Render(m.status)
	}
	return lipgloss.NewStyle().MaxWidth(m.cols).Render(line)
}

// pointerToFrame maps a terminal cell to frame coordinates. Each cell covers
// two pixel rows of the displayed frame, so y lands between them.
func pointerToFrame(x, y, cols, rows, w, h int) (float64, float64) {
	if cols <= 0 || rows <= 0 {
		return 0, 0
	}
	mx := (float64(x) + 0.5) * float64(w) / float64(cols)
	my := (float64(y) + 0.5) * float64(h) / float64(rows)
	return mx, my
}

// renderHalfBlocks draws img two pixel rows per line with upper half blocks,
// foreground for the top pixel and background for the bottom one, in 24-bit
// color. An odd last row is drawn against black.
func renderHalfBlocks(img *image.RGBA) string {
	bounds := img.Bounds()
	var b strings.Builder
	b.Grow(bounds.Dx() * (bounds.Dy()/2 + 1) * 40)

	for y := bounds.Min.Y; y < bounds.Max.Y; y += 2 {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			top := img.RGBAAt(x, y)
			var bot [3]uint8
			if y+1 < bounds.Max.Y {
				c := img.RGBAAt(x, y+1)
				bot = [3]uint8{c.R, c.G, c.B}
			}
			b.WriteString("\x1b[38;2;")
			writeRGB(&b, top.R, top.G, top.B)
			b.WriteString("m\x1b[48;2;")
			writeRGB(&b, bot[0], bot[1], bot[2])
			b.WriteString("m▀")
		}
		b.WriteString("\x1b[0m\n")
	}
	return b.String()
}

func writeRGB(b *strings.Builder, r, g, bl uint8) {
	b.WriteString(strconv.Itoa(int(r)))
	b.WriteByte(';')
	b.WriteString(strconv.Itoa(int(g)))
	b.WriteByte(';')
	b.WriteString(strconv.Itoa(int(bl)))
}
