package cli

import (
	"context"
	"errors"
	"image"
	"image/color"
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/flametower/pkg/flame"
	"github.com/matzehuels/flametower/pkg/store"
)

func newTestViewModel(t *testing.T, presets *store.Presets) viewModel {
	t.Helper()
	e, err := flame.New(flame.Config{Width: 32, Height: 32, Seed: 3})
	if err != nil {
		t.Fatalf("flame.New() error: %v", err)
	}
	m := newViewModel(context.Background(), e, presets, "test-preset")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 16, Height: 9})
	return next.(viewModel)
}

func TestPointerToFrame(t *testing.T) {
	tests := []struct {
		name           string
		x, y           int
		cols, rows     int
		w, h           int
		wantMX, wantMY float64
	}{
		{"origin cell", 0, 0, 10, 10, 100, 100, 5, 5},
		{"last cell", 9, 9, 10, 10, 100, 100, 95, 95},
		{"scaled", 4, 1, 8, 4, 512, 256, 288, 96},
		{"no size", 3, 3, 0, 0, 100, 100, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mx, my := pointerToFrame(tt.x, tt.y, tt.cols, tt.rows, tt.w, tt.h)
			if math.Abs(mx-tt.wantMX) > 1e-9 || math.Abs(my-tt.wantMY) > 1e-9 {
				t.Errorf("pointerToFrame() = (%v, %v), want (%v, %v)", mx, my, tt.wantMX, tt.wantMY)
			}
		})
	}
}

func TestRenderHalfBlocks(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 2, 3))
	img.SetRGBA(0, 0, color.RGBA{R: 255, A: 255})
	img.SetRGBA(0, 1, color.RGBA{G: 128, A: 255})

	out := renderHalfBlocks(img)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if got := strings.Count(out, "▀"); got != 4 {
		t.Errorf("got %d half blocks, want 4", got)
	}
	if !strings.HasPrefix(lines[0], "\x1b[38;2;255;0;0m\x1b[48;2;0;128;0m▀") {
		t.Errorf("first cell = %q", lines[0])
	}
	if !strings.Contains(lines[1], "\x1b[48;2;0;0;0m") {
		t.Errorf("odd last row should have a black background, got %q", lines[1])
	}
}

func TestViewModelWindowSize(t *testing.T) {
	m := newTestViewModel(t, nil)

	if m.display == nil {
		t.Fatal("display should be allocated after a window size message")
	}
	if got := m.display.Bounds(); got.Dx() != 16 || got.Dy() != 16 {
		t.Errorf("display = %v, want 16x16", got)
	}

	next, _ := m.Update(tea.WindowSizeMsg{Width: 16, Height: 1})
	if next.(viewModel).display != nil {
		t.Error("display should be dropped when no rows are left for the frame")
	}
}

func TestViewModelTick(t *testing.T) {
	m := newTestViewModel(t, nil)

	next, cmd := m.Update(tickMsg(time.Now()))
	if cmd == nil {
		t.Error("tick should schedule the next tick")
	}
	m = next.(viewModel)
	if got := m.engine.Iterations(); got != 1 {
		t.Errorf("Iterations() = %d, want 1", got)
	}
	if !strings.Contains(m.View(), "▀") {
		t.Error("View() should draw the frame")
	}
}

func TestViewModelKeys(t *testing.T) {
	m := newTestViewModel(t, nil)
	m.Update(tickMsg(time.Now()))

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	m = next.(viewModel)
	if got := m.engine.Iterations(); got != 0 {
		t.Errorf("restart should reset iterations, got %d", got)
	}
	if m.status != "restarted" {
		t.Errorf("status = %q, want restarted", m.status)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should return a command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q should quit")
	}
}

func TestViewModelDrag(t *testing.T) {
	m := newTestViewModel(t, nil)

	next, _ := m.Update(tea.MouseMsg{X: 4, Y: 2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m = next.(viewModel)
	if !m.dragging {
		t.Fatal("left press inside the frame should start a drag")
	}
	if m.engine.Quality() != flame.Interactive {
		t.Errorf("Quality() = %v, want interactive while dragging", m.engine.Quality())
	}

	next, _ = m.Update(tea.MouseMsg{X: 8, Y: 4, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	m = next.(viewModel)
	mx, my := pointerToFrame(8, 4, 16, 8, 32, 32)
	want := &flame.Transform{}
	want.DirectedCoefficients(mx, my, 0)
	got := m.engine.Transforms()[0]
	if got.A != want.A || got.F != want.F {
		t.Errorf("motion should restart from the pointer: got a=%v f=%v, want a=%v f=%v", got.A, got.F, want.A, want.F)
	}

	next, _ = m.Update(tea.MouseMsg{X: 8, Y: 4, Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	m = next.(viewModel)
	if m.dragging {
		t.Error("release should end the drag")
	}
	if m.engine.Quality() != flame.HighQuality {
		t.Errorf("Quality() = %v, want high after release", m.engine.Quality())
	}
	if m.engine.Frozen() || m.engine.Iterations() != 0 {
		t.Error("release should rerender")
	}
}

func TestViewModelIgnoresMotionWithoutDrag(t *testing.T) {
	m := newTestViewModel(t, nil)
	before := *m.engine.Transforms()[0]

	next, _ := m.Update(tea.MouseMsg{X: 8, Y: 4, Action: tea.MouseActionMotion})
	m = next.(viewModel)
	if after := m.engine.Transforms()[0]; after.A != before.A || after.B != before.B {
		t.Error("motion without a drag should not restart")
	}

	// Presses on the status line do not start a drag.
	next, _ = m.Update(tea.MouseMsg{X: 1, Y: 8, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if next.(viewModel).dragging {
		t.Error("press on the status line should not start a drag")
	}
}

func TestViewModelSave(t *testing.T) {
	t.Run("store disabled", func(t *testing.T) {
		m := newTestViewModel(t, nil)
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
		msg := cmd().(savedMsg)
		if !errors.Is(msg.err, errStoreDisabled) {
			t.Errorf("err = %v, want errStoreDisabled", msg.err)
		}
		next, _ := m.Update(msg)
		if !strings.Contains(next.(viewModel).status, "save failed") {
			t.Errorf("status = %q", next.(viewModel).status)
		}
	})

	t.Run("file store", func(t *testing.T) {
		s, err := store.NewFileStore(t.TempDir())
		if err != nil {
			t.Fatalf("NewFileStore() error: %v", err)
		}
		presets := store.NewPresets(s, nil)
		m := newTestViewModel(t, presets)

		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("s")})
		msg := cmd().(savedMsg)
		if msg.err != nil {
			t.Fatalf("save error: %v", msg.err)
		}
		p, err := presets.Load(context.Background(), "test-preset")
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		if len(p.Transforms) != len(m.engine.Transforms()) {
			t.Errorf("saved %d transforms, want %d", len(p.Transforms), len(m.engine.Transforms()))
		}
	})
}
