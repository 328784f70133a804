package flame

import (
	"bytes"
	"context"
	"errors"
	"testing"

	flameerrors "github.com/matzehuels/flametower/pkg/errors"
)

func newTestEngine(t *testing.T, cfg Config) *Engine {
	t.Helper()
	if cfg.Seed == 0 {
		cfg.Seed = 42
	}
	e, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return e
}

func TestNewDefaults(t *testing.T) {
	e := newTestEngine(t, Config{})

	if w, h := e.Size(); w != DefaultWidth || h != DefaultHeight {
		t.Errorf("Size() = %dx%d, want %dx%d", w, h, DefaultWidth, DefaultHeight)
	}
	if len(e.Transforms()) != DefaultTransforms {
		t.Errorf("len(Transforms()) = %d, want %d", len(e.Transforms()), DefaultTransforms)
	}
	if e.Quality() != HighQuality || e.GamesPerStep() != HighQualityGames || e.MaxIterations() != HighQualityMaxIters {
		t.Errorf("unexpected quality settings: %v %d %d", e.Quality(), e.GamesPerStep(), e.MaxIterations())
	}
	if e.Frozen() || e.Iterations() != 0 {
		t.Error("new engine should be unfrozen with no iterations")
	}
	if b := e.Frame().Bounds(); b.Dx() != DefaultWidth || b.Dy() != DefaultHeight {
		t.Errorf("frame size = %v", b)
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		code flameerrors.Code
	}{
		{"negative width", Config{Width: -1}, flameerrors.ErrCodeInvalidSize},
		{"huge height", Config{Height: flameerrors.MaxDimension + 1}, flameerrors.ErrCodeInvalidSize},
		{"negative transforms", Config{Transforms: -2}, flameerrors.ErrCodeInvalidInput},
		{"too many transforms", Config{Transforms: 1 << 40}, flameerrors.ErrCodeInvalidInput},
		{"negative burn-in", Config{BurnIn: -2}, flameerrors.ErrCodeInvalidInput},
		{"huge burn-in", Config{BurnIn: 1 << 40}, flameerrors.ErrCodeInvalidInput},
		{"negative warm-up", Config{WarmupPasses: -1}, flameerrors.ErrCodeInvalidInput},
		{"huge warm-up", Config{WarmupPasses: 1 << 40}, flameerrors.ErrCodeInvalidInput},
		{"unknown quality", Config{Quality: Quality(9)}, flameerrors.ErrCodeInvalidQuality},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.cfg)
			if !flameerrors.Is(err, tt.code) {
				t.Errorf("New() error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestBurnInConfig(t *testing.T) {
	tests := []struct {
		name   string
		burnIn int
		want   int
	}{
		{"default", 0, InteractiveGames - DefaultBurnIn},
		{"explicit", 100, InteractiveGames - 100},
		{"none", NoBurnIn, InteractiveGames},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEngine(t, Config{Width: 16, Height: 16, BurnIn: tt.burnIn, Quality: Interactive})
			e.Step()
			if got := e.Grid().TotalHits(); got != tt.want {
				t.Errorf("TotalHits() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestStepFreezesAfterMaxIterations(t *testing.T) {
	e := newTestEngine(t, Config{Width: 32, Height: 32, Quality: Interactive})

	for i := 1; i <= InteractiveMaxIters; i++ {
		e.Step()
		if e.Frozen() {
			t.Fatalf("frozen after %d steps, want > %d", i, InteractiveMaxIters)
		}
	}
	e.Step()
	if !e.Frozen() {
		t.Fatal("engine should freeze once iterations exceed the maximum")
	}
	iters := e.Iterations()
	hits := e.Grid().TotalHits()
	frame := append([]byte(nil), e.Frame().Pix...)

	e.Step()
	if e.Iterations() != iters || e.Grid().TotalHits() != hits {
		t.Error("frozen engine should not accumulate")
	}
	if !bytes.Equal(frame, e.Step().Pix) {
		t.Error("frozen engine should keep emitting the same frame")
	}
}

func TestStepAccumulatesHits(t *testing.T) {
	e := newTestEngine(t, Config{Width: 64, Height: 64, Quality: Interactive})
	e.Step()

	want := InteractiveGames - DefaultBurnIn
	if got := e.Grid().TotalHits(); got != want {
		t.Errorf("TotalHits() after one step = %d, want %d", got, want)
	}
	if e.LogFrequency() <= 0 && e.Grid().PeakHits() > 1 {
		t.Errorf("LogFrequency() = %v with peak %d", e.LogFrequency(), e.Grid().PeakHits())
	}
}

func TestRerenderResets(t *testing.T) {
	e := newTestEngine(t, Config{Width: 32, Height: 32, Quality: Interactive})
	if err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !e.Frozen() {
		t.Fatal("Run() should stop at freeze")
	}

	e.Rerender()
	if e.Frozen() || e.Iterations() != 0 || e.Grid().TotalHits() != 0 || e.LogFrequency() != 0 {
		t.Error("Rerender() should clear grid, counter and frozen flag")
	}
}

func TestRestartReseeds(t *testing.T) {
	e := newTestEngine(t, Config{Width: 32, Height: 32, Quality: Interactive})
	before := e.Snapshot()

	e.Step()
	e.Restart()
	after := e.Snapshot()
	if before.Transforms[0].Coefs == after.Transforms[0].Coefs {
		t.Error("Restart() should draw new coefficients")
	}
	if e.Iterations() != 0 {
		t.Error("Restart() should rerender")
	}

	e.RestartAt(120, 300)
	var want Transform
	want.DirectedCoefficients(120, 300, 1)
	got := e.Transforms()[1]
	if got.A != want.A || got.F != want.F {
		t.Errorf("RestartAt() coefficients = %v/%v, want %v/%v", got.A, got.F, want.A, want.F)
	}
}

func TestSetQualityDoesNotRerender(t *testing.T) {
	e := newTestEngine(t, Config{Width: 32, Height: 32})
	e.Step()
	e.SetQuality(Interactive)

	if e.Iterations() != 1 {
		t.Errorf("Iterations() = %d, want 1", e.Iterations())
	}
	if e.GamesPerStep() != InteractiveGames || e.MaxIterations() != InteractiveMaxIters {
		t.Error("SetQuality() should switch workload")
	}
}

func TestSameSeedSameFrame(t *testing.T) {
	a := newTestEngine(t, Config{Width: 48, Height: 48, Seed: 99, Quality: Interactive})
	b := newTestEngine(t, Config{Width: 48, Height: 48, Seed: 99, Quality: Interactive})
	a.Step()
	a.Step()
	b.Step()
	b.Step()
	if !bytes.Equal(a.Frame().Pix, b.Frame().Pix) {
		t.Error("engines with the same seed should render identical frames")
	}
}

func TestIdentityEngineScenario(t *testing.T) {
	e := newTestEngine(t, Config{Width: 4, Height: 4, Transforms: 1, WarmupPasses: 1, Seed: 7})
	err := e.Load(Params{Transforms: []TransformParams{{
		Coefs:      [6]float64{1, 0, 0, 0, 1, 0},
		Color:      0.5,
		Variations: []string{VariationLinear},
		Weights:    []float64{1},
	}}})
	if err != nil {
		t.Fatal(err)
	}

	w := e.Walker()
	b := e.Bounds()
	if b.LX != w.X || b.HX != w.X || b.LY != w.Y || b.HY != w.Y {
		t.Fatalf("bounds = %+v, want collapsed onto walker (%v, %v)", b, w.X, w.Y)
	}

	e.Step()
	hit := 0
	for _, c := range e.Grid().Cells {
		if c.Hits > 0 {
			hit++
			if c.Hits != HighQualityGames-DefaultBurnIn {
				t.Errorf("hits = %d, want %d", c.Hits, HighQualityGames-DefaultBurnIn)
			}
		}
	}
	if hit != 1 {
		t.Errorf("%d cells hit, want 1", hit)
	}
}

func TestSnapshotLoadRoundTrip(t *testing.T) {
	src := newTestEngine(t, Config{Width: 16, Height: 16, Seed: 3})
	data, err := MarshalParams(src.Snapshot())
	if err != nil {
		t.Fatal(err)
	}
	p, err := UnmarshalParams(data)
	if err != nil {
		t.Fatal(err)
	}

	dst := newTestEngine(t, Config{Width: 16, Height: 16, Seed: 4})
	if err := dst.Load(p); err != nil {
		t.Fatal(err)
	}
	for i, tp := range dst.Snapshot().Transforms {
		if tp.Coefs != p.Transforms[i].Coefs || tp.Color != p.Transforms[i].Color {
			t.Errorf("transform %d not restored", i)
		}
	}
}

func TestLoadRejectsBadParams(t *testing.T) {
	e := newTestEngine(t, Config{Width: 16, Height: 16})

	err := e.Load(Params{Transforms: make([]TransformParams, 2)})
	if !flameerrors.Is(err, flameerrors.ErrCodeInvalidParams) {
		t.Errorf("count mismatch error = %v", err)
	}

	bad := e.Snapshot()
	bad.Transforms[0].Variations = []string{"julia", "linear", "sine"}
	if err := e.Load(bad); !flameerrors.Is(err, flameerrors.ErrCodeInvalidParams) {
		t.Errorf("unknown variation error = %v", err)
	}

	if _, err := UnmarshalParams([]byte(`{"transforms": []}`)); err == nil {
		t.Error("empty params should fail")
	}
}

func TestProbabilities(t *testing.T) {
	e := newTestEngine(t, Config{Width: 8, Height: 8})
	probs := e.Probabilities()
	if len(probs) != DefaultTransforms {
		t.Fatalf("len(Probabilities()) = %d", len(probs))
	}
	sum := 0.0
	for _, p := range probs {
		if p < 0 || p >= 1.0/DefaultTransforms {
			t.Errorf("probability %v outside [0, 1/n)", p)
		}
		sum += p
	}
	if sum >= 1 {
		t.Errorf("probabilities sum to %v", sum)
	}
}

func TestRunHonorsContext(t *testing.T) {
	e := newTestEngine(t, Config{Width: 16, Height: 16})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := e.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if e.Iterations() != 0 {
		t.Error("cancelled run should not step")
	}
}

func TestParseQuality(t *testing.T) {
	tests := []struct {
		in      string
		want    Quality
		wantErr bool
	}{
		{"high", HighQuality, false},
		{"Interactive", Interactive, false},
		{" fast ", Interactive, false},
		{"ultra", HighQuality, true},
	}
	for _, tt := range tests {
		got, err := ParseQuality(tt.in)
		if (err != nil) != tt.wantErr || (err == nil && got != tt.want) {
			t.Errorf("ParseQuality(%q) = %v, %v", tt.in, got, err)
		}
	}
	if HighQuality.String() != "high" || Interactive.String() != "interactive" {
		t.Error("unexpected Quality.String()")
	}
}
