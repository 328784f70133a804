package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	flameerrors "github.com/matzehuels/flametower/pkg/errors"
	"github.com/matzehuels/flametower/pkg/flame"
	"github.com/matzehuels/flametower/pkg/pipeline"
	"github.com/matzehuels/flametower/pkg/session"
)

// createRequest overrides the server's engine defaults for one session.
type createRequest struct {
	Width      int    `json:"width,omitempty"`
	Height     int    `json:"height,omitempty"`
	Transforms int    `json:"transforms,omitempty"`
	Quality    string `json:"quality,omitempty"`
	Seed       uint64 `json:"seed,omitempty"`
	Preset     string `json:"preset,omitempty"`
}

type qualityRequest struct {
	Quality string `json:"quality"`
}

// Status describes a session's engine.
type Status struct {
	ID            string        `json:"id"`
	Width         int           `json:"width"`
	Height        int           `json:"height"`
	Quality       string        `json:"quality"`
	Iterations    int           `json:"iterations"`
	MaxIterations int           `json:"max_iterations"`
	GamesPerStep  int           `json:"games_per_step"`
	Frozen        bool          `json:"frozen"`
	PeakHits      int           `json:"peak_hits"`
	Coverage      float64       `json:"coverage"`
	LogFrequency  float64       `json:"log_frequency"`
	Bounds        *flame.Bounds `json:"bounds,omitempty"`
	ExpiresAt     time.Time     `json:"expires_at"`
}

func engineStatus(e *flame.Engine) Status {
	w, h := e.Size()
	st := Status{
		Width:         w,
		Height:        h,
		Quality:       e.Quality().String(),
		Iterations:    e.Iterations(),
		MaxIterations: e.MaxIterations(),
		GamesPerStep:  e.GamesPerStep(),
		Frozen:        e.Frozen(),
		PeakHits:      e.Grid().PeakHits(),
		Coverage:      e.Grid().Coverage(),
		LogFrequency:  e.LogFrequency(),
	}
	if b := e.Bounds(); !b.Empty() {
		st.Bounds = &b
	}
	return st
}

// lookup returns the session named in the URL or responds with an error.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return nil, false
	}
	return sess, true
}

// respondStatus runs fn on the session's engine and responds with the
// resulting status.
func (s *Server) respondStatus(w http.ResponseWriter, r *http.Request, fn func(e *flame.Engine) error) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var st Status
	err := sess.Do(func(e *flame.Engine) error {
		if fn != nil {
			if err := fn(e); err != nil {
				return err
			}
		}
		st = engineStatus(e)
		return nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	st.ID = sess.ID
	st.ExpiresAt = sess.ExpiresAt()
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	cfg := s.cfg.Engine
	cfg.Logger = s.logger
	if req.Width != 0 {
		cfg.Width = req.Width
	}
	if req.Height != 0 {
		cfg.Height = req.Height
	}
	if req.Transforms != 0 {
		cfg.Transforms = req.Transforms
	}
	if req.Seed != 0 {
		cfg.Seed = req.Seed
	}
	if req.Quality != "" {
		q, err := flame.ParseQuality(req.Quality)
		if err != nil {
			s.writeError(w, r, flameerrors.Wrap(flameerrors.ErrCodeInvalidQuality, err, "quality"))
			return
		}
		cfg.Quality = q
	}

	var params *flame.Params
	if req.Preset != "" {
		if s.presets == nil {
			s.writeError(w, r, flameerrors.New(flameerrors.ErrCodeUnsupported, "presets are not configured"))
			return
		}
		p, err := s.presets.Load(r.Context(), req.Preset)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		params = &p
		cfg.Transforms = len(p.Transforms)
		if req.Width == 0 && p.Width > 0 {
			cfg.Width = p.Width
		}
		if req.Height == 0 && p.Height > 0 {
			cfg.Height = p.Height
		}
	}

	engine, err := flame.New(cfg)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if params != nil {
		if err := engine.Load(*params); err != nil {
			s.writeError(w, r, err)
			return
		}
	}

	sess, err := s.sessions.Create(engine)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.logger.Debug("session created", "id", sess.ID, "width", cfg.Width, "height", cfg.Height)

	st := engineStatus(engine)
	st.ID = sess.ID
	st.ExpiresAt = sess.ExpiresAt()
	w.Header().Set("Location", "/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, st)
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": s.sessions.IDs()})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.respondStatus(w, r, nil)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleFrame advances the engine by one step and returns the live frame
// buffer as PNG.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var (
		data   []byte
		iters  int
		frozen bool
	)
	err := sess.Do(func(e *flame.Engine) error {
		frame := e.Step()
		b := frame.Bounds()
		fw, fh, err := parseSize(r.URL.Query().Get("size"), b.Dx(), b.Dy())
		if err != nil {
			return err
		}
		data, err = encodeFrame(frame, fw, fh)
		iters, frozen = e.Iterations(), e.Frozen()
		return err
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Flame-Iterations", strconv.Itoa(iters))
	w.Header().Set("X-Flame-Frozen", strconv.FormatBool(frozen))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleRestart restarts in directed mode when both mx and my are given and
// in random mode when neither is.
func (s *Server) handleRestart(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	mxs, mys := q.Get("mx"), q.Get("my")
	if (mxs == "") != (mys == "") {
		s.writeError(w, r, flameerrors.New(flameerrors.ErrCodeInvalidInput, "mx and my must be given together"))
		return
	}
	if mxs == "" {
		s.respondStatus(w, r, func(e *flame.Engine) error {
			e.Restart()
			return nil
		})
		return
	}

	mx, errX := strconv.ParseFloat(mxs, 64)
	my, errY := strconv.ParseFloat(mys, 64)
	if errX != nil || errY != nil {
		s.writeError(w, r, flameerrors.New(flameerrors.ErrCodeInvalidInput, "mx and my must be numbers"))
		return
	}
	s.respondStatus(w, r, func(e *flame.Engine) error {
		e.RestartAt(mx, my)
		return nil
	})
}

func (s *Server) handleRerender(w http.ResponseWriter, r *http.Request) {
	s.respondStatus(w, r, func(e *flame.Engine) error {
		e.Rerender()
		return nil
	})
}

func (s *Server) handleQuality(w http.ResponseWriter, r *http.Request) {
	var req qualityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	q, err := flame.ParseQuality(req.Quality)
	if err != nil {
		s.writeError(w, r, flameerrors.Wrap(flameerrors.ErrCodeInvalidQuality, err, "quality"))
		return
	}
	s.respondStatus(w, r, func(e *flame.Engine) error {
		e.SetQuality(q)
		return nil
	})
}

func (s *Server) handleGetParams(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var p flame.Params
	_ = sess.Do(func(e *flame.Engine) error {
		p = e.Snapshot()
		return nil
	})
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handlePutParams(w http.ResponseWriter, r *http.Request) {
	var p flame.Params
	if err := decodeJSON(w, r, &p); err != nil {
		s.writeError(w, r, err)
		return
	}
	if len(p.Transforms) == 0 {
		s.writeError(w, r, flameerrors.New(flameerrors.ErrCodeInvalidParams, "params contain no transforms"))
		return
	}
	s.respondStatus(w, r, func(e *flame.Engine) error {
		return e.Load(p)
	})
}

func (s *Server) handleSavePreset(w http.ResponseWriter, r *http.Request) {
	if s.presets == nil {
		s.writeError(w, r, flameerrors.New(flameerrors.ErrCodeUnsupported, "presets are not configured"))
		return
	}
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var p flame.Params
	_ = sess.Do(func(e *flame.Engine) error {
		p = e.Snapshot()
		return nil
	})
	name := chi.URLParam(r, "name")
	if err := s.presets.Save(r.Context(), name, p); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"preset": name})
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	if s.presets == nil {
		s.writeError(w, r, flameerrors.New(flameerrors.ErrCodeUnsupported, "presets are not configured"))
		return
	}
	names, err := s.presets.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"presets": names})
}

func (s *Server) handleShowPreset(w http.ResponseWriter, r *http.Request) {
	if s.presets == nil {
		s.writeError(w, r, flameerrors.New(flameerrors.ErrCodeUnsupported, "presets are not configured"))
		return
	}
	p, err := s.presets.Load(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleRun executes a headless run and returns its parameters and
// statistics.
func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	if s.runner == nil {
		s.writeError(w, r, flameerrors.New(flameerrors.ErrCodeUnsupported, "headless runs are not configured"))
		return
	}
	var opts pipeline.Options
	if err := decodeJSON(w, r, &opts); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	cache := "miss"
	if res.CacheHit {
		cache = "hit"
	}
	w.Header().Set("X-Cache", cache)
	writeJSON(w, http.StatusOK, res)
}
