package store

import "strings"

// Keyer builds store keys.
type Keyer interface {
	// PresetKey returns the key for a named preset.
	PresetKey(name string) string

	// RunKey returns the key for a headless run summary.
	RunKey(opts RunKeyOpts) string

	// PresetName recovers the preset name from a key produced by PresetKey.
	PresetName(key string) string

	// PresetPrefix returns the prefix shared by every preset key.
	PresetPrefix() string
}

// RunKeyOpts holds every option that changes the outcome of a headless run.
type RunKeyOpts struct {
	Width        int         `json:"width"`
	Height       int         `json:"height"`
	Transforms   int         `json:"transforms"`
	BurnIn       int         `json:"burn_in"`
	WarmupPasses int         `json:"warmup_passes"`
	Quality      string      `json:"quality"`
	Seed         uint64      `json:"seed"`
	Control      *[2]float64 `json:"control,omitempty"`
	ParamsHash   string      `json:"params_hash,omitempty"`
}

// DefaultKeyer produces unscoped keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// PresetKey returns "preset:<name>".
func (DefaultKeyer) PresetKey(name string) string {
	return PrefixPreset + name
}

// RunKey returns "run:<sha256 of opts>".
func (DefaultKeyer) RunKey(opts RunKeyOpts) string {
	return hashKey("run", opts)
}

// PresetName strips the preset prefix.
func (DefaultKeyer) PresetName(key string) string {
	return strings.TrimPrefix(key, PrefixPreset)
}

// PresetPrefix returns PrefixPreset.
func (DefaultKeyer) PresetPrefix() string {
	return PrefixPreset
}

var _ Keyer = DefaultKeyer{}
