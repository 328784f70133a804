package store

import (
	"context"
	"fmt"

	flameerrors "github.com/matzehuels/flametower/pkg/errors"
	"github.com/matzehuels/flametower/pkg/flame"
)

// Presets saves and loads named flame parameters.
type Presets struct {
	store Store
	keyer Keyer
}

// NewPresets creates a preset catalog on top of s. A nil keyer selects the
// default keyer.
func NewPresets(s Store, keyer Keyer) *Presets {
	if keyer == nil {
		keyer = NewDefaultKeyer()
	}
	return &Presets{store: s, keyer: keyer}
}

// Save stores p under name, replacing any existing preset.
func (p *Presets) Save(ctx context.Context, name string, params flame.Params) error {
	if err := flameerrors.ValidatePresetName(name); err != nil {
		return err
	}
	data, err := flame.MarshalParams(params)
	if err != nil {
		return fmt.Errorf("encode preset %s: %w", name, err)
	}
	return p.store.Set(ctx, p.keyer.PresetKey(name), data, TTLPreset)
}

// Load returns the parameters stored under name.
func (p *Presets) Load(ctx context.Context, name string) (flame.Params, error) {
	if err := flameerrors.ValidatePresetName(name); err != nil {
		return flame.Params{}, err
	}
	data, ok, err := p.store.Get(ctx, p.keyer.PresetKey(name))
	if err != nil {
		return flame.Params{}, fmt.Errorf("load preset %s: %w", name, err)
	}
	if !ok {
		return flame.Params{}, flameerrors.New(flameerrors.ErrCodePresetNotFound, "preset %q not found", name)
	}
	return flame.UnmarshalParams(data)
}

// List returns the stored preset names, sorted.
func (p *Presets) List(ctx context.Context) ([]string, error) {
	keys, err := p.store.List(ctx, p.keyer.PresetPrefix())
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	names := make([]string, len(keys))
	for i, k := range keys {
		names[i] = p.keyer.PresetName(k)
	}
	return names, nil
}

// Delete removes a preset. It fails with PRESET_NOT_FOUND when the name is
// unknown.
func (p *Presets) Delete(ctx context.Context, name string) error {
	if err := flameerrors.ValidatePresetName(name); err != nil {
		return err
	}
	key := p.keyer.PresetKey(name)
	_, ok, err := p.store.Get(ctx, key)
	if err != nil {
		return err
	}
	if !ok {
		return flameerrors.New(flameerrors.ErrCodePresetNotFound, "preset %q not found", name)
	}
	return p.store.Delete(ctx, key)
}
