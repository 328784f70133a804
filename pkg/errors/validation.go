package errors

import (
	"strings"
	"unicode"
)

// Engine workload limits. Requests above them are rejected before any
// allocation or warm-up work happens.
const (
	// MaxDimension bounds grid width and height.
	MaxDimension = 8192

	// MaxTransforms bounds the number of transforms per engine.
	MaxTransforms = 64

	// MaxWarmupPasses bounds the bounds-estimation passes per rerender.
	MaxWarmupPasses = 64

	// MaxBurnIn bounds the discarded iterations per chaos game.
	MaxBurnIn = 10000
)

// ValidateDimensions checks that a grid size is positive and not absurdly large.
func ValidateDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return New(ErrCodeInvalidSize, "dimensions must be positive, got %dx%d", width, height)
	}
	if width > MaxDimension || height > MaxDimension {
		return New(ErrCodeInvalidSize, "dimensions too large: %dx%d (max %d)", width, height, MaxDimension)
	}
	return nil
}

// ValidateWorkload checks the per-engine transform count, warm-up passes and
// burn-in against their limits. A burn-in of -1 (no burn-in) is allowed.
func ValidateWorkload(transforms, warmupPasses, burnIn int) error {
	if transforms < 1 || transforms > MaxTransforms {
		return New(ErrCodeInvalidInput, "transforms must be in [1, %d], got %d", MaxTransforms, transforms)
	}
	if warmupPasses < 0 || warmupPasses > MaxWarmupPasses {
		return New(ErrCodeInvalidInput, "warm-up passes must be in [0, %d], got %d", MaxWarmupPasses, warmupPasses)
	}
	if burnIn < -1 || burnIn > MaxBurnIn {
		return New(ErrCodeInvalidInput, "burn-in must be in [-1, %d], got %d", MaxBurnIn, burnIn)
	}
	return nil
}

// ValidatePresetName validates a preset name before it becomes a store key.
//
// The rules are conservative because file-backed stores derive paths from
// keys:
//   - No empty names
//   - Maximum length of 128 characters
//   - No control characters or whitespace
//   - No path separators or traversal sequences
func ValidatePresetName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "preset name cannot be empty")
	}
	if len(name) > 128 {
		return New(ErrCodeInvalidName, "preset name too long (max 128 characters)")
	}
	for _, r := range name {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidName, "preset name contains whitespace or control characters")
		}
	}
	for _, pattern := range []string{"..", "/", "\\", ":"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidName, "preset name contains invalid characters: %q", pattern)
		}
	}
	return nil
}
