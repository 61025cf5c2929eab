package engrave

import "fmt"

// LayoutConfig controls global layout geometry.
type LayoutConfig struct {
	// MaxSystemWidth is the maximum horizontal span for one system's measure
	// content in logical units.
	MaxSystemWidth float64 `json:"max_system_width" toml:"max_system_width"`
	// UnitsPerSpace scales staff spaces to logical units (20 by convention).
	UnitsPerSpace float64 `json:"units_per_space" toml:"units_per_space"`
	// SystemSpacing is the vertical gap between systems.
	SystemSpacing float64 `json:"system_spacing" toml:"system_spacing"`
	// SystemHeight is the vertical extent reserved for one system.
	SystemHeight float64 `json:"system_height" toml:"system_height"`
	// StretchToFill widens closed systems to fill MaxSystemWidth exactly.
	// When false (the default policy), systems are compressed to fit but
	// never stretched beyond their natural width.
	StretchToFill bool `json:"stretch_to_fill,omitempty" toml:"stretch_to_fill"`

	Spacing SpacingConfig `json:"spacing" toml:"spacing"`
}

// SpacingConfig controls per-note horizontal spacing.
type SpacingConfig struct {
	// BaseSpacing is the floor added to every note in logical units.
	BaseSpacing float64 `json:"base_spacing" toml:"base_spacing"`
	// DurationFactor scales spacing per quarter note of duration.
	DurationFactor float64 `json:"duration_factor" toml:"duration_factor"`
	// MinimumSpacing is the collision-prevention minimum.
	MinimumSpacing float64 `json:"minimum_spacing" toml:"minimum_spacing"`
}

// DefaultLayoutConfig returns the standard configuration.
func DefaultLayoutConfig() LayoutConfig {
	return LayoutConfig{
		MaxSystemWidth: 1600,
		UnitsPerSpace:  20,
		SystemSpacing:  200,
		SystemHeight:   600,
		Spacing:        DefaultSpacingConfig(),
	}
}

// DefaultSpacingConfig returns the standard spacing constants.
func DefaultSpacingConfig() SpacingConfig {
	return SpacingConfig{
		BaseSpacing:    30,
		DurationFactor: 50,
		MinimumSpacing: 30,
	}
}

// Validate rejects configurations the engine cannot lay out with.
func (c LayoutConfig) Validate() error {
	if c.MaxSystemWidth <= 0 {
		return fmt.Errorf("max_system_width must be positive, got %v", c.MaxSystemWidth)
	}
	if c.UnitsPerSpace <= 0 {
		return fmt.Errorf("units_per_space must be positive, got %v", c.UnitsPerSpace)
	}
	if c.SystemHeight <= 0 {
		return fmt.Errorf("system_height must be positive, got %v", c.SystemHeight)
	}
	if c.SystemSpacing < 0 {
		return fmt.Errorf("system_spacing must not be negative, got %v", c.SystemSpacing)
	}
	return nil
}

// withDefaults fills zero-valued fields so partially specified configs
// (e.g. from JSON with omitted keys) behave predictably.
func (c LayoutConfig) withDefaults() LayoutConfig {
	d := DefaultLayoutConfig()
	if c.MaxSystemWidth == 0 {
		c.MaxSystemWidth = d.MaxSystemWidth
	}
	if c.UnitsPerSpace == 0 {
		c.UnitsPerSpace = d.UnitsPerSpace
	}
	if c.SystemSpacing == 0 {
		c.SystemSpacing = d.SystemSpacing
	}
	if c.SystemHeight == 0 {
		c.SystemHeight = d.SystemHeight
	}
	if c.Spacing == (SpacingConfig{}) {
		c.Spacing = d.Spacing
	}
	return c
}
