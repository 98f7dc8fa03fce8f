package camera

// Preset names for common resolutions.
const (
	PresetDefault = "default"
	PresetVGA     = "vga"
	Preset720p    = "720p"
	Preset1080p   = "1080p"
)

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{PresetDefault, PresetVGA, Preset720p, Preset1080p}
}

// ApplyPreset overwrites the resolution of cfg with the named preset. It
// reports false for unknown names and leaves cfg untouched.
func ApplyPreset(cfg *Config, name string) bool {
	switch name {
	case PresetDefault, Preset720p:
		cfg.Width, cfg.Height = 1280, 720
	case PresetVGA:
		// Faster warm-up on cheap sensors.
		cfg.Width, cfg.Height = 640, 480
	case Preset1080p:
		cfg.Width, cfg.Height = 1920, 1080
	default:
		return false
	}
	return true
}
