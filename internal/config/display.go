package config

import (
	"os"

	"github.com/pelletier/go-toml/v2"
)

// DisplayOverrides are the forced pixel formats of the [display] table. They
// are the only settings applied without a restart.
type DisplayOverrides struct {
	// VLCChroma forces the source-side chroma, e.g. "NV12".
	VLCChroma string `toml:"vlc_chroma"`
	// DRMChroma forces the hardware format fourcc, e.g. "XR24".
	DRMChroma string `toml:"drm_chroma"`
}

// LoadDisplayOverrides reads the chroma overrides from a config file. It is
// the loader of the runtime config watcher.
func LoadDisplayOverrides(path string) (DisplayOverrides, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return DisplayOverrides{}, err
	}
	var raw struct {
		Display DisplayOverrides `toml:"display"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return DisplayOverrides{}, err
	}
	return raw.Display, nil
}
