// Package devices locates DRM display cards and turns kernel hotplug
// notifications into display events.
package devices

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// devRoot is the directory card nodes live in.
var devRoot = "/dev/dri"

// ResolveCardPath turns a card reference into a device path. Accepted forms
// are an absolute path, a node name such as "card1", a bare card number, or
// a /dev/dri/by-path entry name. An empty reference resolves to "".
func ResolveCardPath(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	switch {
	case ref == "":
		return "", nil
	case filepath.IsAbs(ref):
		return ref, nil
	}

	candidates := []string{
		filepath.Join(devRoot, ref),
		filepath.Join(devRoot, "card"+ref),
		filepath.Join(devRoot, "by-path", ref),
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("no display card found for %q", ref)
}
