package camera

import (
	"os"
	"path/filepath"
	"strings"
)

const defaultSysRoot = "/sys"

// sysfsLabel builds a human label for a tty from the USB descriptor strings
// sysfs exposes above it, falling back to the node name.
func sysfsLabel(sysRoot, name string) string {
	dir, err := filepath.EvalSymlinks(filepath.Join(sysRoot, "class", "tty", name, "device"))
	if err != nil {
		return name
	}
	// device points at the USB interface; product and manufacturer live on
	// the parent USB device.
	for range 4 {
		if product := readAttr(dir, "product"); product != "" {
			if m := readAttr(dir, "manufacturer"); m != "" && !strings.HasPrefix(product, m) {
				return m + " " + product
			}
			return product
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return name
}

func readAttr(dir, attr string) string {
	b, err := os.ReadFile(filepath.Join(dir, attr))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
