package asset

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// Prefix is the filename prefix shared by every asset stored for id.
func Prefix(id int) string {
	return strconv.Itoa(id) + "_"
}

// ResolveDestination returns root/"{id}_{basename(source)}".
// Sources without a name component (empty, "/", ".png") are rejected with ErrMalformedName.
func ResolveDestination(root string, id int, source string) (string, error) {
	name := basename(source)
	if name == "" || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("%w: %q", ErrMalformedName, source)
	}
	return filepath.Join(root, Prefix(id)+name), nil
}

func basename(p string) string {
	p = strings.TrimRight(p, string(filepath.Separator))
	if p == "" {
		return ""
	}
	name := filepath.Base(p)
	if name == string(filepath.Separator) {
		return ""
	}
	return name
}
