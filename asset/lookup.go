package asset

import (
	"os"
	"path/filepath"
	"strings"
)

// Find returns the stored asset for id. Entries are scanned in lexical
// order so the first match is stable for a given directory snapshot.
func (s *Store) Find(id int) (string, bool) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		s.log.Debug().Err(err).Str("root", s.root).Msg("storage root not readable")
		return "", false
	}

	prefix := Prefix(id)
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) {
			continue
		}
		return filepath.Join(s.root, e.Name()), true
	}
	return "", false
}
