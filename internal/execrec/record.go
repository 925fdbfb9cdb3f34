package execrec

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Record is one execution directory.
type Record struct {
	Name string
	Dir  string
}

// Discover lists the execution directories directly under guardsRoot,
// sorted by name. Plain files in the root are ignored.
func Discover(guardsRoot string) ([]Record, error) {
	entries, err := os.ReadDir(guardsRoot)
	if err != nil {
		return nil, fmt.Errorf("read guards root: %w", err)
	}
	recs := make([]Record, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		recs = append(recs, Record{Name: e.Name(), Dir: filepath.Join(guardsRoot, e.Name())})
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].Name < recs[j].Name })
	return recs, nil
}
