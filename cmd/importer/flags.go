package main

import (
	"fmt"
	"strconv"
	"strings"
)

// parseColumnMap turns field=index pairs into a column map. Indexes are
// zero-based, as in the preview table.
func parseColumnMap(pairs []string) (map[string]int, error) {
	m := make(map[string]int, len(pairs))
	for _, p := range pairs {
		field, idx, ok := strings.Cut(p, "=")
		field = strings.ToLower(strings.TrimSpace(field))
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid mapping %q, want field=index", p)
		}
		n, err := strconv.Atoi(strings.TrimSpace(idx))
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid column index in %q", p)
		}
		m[field] = n
	}
	return m, nil
}
