package reconcile

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Baseline maps product json_key -> size label -> the quantity/availability a
// reset restores. It is operator-supplied data, loaded from a JSON file, not
// something embedded in the reset logic.
type Baseline map[string]map[string]BaselineEntry

type BaselineEntry struct {
	Quantity  int  `json:"quantity"`
	Available bool `json:"available"`
}

func LoadBaseline(path string) (Baseline, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read baseline: %w", err)
	}
	return ParseBaseline(b)
}

func ParseBaseline(data []byte) (Baseline, error) {
	var b Baseline
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse baseline: %w", err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("baseline is empty")
	}
	for key, sizes := range b {
		if len(sizes) == 0 {
			return nil, fmt.Errorf("baseline: product %q has no sizes", key)
		}
		for size, e := range sizes {
			if e.Quantity < 0 {
				return nil, fmt.Errorf("baseline: %s (%s): negative quantity %d", key, size, e.Quantity)
			}
		}
	}
	return b, nil
}

// sortedKeys keeps reset output and ledger ordering deterministic.
func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
