package state

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Save writes the search state to a TOML file so a later session (or a
// reopened UI) can restore the last query and mode flags.
func Save(path string, s SearchState) error {
	data, err := toml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to encode search state: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write search state to %s: %w", path, err)
	}
	return nil
}

// Load reads a previously saved search state. A missing file is an error;
// callers treat it as "nothing to restore".
func Load(path string) (SearchState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SearchState{}, err
	}
	var s SearchState
	if err := toml.Unmarshal(data, &s); err != nil {
		return SearchState{}, fmt.Errorf("failed to decode search state from %s: %w", path, err)
	}
	return s, nil
}
