package config

import (
	"fmt"
	"strings"
)

// MissingKeysError lists required environment keys that were not set.
type MissingKeysError struct {
	Keys []string
}

func (e *MissingKeysError) Error() string {
	return fmt.Sprintf("missing required configuration: %s", strings.Join(e.Keys, ", "))
}

func missingKeys(keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	return &MissingKeysError{Keys: keys}
}
