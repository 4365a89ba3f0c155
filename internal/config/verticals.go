package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jonathan/signal-agent/internal/types"
)

// Vertical holds the phrase hints for one industry.
type Vertical struct {
	Name    string                          `yaml:"name"`
	Phrases map[types.SignalType][]string `yaml:"phrases"`
}

// DefaultPhrases are used for any signal type a vertical file leaves out.
func DefaultPhrases() map[types.SignalType][]string {
	return map[types.SignalType][]string{
		types.SignalExpansion: {"grand opening", "now open", "new location"},
		types.SignalScheduler: {"calendly", "acuity", "book", "schedule", "appointment"},
		types.SignalHiring:    {"hiring", "role", "apply", "careers", "jobs"},
	}
}

var verticalName = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// LoadVertical reads <dir>/<name>.yml. A missing file, or an empty name, yields
// the default phrases.
func LoadVertical(dir, name string) (*Vertical, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	v := &Vertical{Name: name, Phrases: DefaultPhrases()}
	if name == "" {
		return v, nil
	}
	if !verticalName.MatchString(name) {
		return nil, &Error{Field: "vertical", Message: fmt.Sprintf("invalid name %q", name)}
	}

	data, err := os.ReadFile(filepath.Join(dir, name+".yml"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return v, nil
		}
		return nil, fmt.Errorf("failed to read vertical %s: %w", name, err)
	}

	var file Vertical
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse vertical %s: %w", name, err)
	}
	for signal, phrases := range file.Phrases {
		if !signal.Valid() {
			return nil, &Error{Field: "phrases." + string(signal), Message: "is not a known signal type"}
		}
		if len(phrases) > 0 {
			v.Phrases[signal] = phrases
		}
	}
	return v, nil
}
