package render

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Figure is one entry in the output manifest. Marking an entry disabled
// and rerunning skips that figure, so the manifest doubles as the
// per-output switchboard.
type Figure struct {
	Name     string `yaml:"name"`
	Path     string `yaml:"path"`
	Kind     string `yaml:"kind"` // map, chart, table, narrative, export
	Title    string `yaml:"title,omitempty"`
	Disabled bool   `yaml:"disabled,omitempty"`
}

// Manifest lists every artifact a run produced, written alongside the
// figures so downstream consumers can find them without globbing.
type Manifest struct {
	RunID       string    `yaml:"run_id"`
	Year        int       `yaml:"year"`
	GeneratedAt time.Time `yaml:"generated_at"`
	Figures     []Figure  `yaml:"figures"`
}

// NewManifest starts a manifest for a run, stamped with the current time.
func NewManifest(runID string, year int) *Manifest {
	return &Manifest{RunID: runID, Year: year, GeneratedAt: time.Now().UTC()}
}

// Add appends a figure entry.
func (m *Manifest) Add(name, path, kind, title string) {
	m.Figures = append(m.Figures, Figure{Name: name, Path: path, Kind: kind, Title: title})
}

// Disabled reports whether the manifest switches the named figure off.
func (m *Manifest) Disabled(name string) bool {
	for _, f := range m.Figures {
		if f.Name == name {
			return f.Disabled
		}
	}
	return false
}

// Write saves the manifest as YAML.
func (m *Manifest) Write(path string) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return eris.Wrap(err, "render: marshal manifest")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "render: write manifest %s", path)
	}
	return nil
}

// LoadManifest reads a previously written manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "render: read manifest %s", path)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, eris.Wrapf(err, "render: parse manifest %s", path)
	}
	return &m, nil
}
