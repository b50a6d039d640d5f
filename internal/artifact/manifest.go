package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/attrition-cli/internal/utils"
)

const manifestFileName = "run.json"

// File kinds recorded in the manifest.
const (
	KindCSV    = "csv"
	KindReport = "report"
	KindPlot   = "plot"
)

// Manifest describes one run and the files it wrote.
type Manifest struct {
	ID        string           `json:"id"`
	Command   string           `json:"command"`
	Inputs    []string         `json:"inputs"`
	Seed      int64            `json:"seed"`
	Config    any              `json:"config,omitempty"`
	Files     map[string]*File `json:"files"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`

	// Not serialized: directory holding run.json and the outputs
	outDir string `json:"-"`
}

// File is one output written by the run.
type File struct {
	Name        string    `json:"name"`
	Kind        string    `json:"kind"`
	Description string    `json:"description,omitempty"`
	Bytes       int64     `json:"bytes"`
	AddedAt     time.Time `json:"added_at"`
}

// NewManifest constructs an in-memory manifest rooted at outDir. Call Save() to persist.
func NewManifest(outDir, command string) *Manifest {
	now := time.Now()
	return &Manifest{
		ID:        uuid.NewString(),
		Command:   command,
		Files:     make(map[string]*File),
		CreatedAt: now,
		UpdatedAt: now,
		outDir:    outDir,
	}
}

// Load reads run.json from dir.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, manifestFileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("manifest not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	m.outDir = dir
	return &m, nil
}

// Dir returns the output directory.
func (m *Manifest) Dir() string { return m.outDir }

// Path returns the location of name inside the output directory.
func (m *Manifest) Path(name string) string { return filepath.Join(m.outDir, name) }

// WriteFile writes data to name inside the output directory and records it.
func (m *Manifest) WriteFile(name, kind, description string, data []byte) error {
	if m.outDir == "" {
		return errors.New("output directory not set")
	}
	if err := utils.EnsureDir(m.outDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	if err := utils.SafeWriteFile(m.Path(name), data); err != nil {
		return err
	}
	return m.AddFile(name, kind, description)
}

// AddFile records a file that already exists in the output directory.
func (m *Manifest) AddFile(name, kind, description string) error {
	info, err := os.Stat(m.Path(name))
	if err != nil {
		return fmt.Errorf("stat output: %w", err)
	}
	if m.Files == nil {
		m.Files = make(map[string]*File)
	}
	m.Files[name] = &File{
		Name:        name,
		Kind:        kind,
		Description: description,
		Bytes:       info.Size(),
		AddedAt:     time.Now(),
	}
	m.UpdatedAt = time.Now()
	return nil
}

// List returns recorded files sorted by name.
func (m *Manifest) List() []*File {
	out := make([]*File, 0, len(m.Files))
	for _, f := range m.Files {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Save writes run.json using atomic write.
func (m *Manifest) Save() error {
	if m.outDir == "" {
		return errors.New("output directory not set")
	}
	if err := utils.EnsureDir(m.outDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	m.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(m)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(m.Path(manifestFileName), data)
}
