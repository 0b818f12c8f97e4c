package catalogs

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"slotsight.app/internal/overlay/model"
	"slotsight.app/internal/overlay/toggles"
)

//go:embed toggles.schema.json
var schemaJSON []byte

//go:embed default_toggles.yaml
var defaultCatalog []byte

const schemaURL = "toggles.schema.json"

var (
	schemaOnce sync.Once
	schema     *jsonschema.Schema
	schemaErr  error
)

func compiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, bytes.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		schema, schemaErr = c.Compile(schemaURL)
	})
	return schema, schemaErr
}

// ToggleCatalog is the decoded toggles.yaml plus the table built from it.
type ToggleCatalog struct {
	Version int         `yaml:"version" json:"version"`
	Toggles []ToggleDef `yaml:"toggles" json:"toggles"`
	Groups  []NamedSet  `yaml:"groups" json:"groups,omitempty"`
	Presets []NamedSet  `yaml:"presets" json:"presets,omitempty"`

	Table  *toggles.Table `yaml:"-" json:"-"`
	Digest string         `yaml:"-" json:"-"`
}

type ToggleDef struct {
	ID   string `yaml:"id" json:"id"`
	Bit  uint8  `yaml:"bit" json:"bit"`
	Slot int    `yaml:"slot" json:"slot"`
}

type NamedSet struct {
	Name    string   `yaml:"name" json:"name"`
	Members []string `yaml:"members" json:"members"`
}

// Default parses the built-in catalog, used when no config directory is
// available.
func Default() (*ToggleCatalog, error) {
	return Parse(defaultCatalog)
}

// LoadOrDefault loads path, falling back to Default when the file does not
// exist.
func LoadOrDefault(path string) (*ToggleCatalog, bool, error) {
	c, err := Load(path)
	if err == nil {
		return c, false, nil
	}
	if !os.IsNotExist(err) {
		return nil, false, err
	}
	c, err = Default()
	return c, true, err
}

func Load(path string) (*ToggleCatalog, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse validates raw YAML against the catalog schema and builds the table.
func Parse(raw []byte) (*ToggleCatalog, error) {
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("toggles.yaml: %w", err)
	}
	// The validator expects JSON-shaped values.
	asJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("toggles.yaml: %w", err)
	}
	var generic any
	if err := json.Unmarshal(asJSON, &generic); err != nil {
		return nil, fmt.Errorf("toggles.yaml: %w", err)
	}
	sch, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("toggles schema: %w", err)
	}
	if err := sch.Validate(generic); err != nil {
		return nil, fmt.Errorf("toggles.yaml: %w", err)
	}

	var c ToggleCatalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("toggles.yaml: %w", err)
	}
	c.Table, err = c.build()
	if err != nil {
		return nil, fmt.Errorf("toggles.yaml: %w", err)
	}
	c.Digest = sha256Hex(asJSON)
	return &c, nil
}

func (c *ToggleCatalog) build() (*toggles.Table, error) {
	entries := make([]toggles.Entry, 0, len(c.Toggles))
	for _, d := range c.Toggles {
		entries = append(entries, toggles.Entry{
			ID:          model.NormalizeToggleID(d.ID),
			Bit:         d.Bit,
			DisplaySlot: d.Slot,
		})
	}
	groups := make([]toggles.Group, 0, len(c.Groups))
	for _, g := range c.Groups {
		groups = append(groups, toggles.Group{Name: g.Name, Members: ids(g.Members)})
	}
	presets := make([]toggles.Preset, 0, len(c.Presets))
	for _, p := range c.Presets {
		presets = append(presets, toggles.Preset{Name: p.Name, Members: ids(p.Members)})
	}
	return toggles.NewTable(entries, groups, presets)
}

func ids(in []string) []model.ToggleID {
	out := make([]model.ToggleID, 0, len(in))
	for _, s := range in {
		out = append(out, model.NormalizeToggleID(s))
	}
	return out
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
