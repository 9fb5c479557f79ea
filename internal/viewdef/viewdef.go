// Package viewdef loads list view definitions from JSON or YAML files and
// validates them against an embedded JSON schema.
package viewdef

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/gnemet/listview"
)

//go:embed schema.json
var schemaJSON []byte

// Schema returns the JSON schema of a view definition.
func Schema() []byte { return schemaJSON }

// Format of a definition document.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
)

// ErrInvalid wraps schema violations. The message lists every violation.
var ErrInvalid = errors.New("invalid view definition")

// Definition describes how a list is shown.
type Definition struct {
	Title            string               `json:"title,omitempty"`
	List             string               `json:"list"`
	ViewFields       []listview.ViewField `json:"viewFields"`
	GroupByFields    []listview.GroupSpec `json:"groupByFields,omitempty"`
	IconFieldName    string               `json:"iconFieldName,omitempty"`
	ShowFilter       bool                 `json:"showFilter,omitempty"`
	ContainerWidth   int                  `json:"containerWidth,omitempty"`
	DefaultSelection []int                `json:"defaultSelection,omitempty"`
}

// FormatOf picks the format from a file extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	}
	return "", fmt.Errorf("%w: unsupported extension %q", listview.ErrInvalidArgument, filepath.Ext(path))
}

// Load reads and parses the definition at path.
func Load(path string) (*Definition, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	def, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return def, nil
}

// Parse decodes, validates and converts a definition document.
func Parse(data []byte, format Format) (*Definition, error) {
	doc, err := decode(data, format)
	if err != nil {
		return nil, err
	}
	if err := Validate(doc); err != nil {
		return nil, err
	}

	// Both formats go through JSON so the json tags drive the mapping.
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var def Definition
	if err := json.Unmarshal(raw, &def); err != nil {
		return nil, fmt.Errorf("decode definition: %w", err)
	}

	// Group fields need not be displayed; the list catalog is checked when
	// the view is loaded.
	if err := listview.ValidateGroupSpecs(def.GroupByFields, nil); err != nil {
		return nil, err
	}
	return &def, nil
}

func decode(data []byte, format Format) (interface{}, error) {
	var doc interface{}
	switch format {
	case JSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode json: %w", err)
		}
	case YAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown format %q", listview.ErrInvalidArgument, format)
	}
	return doc, nil
}

// Validate checks a decoded document against the schema.
func Validate(doc interface{}) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("schema validation failed: %w", err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

// Props builds the view properties of the definition over items.
func (d *Definition) Props(items []listview.Item) listview.Props {
	return listview.Props{
		List:             d.List,
		Items:            items,
		ViewFields:       d.ViewFields,
		GroupByFields:    d.GroupByFields,
		IconFieldName:    d.IconFieldName,
		ShowFilter:       d.ShowFilter,
		ContainerWidth:   d.ContainerWidth,
		DefaultSelection: d.DefaultSelection,
	}
}
