package importer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ImportSchema is the top-level structure of an order import file. Elements
// are listed parents first.
type ImportSchema struct {
	Order    OrderImport     `json:"order" yaml:"order"`
	Elements []ElementImport `json:"elements" yaml:"elements"`
}

// OrderImport defines the order-level fields in the import file.
type OrderImport struct {
	Code        string `json:"code" yaml:"code" validate:"required,ordercode"`
	Name        string `json:"name" yaml:"name" validate:"required,max=255"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" validate:"max=2000"`
}

// ElementImport defines an order element in the import file.
type ElementImport struct {
	Code         string           `json:"code" yaml:"code" validate:"required,ordercode"`
	ParentCode   *string          `json:"parent_code,omitempty" yaml:"parent_code,omitempty"`
	Name         string           `json:"name" yaml:"name" validate:"required,max=255"`
	Description  string           `json:"description,omitempty" yaml:"description,omitempty"`
	Kind         string           `json:"kind" yaml:"kind" validate:"required,oneof=leaf group"`
	Hours        []HoursImport    `json:"hours,omitempty" yaml:"hours,omitempty" validate:"dive"`
	Labels       []LabelImport    `json:"labels,omitempty" yaml:"labels,omitempty" validate:"dive"`
	Materials    []MaterialImport `json:"materials,omitempty" yaml:"materials,omitempty" validate:"dive"`
	QualityForms []string         `json:"quality_forms,omitempty" yaml:"quality_forms,omitempty" validate:"dive,required"`
	Criteria     []string         `json:"criteria,omitempty" yaml:"criteria,omitempty" validate:"dive,required"`
	InitDate     *string          `json:"init_date,omitempty" yaml:"init_date,omitempty"`
	Deadline     *string          `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	Template     string           `json:"template,omitempty" yaml:"template,omitempty"`
	// Schedule makes the element a scheduling point from creation.
	Schedule bool `json:"schedule,omitempty" yaml:"schedule,omitempty"`
}

// HoursImport defines an hours group of a leaf element.
type HoursImport struct {
	Code         string `json:"code" yaml:"code" validate:"required"`
	Hours        int    `json:"hours" yaml:"hours" validate:"gte=0"`
	ResourceType string `json:"resource_type,omitempty" yaml:"resource_type,omitempty"`
}

// LabelImport defines a label assigned to an element.
type LabelImport struct {
	Code string `json:"code" yaml:"code" validate:"required"`
	Type string `json:"type,omitempty" yaml:"type,omitempty"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
}

// MaterialImport defines a material assignment of an element.
type MaterialImport struct {
	Code      string  `json:"code" yaml:"code" validate:"required"`
	Units     float64 `json:"units" yaml:"units" validate:"gte=0"`
	UnitPrice float64 `json:"unit_price" yaml:"unit_price" validate:"gte=0"`
}

// Format is the encoding of an import file.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFromPath picks the format from the file extension; anything but
// .yaml and .yml is read as JSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// LoadImportSchema reads and parses an order import file.
func LoadImportSchema(path string) (*ImportSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseImportSchema(data, FormatFromPath(path))
}

// ParseImportSchema decodes data in the given format.
func ParseImportSchema(data []byte, format Format) (*ImportSchema, error) {
	var schema ImportSchema
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &schema); err != nil {
			return nil, fmt.Errorf("parsing import file: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &schema); err != nil {
			return nil, fmt.Errorf("parsing import file: %w", err)
		}
	}
	return &schema, nil
}
