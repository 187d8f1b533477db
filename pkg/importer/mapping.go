package importer

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Order fields a workbook column can be mapped to.
const (
	FieldPONumber           = "po_number"
	FieldVendorCode         = "vendor_code"
	FieldOrderDate          = "order_date"
	FieldDeliveryDate       = "delivery_date"
	FieldItems              = "items"
	FieldQuantity           = "quantity"
	FieldStatus             = "status"
	FieldQualityRating      = "quality_rating"
	FieldIssueDate          = "issue_date"
	FieldAcknowledgmentDate = "acknowledgment_date"
)

var knownFields = map[string]bool{
	FieldPONumber: true, FieldVendorCode: true, FieldOrderDate: true,
	FieldDeliveryDate: true, FieldItems: true, FieldQuantity: true,
	FieldStatus: true, FieldQualityRating: true, FieldIssueDate: true,
	FieldAcknowledgmentDate: true,
}

var requiredFields = []string{FieldPONumber, FieldVendorCode, FieldDeliveryDate}

//go:embed default_mapping.yaml
var defaultMapping []byte

// Mapping describes how workbook headers map onto purchase order fields.
type Mapping struct {
	Version int `yaml:"version"`
	// Sheets limits the import to the named sheets; empty means every sheet.
	Sheets []string `yaml:"sheets"`
	// Columns maps an order field to the header names accepted for it.
	Columns     map[string][]string `yaml:"columns"`
	DateFormats []string            `yaml:"date_formats"`
}

// LoadMapping reads a mapping file. A missing file or an empty path falls
// back to the embedded default.
func LoadMapping(path string) (*Mapping, error) {
	if path == "" {
		return ParseMapping(defaultMapping)
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ParseMapping(defaultMapping)
	}
	if err != nil {
		return nil, fmt.Errorf("read mapping %s: %w", path, err)
	}
	m, err := ParseMapping(data)
	if err != nil {
		return nil, fmt.Errorf("mapping %s: %w", path, err)
	}
	return m, nil
}

// ParseMapping decodes and checks a YAML mapping document.
func ParseMapping(data []byte) (*Mapping, error) {
	var m Mapping
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse mapping: %w", err)
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	if len(m.DateFormats) == 0 {
		m.DateFormats = []string{"2006-01-02T15:04:05Z07:00", "2006-01-02 15:04:05", "2006-01-02", "01/02/2006"}
	}
	return &m, nil
}

func (m *Mapping) validate() error {
	var unknown []string
	for field := range m.Columns {
		if !knownFields[field] {
			unknown = append(unknown, field)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("unknown fields in mapping: %s", strings.Join(unknown, ", "))
	}
	for _, field := range requiredFields {
		if len(m.Columns[field]) == 0 {
			return fmt.Errorf("mapping has no header for required field %q", field)
		}
	}
	return nil
}

// wantsSheet reports whether the named sheet should be imported.
func (m *Mapping) wantsSheet(name string) bool {
	if len(m.Sheets) == 0 {
		return true
	}
	for _, s := range m.Sheets {
		if strings.EqualFold(s, name) {
			return true
		}
	}
	return false
}

// headerIndex maps normalized header text to the field it stands for.
func (m *Mapping) headerIndex() map[string]string {
	idx := make(map[string]string)
	for field, headers := range m.Columns {
		for _, h := range headers {
			idx[normalizeHeader(h)] = field
		}
	}
	return idx
}

func normalizeHeader(s string) string {
	return strings.ToUpper(strings.Join(strings.Fields(s), " "))
}
