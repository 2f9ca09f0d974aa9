// Package dataset loads the static text items, ground-truth disasters, relief
// centers, and emergency contacts the dashboard serves.
package dataset

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/disaster-map-service/internal/domain"
)

//go:embed seed.yaml
var seed []byte

// ErrNoTextItems is returned for a dataset with nothing to enrich.
var ErrNoTextItems = errors.New("at least one text item is required")

// Dataset is the read-only input to the dashboard.
type Dataset struct {
	TextItems     []domain.TextItem         `yaml:"text_items"`
	Disasters     []domain.DisasterRecord   `yaml:"disasters"`
	ReliefCenters []domain.ReliefCenter     `yaml:"relief_centers"`
	Contacts      []domain.EmergencyContact `yaml:"emergency_contacts"`
}

// Default returns the embedded seed dataset.
func Default() (*Dataset, error) {
	return Parse(seed)
}

// Load reads a dataset from path, or the embedded seed when path is empty.
func Load(path string) (*Dataset, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	ds, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ds, nil
}

// Parse decodes and validates a YAML dataset. Unknown fields are rejected.
func Parse(data []byte) (*Dataset, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var ds Dataset
	if err := dec.Decode(&ds); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	if err := ds.Validate(); err != nil {
		return nil, err
	}
	return &ds, nil
}

// Validate checks every record and rejects duplicate IDs within a section.
// The text item list must not be empty.
func (d *Dataset) Validate() error {
	var errs []error

	if len(d.TextItems) == 0 {
		errs = append(errs, ErrNoTextItems)
	}

	itemIDs := make(map[int]bool, len(d.TextItems))
	for _, item := range d.TextItems {
		if itemIDs[item.ID] {
			errs = append(errs, fmt.Errorf("text item %d: duplicate id", item.ID))
		}
		itemIDs[item.ID] = true
		if err := item.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	disasterIDs := make(map[string]bool, len(d.Disasters))
	for _, rec := range d.Disasters {
		if disasterIDs[rec.ID] {
			errs = append(errs, fmt.Errorf("disaster %q: duplicate id", rec.ID))
		}
		disasterIDs[rec.ID] = true
		if err := rec.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	centerIDs := make(map[string]bool, len(d.ReliefCenters))
	for _, c := range d.ReliefCenters {
		if centerIDs[c.ID] {
			errs = append(errs, fmt.Errorf("relief center %q: duplicate id", c.ID))
		}
		centerIDs[c.ID] = true
		if err := c.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	for _, c := range d.Contacts {
		if err := c.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// CentersByStatus returns relief centers with the given status, or all of them
// when status is empty.
func (d *Dataset) CentersByStatus(status string) []domain.ReliefCenter {
	out := make([]domain.ReliefCenter, 0, len(d.ReliefCenters))
	for _, c := range d.ReliefCenters {
		if status == "" || c.Status == status {
			out = append(out, c)
		}
	}
	return out
}
