package domain

import (
	"errors"
	"fmt"
	"time"
)

// Location is a point on the map with a display address.
type Location struct {
	Lat     float64 `json:"lat" yaml:"lat"`
	Lng     float64 `json:"lng" yaml:"lng"`
	Address string  `json:"address,omitempty" yaml:"address"`
}

// DisasterRecord is a ground-truth disaster supplied by the dataset.
type DisasterRecord struct {
	ID           string    `json:"id" yaml:"id"`
	Type         string    `json:"type" yaml:"type"`
	Severity     int       `json:"severity" yaml:"severity"` // 1–5
	Location     Location  `json:"location" yaml:"location"`
	Status       string    `json:"status" yaml:"status"`
	Description  string    `json:"description" yaml:"description"`
	AffectedArea float64   `json:"affected_area_km2" yaml:"affected_area_km2"`
	ReportedAt   time.Time `json:"reported_at" yaml:"reported_at"`
}

// Supplies holds remaining stock per category as a percentage.
type Supplies struct {
	Water   int `json:"water" yaml:"water"`
	Food    int `json:"food" yaml:"food"`
	Medical int `json:"medical" yaml:"medical"`
	Shelter int `json:"shelter" yaml:"shelter"`
}

// ReliefCenter is a shelter or distribution point.
type ReliefCenter struct {
	ID               string   `json:"id" yaml:"id"`
	Name             string   `json:"name" yaml:"name"`
	Location         Location `json:"location" yaml:"location"`
	Capacity         int      `json:"capacity" yaml:"capacity"`
	CurrentOccupancy int      `json:"current_occupancy" yaml:"current_occupancy"`
	Supplies         Supplies `json:"supplies" yaml:"supplies"`
	Status           string   `json:"status" yaml:"status"`
}

// OccupancyPercent returns how full the center is, 0–100.
func (c ReliefCenter) OccupancyPercent() int {
	if c.Capacity <= 0 {
		return 0
	}
	return Percent(float64(c.CurrentOccupancy) / float64(c.Capacity))
}

// EmergencyReport is a user-submitted request for help.
type EmergencyReport struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Priority    string    `json:"priority"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submitted_at"`
}

const (
	StatusActive    = "active"
	StatusContained = "contained"
	StatusResolved  = "resolved"

	CenterOperational = "operational"
	CenterFull        = "full"
	CenterClosed      = "closed"

	ReportPending = "pending"
)

// DisasterTypes lists the recognized disaster categories in display order.
var DisasterTypes = []string{"earthquake", "flood", "hurricane", "wildfire", "tornado"}

var (
	disasterStatuses = map[string]bool{StatusActive: true, StatusContained: true, StatusResolved: true}
	centerStatuses   = map[string]bool{CenterOperational: true, CenterFull: true, CenterClosed: true}
)

// Validate checks a disaster record against the dataset conventions.
func (d DisasterRecord) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if !isDisasterType(d.Type) {
		errs = append(errs, fmt.Errorf("unknown type %q", d.Type))
	}
	if d.Severity < 1 || d.Severity > 5 {
		errs = append(errs, fmt.Errorf("severity %d out of range 1-5", d.Severity))
	}
	if !disasterStatuses[d.Status] {
		errs = append(errs, fmt.Errorf("unknown status %q", d.Status))
	}
	if err := validateCoords(d.Location.Lat, d.Location.Lng); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("disaster %q: %w", d.ID, err)
	}
	return nil
}

// Validate checks a relief center against the dataset conventions.
func (c ReliefCenter) Validate() error {
	var errs []error
	if c.ID == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if c.Capacity < 0 || c.CurrentOccupancy < 0 || c.CurrentOccupancy > c.Capacity {
		errs = append(errs, fmt.Errorf("occupancy %d/%d is invalid", c.CurrentOccupancy, c.Capacity))
	}
	supplies := []struct {
		name  string
		value int
	}{
		{"water", c.Supplies.Water},
		{"food", c.Supplies.Food},
		{"medical", c.Supplies.Medical},
		{"shelter", c.Supplies.Shelter},
	}
	for _, s := range supplies {
		if s.value < 0 || s.value > 100 {
			errs = append(errs, fmt.Errorf("supplies.%s %d out of range 0-100", s.name, s.value))
		}
	}
	if !centerStatuses[c.Status] {
		errs = append(errs, fmt.Errorf("unknown status %q", c.Status))
	}
	if err := validateCoords(c.Location.Lat, c.Location.Lng); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("relief center %q: %w", c.ID, err)
	}
	return nil
}

// Validate checks a text item's coordinates and content.
func (t TextItem) Validate() error {
	if t.Text == "" {
		return fmt.Errorf("text item %d: text is required", t.ID)
	}
	if err := validateCoords(t.Geo.Lat, t.Geo.Lng); err != nil {
		return fmt.Errorf("text item %d: %w", t.ID, err)
	}
	return nil
}

func isDisasterType(t string) bool {
	for _, dt := range DisasterTypes {
		if dt == t {
			return true
		}
	}
	return false
}

func validateCoords(lat, lng float64) error {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return fmt.Errorf("coordinates (%g, %g) out of range", lat, lng)
	}
	return nil
}

// EmergencyContact is a public hotline shown alongside the map.
type EmergencyContact struct {
	Service string `json:"service" yaml:"service"`
	Number  string `json:"number" yaml:"number"`
}

// Validate checks that the contact can be dialed.
func (c EmergencyContact) Validate() error {
	if c.Service == "" || c.Number == "" {
		return fmt.Errorf("emergency contact %q: service and number are required", c.Service)
	}
	return nil
}
