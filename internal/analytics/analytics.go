// Package analytics derives dashboard summary figures from the dataset,
// submitted reports, and the current predictions.
package analytics

import (
	"github.com/couchcryptid/disaster-map-service/internal/domain"
)

// Input is everything a summary is computed from.
type Input struct {
	Disasters   []domain.DisasterRecord
	Centers     []domain.ReliefCenter
	Reports     []domain.EmergencyReport
	Predictions []domain.EnrichedItem
}

// TypeShare is one slice of the disaster-type distribution.
type TypeShare struct {
	Type    string `json:"type"`
	Count   int    `json:"count"`
	Percent int    `json:"percent"`
}

// Summary is the analytics payload.
type Summary struct {
	Distribution    []TypeShare `json:"distribution"`
	TotalDisasters  int         `json:"total_disasters"`
	ActiveDisasters int         `json:"active_disasters"`
	AverageSeverity float64     `json:"average_severity"`

	ReliefCenters      int `json:"relief_centers"`
	OperationalCenters int `json:"operational_centers"`
	TotalCapacity      int `json:"total_capacity"`
	TotalOccupancy     int `json:"total_occupancy"`
	OccupancyPercent   int `json:"occupancy_percent"`

	TotalReports   int `json:"total_reports"`
	PendingReports int `json:"pending_reports"`

	AnalyzedItems      int `json:"analyzed_items"`
	PredictedDisasters int `json:"predicted_disasters"`
}

// Summarize computes a Summary. Distribution entries follow
// domain.DisasterTypes order and omit types with no records.
func Summarize(in Input) Summary {
	s := Summary{
		TotalDisasters: len(in.Disasters),
		ReliefCenters:  len(in.Centers),
		TotalReports:   len(in.Reports),
	}

	counts := make(map[string]int, len(domain.DisasterTypes))
	severity := 0
	for _, d := range in.Disasters {
		counts[d.Type]++
		severity += d.Severity
		if d.Status == domain.StatusActive {
			s.ActiveDisasters++
		}
	}
	if s.TotalDisasters > 0 {
		s.AverageSeverity = float64(severity) / float64(s.TotalDisasters)
	}
	s.Distribution = make([]TypeShare, 0, len(counts))
	for _, t := range domain.DisasterTypes {
		n := counts[t]
		if n == 0 {
			continue
		}
		s.Distribution = append(s.Distribution, TypeShare{
			Type:    t,
			Count:   n,
			Percent: domain.Percent(float64(n) / float64(s.TotalDisasters)),
		})
	}

	for _, c := range in.Centers {
		if c.Status == domain.CenterOperational {
			s.OperationalCenters++
		}
		s.TotalCapacity += c.Capacity
		s.TotalOccupancy += c.CurrentOccupancy
	}
	if s.TotalCapacity > 0 {
		s.OccupancyPercent = domain.Percent(float64(s.TotalOccupancy) / float64(s.TotalCapacity))
	}

	for _, r := range in.Reports {
		if r.Status == domain.ReportPending {
			s.PendingReports++
		}
	}

	for _, item := range in.Predictions {
		p := item.Prediction.Get()
		if p == nil {
			continue
		}
		s.AnalyzedItems++
		if p.IsDisaster {
			s.PredictedDisasters++
		}
	}

	return s
}
