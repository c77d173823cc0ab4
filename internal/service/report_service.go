package service

import (
	"context"
	"sort"

	"github.com/example/assetdesk/internal/repository"
)

const topTypesByResolution = 5

// TimeSummary holds mean durations in seconds; nil when no completed ticket qualifies.
type TimeSummary struct {
	AvgResponseSeconds   *float64 `json:"avgResponseSeconds"`
	AvgResolutionSeconds *float64 `json:"avgResolutionSeconds"`
	CompletedTickets     int      `json:"completedTickets"`
}

type TypeResolution struct {
	Type                 string  `json:"type"`
	AvgResolutionSeconds float64 `json:"avgResolutionSeconds"`
}

// Summary is a point-in-time snapshot of the registry and ticket turnaround.
type Summary struct {
	Total       int64                    `json:"total"`
	ByStatus    []repository.StatusCount `json:"byStatus"`
	ByType      []repository.TypeCount   `json:"byType"`
	TimeSummary TimeSummary              `json:"timeSummary"`
	TimeByType  []TypeResolution         `json:"timeByType"`
}

// ReportService computes aggregate statistics. Nothing is cached.
type ReportService struct {
	equipment *repository.EquipmentRepository
	tickets   *repository.RepairRepository
}

func NewReportService(equipment *repository.EquipmentRepository, tickets *repository.RepairRepository) *ReportService {
	return &ReportService{equipment: equipment, tickets: tickets}
}

func (s *ReportService) Summary(ctx context.Context) (*Summary, error) {
	total, err := s.equipment.Count(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.equipment.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}
	byType, err := s.equipment.CountByType(ctx)
	if err != nil {
		return nil, err
	}
	completed, err := s.tickets.CompletedTickets(ctx)
	if err != nil {
		return nil, err
	}

	timeSummary, timeByType := SummarizeDurations(completed)
	return &Summary{
		Total:       total,
		ByStatus:    byStatus,
		ByType:      byType,
		TimeSummary: timeSummary,
		TimeByType:  timeByType,
	}, nil
}

// SummarizeDurations computes mean response (request→accept) and resolution (accept→complete)
// times, plus the five equipment types with the longest mean resolution. Tickets with an empty
// equipment type count toward the overall means but not the per-type breakdown.
func SummarizeDurations(rows []repository.CompletedTicket) (TimeSummary, []TypeResolution) {
	summary := TimeSummary{CompletedTickets: len(rows)}
	byType := []TypeResolution{}
	if len(rows) == 0 {
		return summary, byType
	}

	type acc struct {
		sum float64
		n   int
	}
	var response, resolution float64
	perType := map[string]*acc{}
	for _, r := range rows {
		response += r.AcceptedDate.Sub(r.RequestDate).Seconds()
		res := r.CompletedDate.Sub(r.AcceptedDate).Seconds()
		resolution += res
		if r.EquipmentType == "" {
			continue
		}
		a, ok := perType[r.EquipmentType]
		if !ok {
			a = &acc{}
			perType[r.EquipmentType] = a
		}
		a.sum += res
		a.n++
	}

	n := float64(len(rows))
	avgResponse := response / n
	avgResolution := resolution / n
	summary.AvgResponseSeconds = &avgResponse
	summary.AvgResolutionSeconds = &avgResolution

	for typ, a := range perType {
		byType = append(byType, TypeResolution{Type: typ, AvgResolutionSeconds: a.sum / float64(a.n)})
	}
	sort.Slice(byType, func(i, j int) bool {
		if byType[i].AvgResolutionSeconds != byType[j].AvgResolutionSeconds {
			return byType[i].AvgResolutionSeconds > byType[j].AvgResolutionSeconds
		}
		return byType[i].Type < byType[j].Type
	})
	if len(byType) > topTypesByResolution {
		byType = byType[:topTypesByResolution]
	}
	return summary, byType
}
