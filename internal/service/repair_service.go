package service

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/example/assetdesk/internal/apperrors"
	"github.com/example/assetdesk/internal/models"
	"github.com/example/assetdesk/internal/mq"
	"github.com/example/assetdesk/internal/notify"
	"github.com/example/assetdesk/internal/repository"
)

const notifyTimeout = 30 * time.Second

// Actor is the authenticated caller of an operation.
type Actor struct {
	UserID   uint
	Role     models.Role
	FullName string
}

// CreateTicketInput carries a new repair request. Public submissions have no UserID and must
// name the reporter explicitly.
type CreateTicketInput struct {
	AssetNumber        string
	ProblemDescription string
	ReporterName       string
	ReporterLocation   string
	ReporterContact    string
	UserID             *uint
}

// UpdateStatusInput changes a ticket's state. SolutionNotes is left untouched when nil.
type UpdateStatusInput struct {
	Status        models.TicketStatus
	SolutionNotes *string
}

// RepairService owns the repair ticket lifecycle.
type RepairService struct {
	tickets   *repository.RepairRepository
	equipment *repository.EquipmentRepository
	mq        mq.Publisher
	notifier  notify.Notifier
	now       func() time.Time
	log       *slog.Logger
}

// NewRepairService builds a service with dependencies. A nil publisher disables events and a
// nil notifier disables staff alerts.
func NewRepairService(tickets *repository.RepairRepository, equipment *repository.EquipmentRepository, publisher mq.Publisher, notifier notify.Notifier, now func() time.Time, log *slog.Logger) *RepairService {
	if notifier == nil {
		notifier = notify.Nop{}
	}
	if now == nil {
		now = time.Now
	}
	return &RepairService{tickets: tickets, equipment: equipment, mq: publisher, notifier: notifier, now: now, log: log}
}

// CreateTicket validates the request, resolves the asset number and stores a Pending ticket.
// Staff are notified asynchronously; notification failures never fail the request.
func (s *RepairService) CreateTicket(ctx context.Context, in CreateTicketInput) (*models.RepairTicket, error) {
	in.AssetNumber = strings.TrimSpace(in.AssetNumber)
	in.ProblemDescription = strings.TrimSpace(in.ProblemDescription)
	in.ReporterName = strings.TrimSpace(in.ReporterName)
	in.ReporterLocation = strings.TrimSpace(in.ReporterLocation)
	in.ReporterContact = strings.TrimSpace(in.ReporterContact)

	if in.AssetNumber == "" || in.ProblemDescription == "" {
		return nil, apperrors.NewValidationError("assetNumber and problemDescription are required")
	}
	if in.UserID == nil && (in.ReporterName == "" || in.ReporterLocation == "" || in.ReporterContact == "") {
		return nil, apperrors.NewValidationError("reporterName, reporterLocation and reporterContact are required")
	}

	eq, err := s.equipment.FindByAssetNumber(ctx, in.AssetNumber)
	if err != nil {
		return nil, err
	}

	ticket := &models.RepairTicket{
		EquipmentID:        eq.ID,
		UserID:             in.UserID,
		ReporterName:       in.ReporterName,
		ReporterLocation:   in.ReporterLocation,
		ReporterContact:    in.ReporterContact,
		ProblemDescription: in.ProblemDescription,
		RequestDate:        s.now(),
		Status:             models.TicketStatusPending,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, err
	}

	s.publishEvent(ctx, mq.EventRepairCreated, ticket, eq.AssetNumber)
	s.dispatchNotification(ctx, notify.RepairNotice{
		TicketID:           ticket.ID,
		AssetNumber:        eq.AssetNumber,
		AssetName:          eq.Name,
		ProblemDescription: ticket.ProblemDescription,
		ReporterName:       ticket.ReporterName,
		ReporterLocation:   ticket.ReporterLocation,
		ReporterContact:    ticket.ReporterContact,
	})
	return ticket, nil
}

// UpdateStatus applies a status transition and returns the refreshed ticket. Any of the three
// states may follow any other, which lets staff reopen a completed ticket.
func (s *RepairService) UpdateStatus(ctx context.Context, id uint, in UpdateStatusInput) (*models.TicketView, error) {
	if !in.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", string(in.Status))
	}
	err := s.tickets.UpdateStatus(ctx, id, repository.StatusChange{
		Status:        in.Status,
		SolutionNotes: in.SolutionNotes,
		At:            s.now(),
	})
	if err != nil {
		return nil, err
	}
	view, err := s.tickets.GetView(ctx, id)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, mq.EventRepairStatusChanged, map[string]any{
		"ticketId":      view.ID,
		"assetNumber":   view.AssetNumber,
		"status":        view.Status,
		"acceptedDate":  view.AcceptedDate,
		"completedDate": view.CompletedDate,
	})
	return view, nil
}

// ListTickets returns the tickets visible to the actor: plain users only see their own.
func (s *RepairService) ListTickets(ctx context.Context, actor Actor, status models.TicketStatus) ([]models.TicketView, error) {
	if status != "" && !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", string(status))
	}
	filter := repository.TicketFilter{Status: status}
	if !actor.Role.IsStaff() {
		uid := actor.UserID
		filter.UserID = &uid
	}
	return s.tickets.List(ctx, filter)
}

func (s *RepairService) GetTicket(ctx context.Context, id uint) (*models.TicketView, error) {
	return s.tickets.GetView(ctx, id)
}

func (s *RepairService) DeleteTicket(ctx context.Context, id uint) error {
	return s.tickets.Delete(ctx, id)
}

func (s *RepairService) publishEvent(ctx context.Context, event string, ticket *models.RepairTicket, assetNumber string) {
	s.publish(ctx, event, map[string]any{
		"ticketId":    ticket.ID,
		"assetNumber": assetNumber,
		"status":      ticket.Status,
		"userId":      ticket.UserID,
		"requestDate": ticket.RequestDate.UTC().Format(time.RFC3339),
	})
}

func (s *RepairService) publish(ctx context.Context, event string, payload map[string]any) {
	if s.mq == nil {
		return
	}
	payload["event"] = event
	payload["occurredAt"] = s.now().UTC().Format(time.RFC3339)
	if err := s.mq.Publish(ctx, event, payload); err != nil {
		s.log.Warn("publish event failed", "event", event, "error", err)
	}
}

func (s *RepairService) dispatchNotification(ctx context.Context, notice notify.RepairNotice) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	go func() {
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				s.log.Error("notification panicked", "panic", fmt.Sprint(r), "stack", string(debug.Stack()))
			}
		}()
		if err := s.notifier.Notify(ctx, notice); err != nil {
			s.log.Warn("repair notification failed", "ticket_id", notice.TicketID, "error", err)
			return
		}
		s.log.Debug("repair notification sent", "ticket_id", notice.TicketID)
	}()
}
