package models

import (
	"time"
)

// TicketStatus describes the life-cycle state of a repair ticket.
type TicketStatus string

const (
	TicketStatusPending    TicketStatus = "Pending"
	TicketStatusInProgress TicketStatus = "In Progress"
	TicketStatusCompleted  TicketStatus = "Completed"
)

// Valid reports whether s is one of the known ticket states.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusPending, TicketStatusInProgress, TicketStatusCompleted:
		return true
	}
	return false
}

// RepairTicket is a repair request raised against one equipment record. UserID is nil for
// anonymous submissions from the public QR form.
type RepairTicket struct {
	ID                 uint         `gorm:"primaryKey" json:"id"`
	EquipmentID        uint         `gorm:"not null;index" json:"equipmentId"`
	UserID             *uint        `gorm:"index" json:"userId"`
	ReporterName       string       `json:"reporterName"`
	ReporterLocation   string       `json:"reporterLocation"`
	ReporterContact    string       `json:"reporterContact"`
	ProblemDescription string       `gorm:"type:text;not null" json:"problemDescription"`
	RequestDate        time.Time    `gorm:"not null;index" json:"requestDate"`
	AcceptedDate       *time.Time   `json:"acceptedDate"`
	CompletedDate      *time.Time   `json:"completedDate"`
	Status             TicketStatus `gorm:"type:varchar(32);not null;default:'Pending';index" json:"status"`
	TechnicianID       *uint        `json:"technicianId"`
	SolutionNotes      *string      `gorm:"type:text" json:"solutionNotes"`
}

func (RepairTicket) TableName() string {
	return "repair_requests"
}

// TicketView is a ticket joined with its equipment and reporting user, as shown in listings.
type TicketView struct {
	ID                 uint         `json:"id"`
	EquipmentID        uint         `json:"equipmentId"`
	UserID             *uint        `json:"userId"`
	AssetNumber        string       `json:"assetNumber"`
	EquipmentName      string       `json:"equipmentName"`
	ProblemDescription string       `json:"problemDescription"`
	RequestDate        time.Time    `json:"requestDate"`
	AcceptedDate       *time.Time   `json:"acceptedDate"`
	CompletedDate      *time.Time   `json:"completedDate"`
	Status             TicketStatus `json:"status"`
	ReporterLocation   string       `json:"reporterLocation"`
	ReporterContact    string       `json:"reporterContact"`
	SolutionNotes      *string      `json:"solutionNotes,omitempty"`
	RequestUser        string       `json:"requestUser"`
}
