package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/assetdesk/internal/models"
	"github.com/example/assetdesk/internal/service"
)

type repairPayload struct {
	AssetNumber        string `json:"assetNumber" form:"assetNumber"`
	ProblemDescription string `json:"problemDescription" form:"problemDescription"`
	ReporterName       string `json:"reporterName" form:"reporterName"`
	ReporterLocation   string `json:"reporterLocation" form:"reporterLocation"`
	ReporterContact    string `json:"reporterContact" form:"reporterContact"`
}

// createPublicRepair accepts a report from the QR landing form; JSON and form bodies both bind.
func (s *Server) createPublicRepair(c *gin.Context) {
	var payload repairPayload
	if err := c.ShouldBind(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticket, err := s.repairs.CreateTicket(c.Request.Context(), service.CreateTicketInput{
		AssetNumber:        payload.AssetNumber,
		ProblemDescription: payload.ProblemDescription,
		ReporterName:       payload.ReporterName,
		ReporterLocation:   payload.ReporterLocation,
		ReporterContact:    payload.ReporterContact,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

func (s *Server) createRepair(c *gin.Context) {
	var payload repairPayload
	if err := c.ShouldBind(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	actor := actorFrom(c)
	uid := actor.UserID
	ticket, err := s.repairs.CreateTicket(c.Request.Context(), service.CreateTicketInput{
		AssetNumber:        payload.AssetNumber,
		ProblemDescription: payload.ProblemDescription,
		ReporterName:       actor.FullName,
		ReporterLocation:   payload.ReporterLocation,
		ReporterContact:    payload.ReporterContact,
		UserID:             &uid,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ticket)
}

func (s *Server) listRepairs(c *gin.Context) {
	tickets, err := s.repairs.ListTickets(c.Request.Context(), actorFrom(c), models.TicketStatus(c.Query("status")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tickets)
}

func (s *Server) getRepair(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	ticket, err := s.repairs.GetTicket(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

func (s *Server) updateRepairStatus(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload struct {
		Status        models.TicketStatus `json:"status" binding:"required"`
		SolutionNotes *string             `json:"solutionNotes"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ticket, err := s.repairs.UpdateStatus(c.Request.Context(), id, service.UpdateStatusInput{
		Status:        payload.Status,
		SolutionNotes: payload.SolutionNotes,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ticket)
}

func (s *Server) deleteRepair(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.repairs.DeleteTicket(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
