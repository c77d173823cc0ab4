package http

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/example/assetdesk/internal/models"
	"github.com/example/assetdesk/internal/service"
	"github.com/example/assetdesk/internal/transfer"
)

const (
	importField     = "csvFile"
	maxImportMemory = 8 << 20
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type equipmentPayload struct {
	AssetNumber string                 `json:"assetNumber"`
	Name        string                 `json:"name"`
	Type        string                 `json:"type"`
	Location    string                 `json:"location"`
	Status      models.EquipmentStatus `json:"status"`
}

func (p equipmentPayload) input() service.EquipmentInput {
	return service.EquipmentInput{
		AssetNumber: p.AssetNumber,
		Name:        p.Name,
		Type:        p.Type,
		Location:    p.Location,
		Status:      p.Status,
	}
}

func (s *Server) listEquipment(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	result, err := s.equipment.List(c.Request.Context(), service.ListEquipmentQuery{
		Page:   page,
		Limit:  limit,
		Search: c.Query("search"),
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) equipmentDetails(c *gin.Context) {
	details, err := s.equipment.Details(c.Request.Context(), c.Param("assetNumber"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (s *Server) equipmentHistory(c *gin.Context) {
	history, err := s.equipment.History(c.Request.Context(), c.Param("assetNumber"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (s *Server) createEquipment(c *gin.Context) {
	var payload equipmentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	eq, err := s.equipment.Create(c.Request.Context(), payload.input())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, eq)
}

func (s *Server) updateEquipment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload equipmentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	eq, err := s.equipment.Update(c.Request.Context(), id, payload.input())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, eq)
}

func (s *Server) deleteEquipment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.equipment.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) equipmentSummary(c *gin.Context) {
	summary, err := s.reports.Summary(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func (s *Server) importEquipment(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(maxImportMemory); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected multipart form with " + importField})
		return
	}
	header, err := c.FormFile(importField)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no file uploaded"})
		return
	}
	file, err := header.Open()
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer file.Close()

	rows, err := transfer.ReadCSV(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not parse CSV file", "details": err.Error()})
		return
	}
	n, err := s.equipment.Import(c.Request.Context(), rows)
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.log.Info("equipment imported", "file", header.Filename, "rows", n)
	c.JSON(http.StatusOK, gin.H{"imported": n})
}

// exportEquipment renders the whole registry before writing so a failure still gets a JSON error.
func (s *Server) exportEquipment(c *gin.Context) {
	items, err := s.equipment.Export(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}

	format := c.DefaultQuery("format", "csv")
	var (
		buf         bytes.Buffer
		contentType string
	)
	switch format {
	case "csv":
		contentType = "text/csv; charset=utf-8"
		err = transfer.WriteCSV(&buf, items)
	case "xlsx":
		contentType = xlsxContentType
		err = transfer.WriteXLSX(&buf, items)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported export format", "details": format})
		return
	}
	if err != nil {
		s.respondError(c, err)
		return
	}

	filename := fmt.Sprintf("equipment-export-%s.%s", time.Now().Format("2006-01-02"), format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, buf.Bytes())
}
