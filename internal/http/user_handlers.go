package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/example/assetdesk/internal/models"
	"github.com/example/assetdesk/internal/service"
)

type userPayload struct {
	FullName string      `json:"fullName"`
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

func (p userPayload) input() service.UserInput {
	return service.UserInput{
		FullName: p.FullName,
		Username: p.Username,
		Password: p.Password,
		Role:     p.Role,
	}
}

func (s *Server) register(c *gin.Context) {
	var payload struct {
		FullName string `json:"fullName"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := s.users.Register(c.Request.Context(), service.RegisterInput{
		FullName: payload.FullName,
		Username: payload.Username,
		Password: payload.Password,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"userId": u.ID})
}

func (s *Server) login(c *gin.Context) {
	var payload struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "username and password are required"})
		return
	}
	result, err := s.users.Login(c.Request.Context(), payload.Username, payload.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) listUsers(c *gin.Context) {
	users, err := s.users.List(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (s *Server) getUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	u, err := s.users.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) createUser(c *gin.Context) {
	var payload userPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := s.users.Create(c.Request.Context(), payload.input())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (s *Server) updateUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var payload userPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := s.users.Update(c.Request.Context(), actorFrom(c), id, payload.input())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (s *Server) deleteUser(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := s.users.Delete(c.Request.Context(), actorFrom(c), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
