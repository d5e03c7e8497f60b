package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"firecert/internal/middleware"
	"firecert/internal/model"
	"firecert/internal/service"
	"firecert/pkg/pagination"
	"firecert/pkg/response"
)

type EstablishmentHandler struct {
	establishmentService service.EstablishmentService
}

func NewEstablishmentHandler(establishmentService service.EstablishmentService) *EstablishmentHandler {
	return &EstablishmentHandler{establishmentService: establishmentService}
}

func (h *EstablishmentHandler) RegisterRoutes(router *gin.RouterGroup) {
	ests := router.Group("/api/establishments")
	{
		ests.GET("", middleware.RequireRole(model.RoleOwner, model.RoleInspector, model.RoleAdmin), h.ListEstablishments)
		ests.GET("/:id", middleware.RequireRole(model.RoleOwner, model.RoleInspector, model.RoleAdmin), h.GetEstablishment)
		ests.DELETE("/:id", middleware.RequireRole(model.RoleOwner, model.RoleAdmin), h.DeactivateEstablishment)

		wiz := ests.Group("/wizard", middleware.RequireRole(model.RoleOwner, model.RoleAdmin))
		wiz.POST("", h.OpenWizard)
		registerWizardSessionRoutes(wiz, h.establishmentService)
	}
}

type openEstablishmentWizardRequest struct {
	DraftID *string `json:"draft_id"`
}

// OpenWizard starts a registration wizard session, optionally loading an
// existing establishment for editing
// @Summary      Open registration wizard
// @Tags         establishments
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  openEstablishmentWizardRequest  false  "Optional establishment to edit"
// @Success      201  {object}  response.Response{data=service.SessionState}
// @Failure      400  {object}  response.Response
// @Router       /api/establishments/wizard [post]
func (h *EstablishmentHandler) OpenWizard(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing user identity"))
		return
	}

	var req openEstablishmentWizardRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
			return
		}
	}

	var draftID *uuid.UUID
	if req.DraftID != nil && *req.DraftID != "" {
		parsed, err := uuid.Parse(*req.DraftID)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid draft id"))
			return
		}
		draftID = &parsed
	}

	state, err := h.establishmentService.OpenWizard(c.Request.Context(), userID, draftID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, state))
}

// ListEstablishments returns paginated establishments with optional
// category/search filters. Owners only see their own.
// @Summary      List establishments
// @Tags         establishments
// @Security     BearerAuth
// @Produce      json
// @Param        page      query  int     false  "Page number (default: 1)"
// @Param        limit     query  int     false  "Items per page (default: 20)"
// @Param        category  query  string  false  "Filter by category: SMALL, MEDIUM, LARGE"
// @Param        search    query  string  false  "Search by name, city, barangay, email"
// @Success      200  {object}  response.Response
// @Router       /api/establishments [get]
func (h *EstablishmentHandler) ListEstablishments(c *gin.Context) {
	params := pagination.Parse(c)

	var ownerID *uuid.UUID
	if role, _ := c.Get("userRole"); role == model.RoleOwner {
		userID, ok := middleware.CurrentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing user identity"))
			return
		}
		ownerID = &userID
	}

	ests, total, err := h.establishmentService.GetEstablishments(
		c.Request.Context(), ownerID, c.Query("category"), c.Query("search"), params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, ests, params.Page, params.Limit, total))
}

// GetEstablishment returns one establishment by id
// @Summary      Get establishment
// @Tags         establishments
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Establishment ID"
// @Success      200  {object}  response.Response{data=service.EstablishmentResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/establishments/{id} [get]
func (h *EstablishmentHandler) GetEstablishment(c *gin.Context) {
	est, err := h.establishmentService.GetEstablishment(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	if role, _ := c.Get("userRole"); role == model.RoleOwner {
		userID, ok := middleware.CurrentUserID(c)
		if !ok || est.OwnerID != userID.String() {
			c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied"))
			return
		}
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, est))
}

// DeactivateEstablishment soft deletes an establishment
// @Summary      Deactivate establishment
// @Tags         establishments
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Establishment ID"
// @Success      200  {object}  response.Response
// @Failure      400  {object}  response.Response
// @Router       /api/establishments/{id} [delete]
func (h *EstablishmentHandler) DeactivateEstablishment(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing user identity"))
		return
	}

	// Owners may only deactivate their own establishments
	if role, _ := c.Get("userRole"); role == model.RoleOwner {
		est, err := h.establishmentService.GetEstablishment(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
			return
		}
		if est.OwnerID != userID.String() {
			c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied"))
			return
		}
	}

	if err := h.establishmentService.DeactivateEstablishment(c.Request.Context(), c.Param("id"), userID); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Establishment deactivated successfully"}))
}
