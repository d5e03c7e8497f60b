package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"firecert/internal/middleware"
	"firecert/internal/model"
	"firecert/internal/repository"
	"firecert/internal/service"
	"firecert/pkg/pagination"
	"firecert/pkg/response"
)

type ApplicationHandler struct {
	applicationService service.ApplicationService
}

func NewApplicationHandler(applicationService service.ApplicationService) *ApplicationHandler {
	return &ApplicationHandler{applicationService: applicationService}
}

func (h *ApplicationHandler) RegisterRoutes(router *gin.RouterGroup) {
	apps := router.Group("/api/applications")
	{
		apps.GET("", middleware.RequireRole(model.RoleOwner, model.RoleInspector, model.RoleAdmin), h.ListApplications)
		apps.GET("/:id", middleware.RequireRole(model.RoleOwner, model.RoleInspector, model.RoleAdmin), h.GetApplication)

		wiz := apps.Group("/wizard", middleware.RequireRole(model.RoleOwner, model.RoleAdmin))
		wiz.POST("", h.OpenWizard)
		registerWizardSessionRoutes(wiz, h.applicationService)
	}
}

type openApplicationWizardRequest struct {
	DraftID *string `json:"draft_id"`
}

// OpenWizard starts a certification wizard session, optionally loading a
// pending application as an editable draft
// @Summary      Open certification wizard
// @Tags         applications
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body  openApplicationWizardRequest  false  "Optional draft to edit"
// @Success      201  {object}  response.Response{data=service.SessionState}
// @Failure      400  {object}  response.Response
// @Router       /api/applications/wizard [post]
func (h *ApplicationHandler) OpenWizard(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing user identity"))
		return
	}

	var req openApplicationWizardRequest
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

	state, err := h.applicationService.OpenWizard(c.Request.Context(), userID, draftID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, state))
}

// ListApplications returns paginated applications. Owners only see their own;
// inspectors and admins see everything.
// @Summary      List applications
// @Tags         applications
// @Security     BearerAuth
// @Produce      json
// @Param        page              query  int     false  "Page number (default: 1)"
// @Param        limit             query  int     false  "Items per page (default: 20)"
// @Param        status            query  string  false  "Filter by status: PENDING, UNDER_REVIEW, APPROVED, REJECTED"
// @Param        category          query  string  false  "Filter by category: BUSINESS, OCCUPANCY"
// @Param        establishment_id  query  string  false  "Filter by establishment"
// @Success      200  {object}  response.Response
// @Router       /api/applications [get]
func (h *ApplicationHandler) ListApplications(c *gin.Context) {
	params := pagination.Parse(c)

	filter := repository.ApplicationFilter{
		Status:   c.Query("status"),
		Category: c.Query("category"),
		Page:     params.Page,
		Limit:    params.Limit,
	}
	if est := c.Query("establishment_id"); est != "" {
		parsed, err := uuid.Parse(est)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid establishment id"))
			return
		}
		filter.EstablishmentID = &parsed
	}

	// Owners are scoped to their own applications
	if role, _ := c.Get("userRole"); role == model.RoleOwner {
		userID, ok := middleware.CurrentUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing user identity"))
			return
		}
		filter.OwnerID = &userID
	}

	apps, total, err := h.applicationService.ListApplications(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, apps, params.Page, params.Limit, total))
}

// GetApplication returns one application by id
// @Summary      Get application
// @Tags         applications
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Application ID"
// @Success      200  {object}  response.Response{data=service.ApplicationResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/applications/{id} [get]
func (h *ApplicationHandler) GetApplication(c *gin.Context) {
	app, err := h.applicationService.GetApplication(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	// Owners may only read their own applications
	if role, _ := c.Get("userRole"); role == model.RoleOwner {
		userID, ok := middleware.CurrentUserID(c)
		if !ok || app.OwnerID != userID.String() {
			c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied"))
			return
		}
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, app))
}
