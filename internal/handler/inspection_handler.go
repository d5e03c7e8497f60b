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

type InspectionHandler struct {
	inspectionService service.InspectionService
}

func NewInspectionHandler(inspectionService service.InspectionService) *InspectionHandler {
	return &InspectionHandler{inspectionService: inspectionService}
}

func (h *InspectionHandler) RegisterRoutes(router *gin.RouterGroup) {
	insps := router.Group("/api/inspections")
	{
		insps.GET("", middleware.RequireRole(model.RoleInspector, model.RoleAdmin), h.ListInspections)
		insps.GET("/:id", middleware.RequireRole(model.RoleInspector, model.RoleAdmin), h.GetInspection)

		wiz := insps.Group("/wizard", middleware.RequireRole(model.RoleInspector, model.RoleAdmin))
		wiz.POST("", h.OpenWizard)
		registerWizardSessionRoutes(wiz, h.inspectionService)
	}
}

// OpenWizard starts an inspection checklist wizard session
// @Summary      Open inspection wizard
// @Tags         inspections
// @Security     BearerAuth
// @Produce      json
// @Success      201  {object}  response.Response{data=service.SessionState}
// @Failure      401  {object}  response.Response
// @Router       /api/inspections/wizard [post]
func (h *InspectionHandler) OpenWizard(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing user identity"))
		return
	}

	state, err := h.inspectionService.OpenWizard(userID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, state))
}

// ListInspections returns paginated filed inspections
// @Summary      List inspections
// @Tags         inspections
// @Security     BearerAuth
// @Produce      json
// @Param        page              query  int     false  "Page number (default: 1)"
// @Param        limit             query  int     false  "Items per page (default: 20)"
// @Param        establishment_id  query  string  false  "Filter by establishment"
// @Param        inspector_id      query  string  false  "Filter by inspector"
// @Success      200  {object}  response.Response
// @Router       /api/inspections [get]
func (h *InspectionHandler) ListInspections(c *gin.Context) {
	params := pagination.Parse(c)

	var establishmentID, inspectorID *uuid.UUID
	if est := c.Query("establishment_id"); est != "" {
		parsed, err := uuid.Parse(est)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid establishment id"))
			return
		}
		establishmentID = &parsed
	}
	if ins := c.Query("inspector_id"); ins != "" {
		parsed, err := uuid.Parse(ins)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid inspector id"))
			return
		}
		inspectorID = &parsed
	}

	insps, total, err := h.inspectionService.ListInspections(c.Request.Context(), establishmentID, inspectorID, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, insps, params.Page, params.Limit, total))
}

// GetInspection returns one filed inspection by id
// @Summary      Get inspection
// @Tags         inspections
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Inspection ID"
// @Success      200  {object}  response.Response{data=service.InspectionResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/inspections/{id} [get]
func (h *InspectionHandler) GetInspection(c *gin.Context) {
	insp, err := h.inspectionService.GetInspection(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, insp))
}
