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

type ReviewHandler struct {
	reviewService service.ReviewService
}

func NewReviewHandler(reviewService service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (h *ReviewHandler) RegisterRoutes(router *gin.RouterGroup) {
	reviews := router.Group("/api/reviews", middleware.RequireRole(model.RoleInspector, model.RoleAdmin))
	{
		reviews.POST("/:id/start", h.StartReview)
		reviews.POST("/:id/approve", h.Approve)
		reviews.POST("/:id/reject", h.Reject)
	}

	certs := router.Group("/api/certificates")
	{
		certs.GET("", middleware.RequireRole(model.RoleOwner, model.RoleInspector, model.RoleAdmin), h.ListCertificates)
		certs.GET("/by-application/:id", middleware.RequireRole(model.RoleOwner, model.RoleInspector, model.RoleAdmin), h.GetCertificateByApplication)
	}
}

type rejectApplicationRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// StartReview moves a pending application into UNDER_REVIEW
// @Summary      Start review
// @Tags         reviews
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Application ID"
// @Success      200  {object}  response.Response{data=service.ApplicationResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/reviews/{id}/start [post]
func (h *ReviewHandler) StartReview(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing user identity"))
		return
	}

	app, err := h.reviewService.StartReview(c.Request.Context(), c.Param("id"), userID.String())
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, app))
}

// Approve approves an application under review and issues the certificate
// @Summary      Approve application
// @Tags         reviews
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Application ID"
// @Success      200  {object}  response.Response{data=service.CertificateResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/reviews/{id}/approve [post]
func (h *ReviewHandler) Approve(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing user identity"))
		return
	}

	cert, err := h.reviewService.Approve(c.Request.Context(), c.Param("id"), userID.String())
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, cert))
}

// Reject rejects an application with a mandatory reason
// @Summary      Reject application
// @Tags         reviews
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path  string                    true  "Application ID"
// @Param        payload  body  rejectApplicationRequest  true  "Rejection reason"
// @Success      200  {object}  response.Response{data=service.ApplicationResponse}
// @Failure      400  {object}  response.Response
// @Router       /api/reviews/{id}/reject [post]
func (h *ReviewHandler) Reject(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing user identity"))
		return
	}

	var req rejectApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	app, err := h.reviewService.Reject(c.Request.Context(), c.Param("id"), userID.String(), req.Reason)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, app))
}

// ListCertificates returns paginated issued certificates
// @Summary      List certificates
// @Tags         certificates
// @Security     BearerAuth
// @Produce      json
// @Param        page              query  int     false  "Page number (default: 1)"
// @Param        limit             query  int     false  "Items per page (default: 20)"
// @Param        establishment_id  query  string  false  "Filter by establishment"
// @Success      200  {object}  response.Response
// @Router       /api/certificates [get]
func (h *ReviewHandler) ListCertificates(c *gin.Context) {
	params := pagination.Parse(c)

	var establishmentID *uuid.UUID
	if est := c.Query("establishment_id"); est != "" {
		parsed, err := uuid.Parse(est)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid establishment id"))
			return
		}
		establishmentID = &parsed
	}

	certs, total, err := h.reviewService.ListCertificates(c.Request.Context(), establishmentID, params.Page, params.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.SuccessWithPagination(http.StatusOK, certs, params.Page, params.Limit, total))
}

// GetCertificateByApplication returns the certificate issued for an application
// @Summary      Get certificate by application
// @Tags         certificates
// @Security     BearerAuth
// @Produce      json
// @Param        id  path  string  true  "Application ID"
// @Success      200  {object}  response.Response{data=service.CertificateResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/certificates/by-application/{id} [get]
func (h *ReviewHandler) GetCertificateByApplication(c *gin.Context) {
	cert, err := h.reviewService.GetCertificateByApplication(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, cert))
}
