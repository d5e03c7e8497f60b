package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"firecert/internal/middleware"
	"firecert/internal/service"
	"firecert/internal/wizard"
	"firecert/pkg/response"
)

// wizardDriver is the slice of a wizard service the shared session endpoints
// need. All three wizard services satisfy it; only the open endpoint differs
// per form and stays in the owning handler.
type wizardDriver interface {
	SetFields(sessionID, userID uuid.UUID, fields map[string]any) (service.SessionState, error)
	StageDocument(sessionID, userID uuid.UUID, slug string, f *wizard.StagedFile) (service.SessionState, error)
	RemoveDocument(sessionID, userID uuid.UUID, slug string) (service.SessionState, error)
	Next(sessionID, userID uuid.UUID) (service.SessionState, error)
	Back(sessionID, userID uuid.UUID) (service.SessionState, error)
	JumpToStep(sessionID, userID uuid.UUID, step int) (service.SessionState, error)
	ResetWizard(sessionID, userID uuid.UUID) (service.SessionState, error)
	State(sessionID, userID uuid.UUID) (service.SessionState, error)
	CloseWizard(sessionID, userID uuid.UUID) error
	Submit(ctx context.Context, sessionID, userID uuid.UUID) (string, error)
}

// registerWizardSessionRoutes binds the session-scoped wizard endpoints onto
// a group, e.g. /api/applications/wizard. Open endpoints are registered by
// the owning handler because their signatures differ.
func registerWizardSessionRoutes(group *gin.RouterGroup, d wizardDriver) {
	group.GET("/:sid", wizardStateHandler(d))
	group.PATCH("/:sid/fields", wizardFieldsHandler(d))
	group.POST("/:sid/documents/:slug", wizardUploadHandler(d))
	group.DELETE("/:sid/documents/:slug", wizardRemoveDocHandler(d))
	group.POST("/:sid/next", wizardStepHandler(d, stepNext))
	group.POST("/:sid/back", wizardStepHandler(d, stepBack))
	group.POST("/:sid/goto/:step", wizardJumpHandler(d))
	group.POST("/:sid/reset", wizardStepHandler(d, stepReset))
	group.POST("/:sid/submit", wizardSubmitHandler(d))
	group.DELETE("/:sid", wizardCloseHandler(d))
}

type stepOp int

const (
	stepNext stepOp = iota
	stepBack
	stepReset
)

func wizardIdentity(c *gin.Context) (sessionID, userID uuid.UUID, ok bool) {
	userID, ok = middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Missing user identity"))
		return uuid.Nil, uuid.Nil, false
	}
	sessionID, err := uuid.Parse(c.Param("sid"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid session id"))
		return uuid.Nil, uuid.Nil, false
	}
	return sessionID, userID, true
}

func wizardStateHandler(d wizardDriver) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, uid, ok := wizardIdentity(c)
		if !ok {
			return
		}
		state, err := d.State(sid, uid)
		if err != nil {
			respondWizardError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, state))
	}
}

func wizardFieldsHandler(d wizardDriver) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, uid, ok := wizardIdentity(c)
		if !ok {
			return
		}
		var fields map[string]any
		if err := c.ShouldBindJSON(&fields); err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
			return
		}
		state, err := d.SetFields(sid, uid, fields)
		if err != nil {
			respondWizardError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, state))
	}
}

func wizardUploadHandler(d wizardDriver) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, uid, ok := wizardIdentity(c)
		if !ok {
			return
		}
		slug := c.Param("slug")

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Missing file in form data"))
			return
		}
		src, err := fileHeader.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Unreadable file"))
			return
		}
		defer src.Close()
		content, err := io.ReadAll(src)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Unreadable file"))
			return
		}

		staged := &wizard.StagedFile{
			Name:     fileHeader.Filename,
			Size:     fileHeader.Size,
			MIMEType: fileHeader.Header.Get("Content-Type"),
			Content:  content,
		}
		state, err := d.StageDocument(sid, uid, slug, staged)
		if err != nil {
			respondWizardError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, state))
	}
}

func wizardRemoveDocHandler(d wizardDriver) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, uid, ok := wizardIdentity(c)
		if !ok {
			return
		}
		state, err := d.RemoveDocument(sid, uid, c.Param("slug"))
		if err != nil {
			respondWizardError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, state))
	}
}

func wizardStepHandler(d wizardDriver, op stepOp) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, uid, ok := wizardIdentity(c)
		if !ok {
			return
		}
		var (
			state service.SessionState
			err   error
		)
		switch op {
		case stepNext:
			state, err = d.Next(sid, uid)
		case stepBack:
			state, err = d.Back(sid, uid)
		case stepReset:
			state, err = d.ResetWizard(sid, uid)
		}
		if err != nil {
			respondWizardError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, state))
	}
}

func wizardJumpHandler(d wizardDriver) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, uid, ok := wizardIdentity(c)
		if !ok {
			return
		}
		step, err := strconv.Atoi(c.Param("step"))
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid step number"))
			return
		}
		state, err := d.JumpToStep(sid, uid, step)
		if err != nil {
			respondWizardError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, state))
	}
}

func wizardSubmitHandler(d wizardDriver) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, uid, ok := wizardIdentity(c)
		if !ok {
			return
		}
		id, err := d.Submit(c.Request.Context(), sid, uid)
		if err != nil {
			respondWizardError(c, err)
			return
		}
		c.JSON(http.StatusCreated, response.Success(http.StatusCreated, gin.H{"id": id}))
	}
}

func wizardCloseHandler(d wizardDriver) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, uid, ok := wizardIdentity(c)
		if !ok {
			return
		}
		if err := d.CloseWizard(sid, uid); err != nil {
			respondWizardError(c, err)
			return
		}
		c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Session closed"}))
	}
}

// respondWizardError maps wizard engine errors onto HTTP statuses.
func respondWizardError(c *gin.Context, err error) {
	var vErr *wizard.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusUnprocessableEntity, response.Response{
			Status:     "error",
			StatusCode: http.StatusUnprocessableEntity,
			Error:      "validation failed",
			Data:       gin.H{"fields": vErr.Fields},
		})
		return
	}

	var upErr *wizard.UploadError
	if errors.As(err, &upErr) {
		c.JSON(http.StatusBadGateway, response.Error(http.StatusBadGateway, upErr.Error()))
		return
	}

	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, response.Error(http.StatusNotFound, err.Error()))
	case errors.Is(err, wizard.ErrDuplicatePending):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, wizard.ErrDuplicatePending.Error()))
	case errors.Is(err, wizard.ErrSubmissionInFlight):
		c.JSON(http.StatusConflict, response.Error(http.StatusConflict, err.Error()))
	case errors.Is(err, wizard.ErrSessionClosed):
		c.JSON(http.StatusGone, response.Error(http.StatusGone, err.Error()))
	default:
		var pErr *wizard.PersistenceError
		if errors.As(err, &pErr) {
			c.JSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, err.Error()))
			return
		}
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, err.Error()))
	}
}
