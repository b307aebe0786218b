// Package handlers implements the HTTP request handlers for the API surface.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"dicomdesk/internal/application/session/usecases"
	"dicomdesk/internal/interfaces/http/middleware"
	"dicomdesk/internal/shared/constants"
	"dicomdesk/internal/shared/errors"
	"dicomdesk/internal/shared/logger"
	"dicomdesk/internal/shared/utils"
)

// SessionHandler exposes the remote session lifecycle.
type SessionHandler struct {
	createSessionUC    *usecases.CreateSessionUseCase
	terminateSessionUC *usecases.TerminateSessionUseCase
	extendSessionUC    *usecases.ExtendSessionUseCase
	getSessionUC       *usecases.GetSessionUseCase
	listSessionsUC     *usecases.ListSessionsUseCase
	getAccessURLUC     *usecases.GetSessionAccessURLUseCase
	logger             logger.Interface
}

func NewSessionHandler(
	createSessionUC *usecases.CreateSessionUseCase,
	terminateSessionUC *usecases.TerminateSessionUseCase,
	extendSessionUC *usecases.ExtendSessionUseCase,
	getSessionUC *usecases.GetSessionUseCase,
	listSessionsUC *usecases.ListSessionsUseCase,
	getAccessURLUC *usecases.GetSessionAccessURLUseCase,
) *SessionHandler {
	return &SessionHandler{
		createSessionUC:    createSessionUC,
		terminateSessionUC: terminateSessionUC,
		extendSessionUC:    extendSessionUC,
		getSessionUC:       getSessionUC,
		listSessionsUC:     listSessionsUC,
		getAccessURLUC:     getAccessURLUC,
		logger:             logger.NewLogger(),
	}
}

type CreateSessionRequest struct {
	PatientID uuid.UUID `json:"patient_id" binding:"required"`
}

func requesterFrom(c *gin.Context) usecases.Requester {
	return usecases.Requester{
		KeycloakUserID: middleware.UserID(c),
		Username:       middleware.Username(c),
		IsAdmin:        middleware.HasRole(c, constants.RoleAdmin),
	}
}

func parseSessionID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errors.NewValidationError("invalid session id")
	}
	return id, nil
}

func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create session", "error", err)
		utils.ErrorResponseWithError(c, errors.NewValidationError("patient_id is required"))
		return
	}

	cmd := usecases.CreateSessionCommand{
		Requester: requesterFrom(c),
		PatientID: req.PatientID,
	}

	result, err := h.createSessionUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "Session created successfully")
}

func (h *SessionHandler) ListSessions(c *gin.Context) {
	results, err := h.listSessionsUC.Execute(c.Request.Context(), usecases.ListSessionsQuery{
		Requester: requesterFrom(c),
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", results)
}

func (h *SessionHandler) GetSession(c *gin.Context) {
	sessionID, err := parseSessionID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.getSessionUC.Execute(c.Request.Context(), usecases.GetSessionQuery{
		Requester: requesterFrom(c),
		SessionID: sessionID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

func (h *SessionHandler) TerminateSession(c *gin.Context) {
	sessionID, err := parseSessionID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	err = h.terminateSessionUC.Execute(c.Request.Context(), usecases.TerminateSessionCommand{
		Requester: requesterFrom(c),
		SessionID: sessionID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Session terminated successfully", nil)
}

func (h *SessionHandler) ExtendSession(c *gin.Context) {
	sessionID, err := parseSessionID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.extendSessionUC.Execute(c.Request.Context(), usecases.ExtendSessionCommand{
		Requester: requesterFrom(c),
		SessionID: sessionID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Session extended successfully", result)
}

func (h *SessionHandler) GetAccessURL(c *gin.Context) {
	sessionID, err := parseSessionID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.getAccessURLUC.Execute(c.Request.Context(), usecases.GetSessionAccessURLQuery{
		Requester: requesterFrom(c),
		SessionID: sessionID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}
