package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	catalogusecases "dicomdesk/internal/application/catalog/usecases"
	"dicomdesk/internal/interfaces/http/middleware"
	"dicomdesk/internal/shared/constants"
	"dicomdesk/internal/shared/errors"
	"dicomdesk/internal/shared/logger"
	"dicomdesk/internal/shared/utils"
)

// PatientHandler exposes the imaging catalog: patients and their studies.
type PatientHandler struct {
	listPatientsUC       *catalogusecases.ListPatientsUseCase
	getPatientUC         *catalogusecases.GetPatientUseCase
	listPatientStudiesUC *catalogusecases.ListPatientStudiesUseCase
	logger               logger.Interface
}

func NewPatientHandler(
	listPatientsUC *catalogusecases.ListPatientsUseCase,
	getPatientUC *catalogusecases.GetPatientUseCase,
	listPatientStudiesUC *catalogusecases.ListPatientStudiesUseCase,
) *PatientHandler {
	return &PatientHandler{
		listPatientsUC:       listPatientsUC,
		getPatientUC:         getPatientUC,
		listPatientStudiesUC: listPatientStudiesUC,
		logger:               logger.NewLogger(),
	}
}

func catalogRequesterFrom(c *gin.Context) catalogusecases.Requester {
	return catalogusecases.Requester{
		KeycloakUserID: middleware.UserID(c),
		Username:       middleware.Username(c),
		IsAdmin:        middleware.HasRole(c, constants.RoleAdmin),
	}
}

func parsePatientID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errors.NewValidationError("invalid patient id")
	}
	return id, nil
}

func (h *PatientHandler) ListPatients(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	query := catalogusecases.ListPatientsQuery{
		Requester: catalogRequesterFrom(c),
		Search:    c.Query("search"),
		Limit:     limit,
		Offset:    offset,
	}

	result, err := h.listPatientsUC.Execute(c.Request.Context(), query)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

func (h *PatientHandler) GetPatient(c *gin.Context) {
	patientID, err := parsePatientID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	result, err := h.getPatientUC.Execute(c.Request.Context(), catalogusecases.GetPatientQuery{
		Requester: catalogRequesterFrom(c),
		PatientID: patientID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", result)
}

func (h *PatientHandler) ListPatientStudies(c *gin.Context) {
	patientID, err := parsePatientID(c)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	results, err := h.listPatientStudiesUC.Execute(c.Request.Context(), catalogusecases.ListPatientStudiesQuery{
		Requester: catalogRequesterFrom(c),
		PatientID: patientID,
	})
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", results)
}
