package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	doctorusecases "dicomdesk/internal/application/doctor/usecases"
	"dicomdesk/internal/interfaces/http/middleware"
	"dicomdesk/internal/shared/errors"
	"dicomdesk/internal/shared/logger"
	"dicomdesk/internal/shared/utils"
)

// DoctorHandler exposes the doctor directory and patient assignment
// management. All routes are admin-only.
type DoctorHandler struct {
	listDoctorsUC      *doctorusecases.ListDoctorsUseCase
	createAssignmentUC *doctorusecases.CreateAssignmentUseCase
	deleteAssignmentUC *doctorusecases.DeleteAssignmentUseCase
	listAssignmentsUC  *doctorusecases.ListAssignmentsUseCase
	logger             logger.Interface
}

func NewDoctorHandler(
	listDoctorsUC *doctorusecases.ListDoctorsUseCase,
	createAssignmentUC *doctorusecases.CreateAssignmentUseCase,
	deleteAssignmentUC *doctorusecases.DeleteAssignmentUseCase,
	listAssignmentsUC *doctorusecases.ListAssignmentsUseCase,
) *DoctorHandler {
	return &DoctorHandler{
		listDoctorsUC:      listDoctorsUC,
		createAssignmentUC: createAssignmentUC,
		deleteAssignmentUC: deleteAssignmentUC,
		listAssignmentsUC:  listAssignmentsUC,
		logger:             logger.NewLogger(),
	}
}

type CreateAssignmentRequest struct {
	PatientID uuid.UUID `json:"patient_id" binding:"required"`
	DoctorID  uuid.UUID `json:"doctor_id" binding:"required"`
}

func (h *DoctorHandler) ListDoctors(c *gin.Context) {
	results, err := h.listDoctorsUC.Execute(c.Request.Context())
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", results)
}

func (h *DoctorHandler) CreateAssignment(c *gin.Context) {
	var req CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warnw("invalid request body for create assignment", "error", err)
		utils.ErrorResponseWithError(c, errors.NewValidationError("patient_id and doctor_id are required"))
		return
	}

	cmd := doctorusecases.CreateAssignmentCommand{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
	}
	if assignedBy, err := uuid.Parse(middleware.UserID(c)); err == nil {
		cmd.AssignedBy = &assignedBy
	}

	result, err := h.createAssignmentUC.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.CreatedResponse(c, result, "Assignment created successfully")
}

func (h *DoctorHandler) DeleteAssignment(c *gin.Context) {
	assignmentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.ErrorResponseWithError(c, errors.NewValidationError("invalid assignment id"))
		return
	}

	if err := h.deleteAssignmentUC.Execute(c.Request.Context(), assignmentID); err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.NoContentResponse(c)
}

func (h *DoctorHandler) ListAssignments(c *gin.Context) {
	query := doctorusecases.ListAssignmentsQuery{}
	if raw := c.Query("patient_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.ErrorResponseWithError(c, errors.NewValidationError("invalid patient_id filter"))
			return
		}
		query.PatientID = &id
	}
	if raw := c.Query("doctor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			utils.ErrorResponseWithError(c, errors.NewValidationError("invalid doctor_id filter"))
			return
		}
		query.DoctorID = &id
	}

	results, err := h.listAssignmentsUC.Execute(c.Request.Context(), query)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", results)
}
