package usecases

import (
	"time"

	"github.com/google/uuid"

	"dicomdesk/internal/domain/catalog"
)

// Requester identifies the authenticated caller for access scoping.
type Requester struct {
	KeycloakUserID string
	Username       string
	IsAdmin        bool
}

// PatientResult is the API shape of a catalog patient.
type PatientResult struct {
	ID         uuid.UUID `json:"id"`
	PatientID  string    `json:"patient_id"`
	Name       string    `json:"name"`
	StudyCount int       `json:"study_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// PatientDetailResult extends PatientResult with the patient's studies.
type PatientDetailResult struct {
	PatientResult
	Studies []StudyResult `json:"studies"`
}

// StudyResult is the API shape of a catalog study.
type StudyResult struct {
	ID                 uuid.UUID `json:"id"`
	PatientID          uuid.UUID `json:"patient_id"`
	StudyInstanceUID   string    `json:"study_instance_uid"`
	StudyDate          string    `json:"study_date"`
	Modality           string    `json:"modality"`
	ReferringPhysician string    `json:"referring_physician,omitempty"`
	StudyDescription   string    `json:"study_description,omitempty"`
	SeriesDescription  string    `json:"series_description,omitempty"`
	FilePath           string    `json:"file_path"`
	CreatedAt          time.Time `json:"created_at"`
}

// PatientListResult is one page of patients.
type PatientListResult struct {
	Total  int             `json:"total"`
	Items  []PatientResult `json:"items"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

func newPatientResult(p *catalog.Patient, studyCount int) PatientResult {
	return PatientResult{
		ID:         p.ID(),
		PatientID:  p.PatientID(),
		Name:       p.Name(),
		StudyCount: studyCount,
		CreatedAt:  p.CreatedAt(),
	}
}

func newStudyResult(s *catalog.Study) StudyResult {
	return StudyResult{
		ID:                 s.ID(),
		PatientID:          s.PatientID(),
		StudyInstanceUID:   s.StudyInstanceUID(),
		StudyDate:          s.StudyDate().Format("2006-01-02"),
		Modality:           s.Modality(),
		ReferringPhysician: s.ReferringPhysician(),
		StudyDescription:   s.StudyDescription(),
		SeriesDescription:  s.SeriesDescription(),
		FilePath:           s.FilePath(),
		CreatedAt:          s.CreatedAt(),
	}
}

func newStudyResults(studies []*catalog.Study) []StudyResult {
	results := make([]StudyResult, 0, len(studies))
	for _, s := range studies {
		results = append(results, newStudyResult(s))
	}
	return results
}
