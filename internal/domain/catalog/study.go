package catalog

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ModalityOther is recorded when a file carries no modality tag.
const ModalityOther = "OT"

// Study is one ingested imaging batch's metadata. The study instance UID is
// unique across the catalog and is the sole deduplication key for ingestion.
type Study struct {
	id                 uuid.UUID
	patientID          uuid.UUID
	studyInstanceUID   string
	studyDate          time.Time
	modality           string
	referringPhysician string
	studyDescription   string
	seriesDescription  string
	filePath           string
	createdAt          time.Time
}

// NewStudy creates a study from a normalized imaging record.
func NewStudy(
	patientID uuid.UUID,
	studyInstanceUID string,
	studyDate time.Time,
	modality, referringPhysician, studyDescription, seriesDescription, filePath string,
) (*Study, error) {
	if patientID == uuid.Nil {
		return nil, fmt.Errorf("patient ID is required")
	}
	if studyInstanceUID == "" {
		return nil, fmt.Errorf("study instance UID is required")
	}
	if modality == "" {
		modality = ModalityOther
	}
	return &Study{
		id:                 uuid.New(),
		patientID:          patientID,
		studyInstanceUID:   studyInstanceUID,
		studyDate:          studyDate,
		modality:           modality,
		referringPhysician: referringPhysician,
		studyDescription:   studyDescription,
		seriesDescription:  seriesDescription,
		filePath:           filePath,
		createdAt:          time.Now().UTC(),
	}, nil
}

// ReconstructStudy reconstructs a study from persistence
func ReconstructStudy(
	id, patientID uuid.UUID,
	studyInstanceUID string,
	studyDate time.Time,
	modality, referringPhysician, studyDescription, seriesDescription, filePath string,
	createdAt time.Time,
) (*Study, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("study ID cannot be nil")
	}
	if studyInstanceUID == "" {
		return nil, fmt.Errorf("study instance UID is required")
	}
	return &Study{
		id:                 id,
		patientID:          patientID,
		studyInstanceUID:   studyInstanceUID,
		studyDate:          studyDate,
		modality:           modality,
		referringPhysician: referringPhysician,
		studyDescription:   studyDescription,
		seriesDescription:  seriesDescription,
		filePath:           filePath,
		createdAt:          createdAt,
	}, nil
}

func (s *Study) ID() uuid.UUID              { return s.id }
func (s *Study) PatientID() uuid.UUID       { return s.patientID }
func (s *Study) StudyInstanceUID() string   { return s.studyInstanceUID }
func (s *Study) StudyDate() time.Time       { return s.studyDate }
func (s *Study) Modality() string           { return s.modality }
func (s *Study) ReferringPhysician() string { return s.referringPhysician }
func (s *Study) StudyDescription() string   { return s.studyDescription }
func (s *Study) SeriesDescription() string  { return s.seriesDescription }
func (s *Study) FilePath() string           { return s.filePath }
func (s *Study) CreatedAt() time.Time       { return s.createdAt }
