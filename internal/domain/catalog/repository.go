package catalog

import (
	"context"

	"github.com/google/uuid"
)

// PatientRepository persists catalog patients. The external patient
// identifier is unique; concurrent creations of the same patient surface as
// duplicate-key conflicts callers recover from.
type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByPatientID(ctx context.Context, patientID string) (*Patient, error)
	List(ctx context.Context) ([]*Patient, error)
	ListAssignedToDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Patient, error)
}

// StudyRepository persists catalog studies under the study-instance-UID
// uniqueness invariant.
type StudyRepository interface {
	Create(ctx context.Context, s *Study) error
	GetByID(ctx context.Context, id uuid.UUID) (*Study, error)
	GetByStudyInstanceUID(ctx context.Context, uid string) (*Study, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Study, error)
}

// IngestResult reports how an ingestion attempt concluded.
type IngestResult string

const (
	// IngestCreated means a new study row was committed.
	IngestCreated IngestResult = "created"
	// IngestDuplicate means the study already existed; nothing was written.
	IngestDuplicate IngestResult = "duplicate"
)

// Ingestor commits a normalized imaging record into the catalog exactly once.
// Implementations must be safe under concurrent ingesters without external
// locking: patient-insert races are recovered by re-fetch, and a study
// uniqueness violation at commit reports IngestDuplicate instead of an error.
type Ingestor interface {
	IngestStudy(ctx context.Context, rec ImagingRecord, sourcePath string) (IngestResult, error)
}

// Extractor parses an imaging file into a normalized record without loading
// bulk payload data. A file that cannot be parsed, or that is missing a
// required field, yields an error; the caller routes the file aside and
// continues.
type Extractor interface {
	ExtractTags(path string) (*ImagingRecord, error)
}
