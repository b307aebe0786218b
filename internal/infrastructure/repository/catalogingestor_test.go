package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dicomdesk/internal/domain/catalog"
	"dicomdesk/internal/shared/logger"
)

func testImagingRecord(patientID, studyUID string) catalog.ImagingRecord {
	return catalog.ImagingRecord{
		PatientID:        patientID,
		PatientName:      "Doe, Jane",
		StudyInstanceUID: studyUID,
		StudyDate:        time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		Modality:         "CT",
		StudyDescription: "Mandible survey",
	}
}

func TestCatalogIngestor_CreatesPatientAndStudy(t *testing.T) {
	db := setupTestDB(t)
	log := logger.NewLogger()
	patients := NewPatientRepository(db, log)
	studies := NewStudyRepository(db, log)
	ingestor := NewCatalogIngestor(patients, studies, log)
	ctx := context.Background()

	result, err := ingestor.IngestStudy(ctx, testImagingRecord("PAT-001", "1.2.3.4"), "/in/scan.dcm")
	require.NoError(t, err)
	assert.Equal(t, catalog.IngestCreated, result)

	p, err := patients.GetByPatientID(ctx, "PAT-001")
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Doe, Jane", p.Name())

	s, err := studies.GetByStudyInstanceUID(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, p.ID(), s.PatientID())
	assert.Equal(t, "CT", s.Modality())
	assert.Equal(t, "/in/scan.dcm", s.FilePath())
}

func TestCatalogIngestor_SameStudyTwiceIsDuplicate(t *testing.T) {
	db := setupTestDB(t)
	log := logger.NewLogger()
	patients := NewPatientRepository(db, log)
	studies := NewStudyRepository(db, log)
	ingestor := NewCatalogIngestor(patients, studies, log)
	ctx := context.Background()

	rec := testImagingRecord("PAT-001", "1.2.3.4")

	result, err := ingestor.IngestStudy(ctx, rec, "/in/scan.dcm")
	require.NoError(t, err)
	require.Equal(t, catalog.IngestCreated, result)

	result, err = ingestor.IngestStudy(ctx, rec, "/in/scan_copy.dcm")
	require.NoError(t, err)
	assert.Equal(t, catalog.IngestDuplicate, result)

	s, err := studies.GetByStudyInstanceUID(ctx, "1.2.3.4")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, "/in/scan.dcm", s.FilePath(), "first ingestion wins")
}

func TestCatalogIngestor_ReusesExistingPatient(t *testing.T) {
	db := setupTestDB(t)
	log := logger.NewLogger()
	patients := NewPatientRepository(db, log)
	studies := NewStudyRepository(db, log)
	ingestor := NewCatalogIngestor(patients, studies, log)
	ctx := context.Background()

	_, err := ingestor.IngestStudy(ctx, testImagingRecord("PAT-001", "1.2.3.4"), "/in/a.dcm")
	require.NoError(t, err)
	_, err = ingestor.IngestStudy(ctx, testImagingRecord("PAT-001", "1.2.3.5"), "/in/b.dcm")
	require.NoError(t, err)

	listed, err := patients.List(ctx)
	require.NoError(t, err)
	assert.Len(t, listed, 1, "one subject yields one patient row")

	p, err := patients.GetByPatientID(ctx, "PAT-001")
	require.NoError(t, err)
	require.NotNil(t, p)

	patientStudies, err := studies.ListByPatient(ctx, p.ID())
	require.NoError(t, err)
	assert.Len(t, patientStudies, 2)
}
