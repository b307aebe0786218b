package repository

import (
	"context"
	"fmt"

	"dicomdesk/internal/domain/catalog"
	"dicomdesk/internal/shared/errors"
	"dicomdesk/internal/shared/logger"
)

// CatalogIngestorImpl implements catalog.Ingestor on top of the patient and
// study repositories. Safe under concurrent ingesters: both uniqueness
// invariants are enforced by the database, and the two race windows are
// recovered here instead of erroring out.
type CatalogIngestorImpl struct {
	patients catalog.PatientRepository
	studies  catalog.StudyRepository
	logger   logger.Interface
}

// NewCatalogIngestor creates a new catalog ingestor instance.
func NewCatalogIngestor(
	patients catalog.PatientRepository,
	studies catalog.StudyRepository,
	logger logger.Interface,
) catalog.Ingestor {
	return &CatalogIngestorImpl{
		patients: patients,
		studies:  studies,
		logger:   logger,
	}
}

// IngestStudy commits one normalized imaging record into the catalog.
// An already-cataloged study instance UID short-circuits to a duplicate
// result before any write.
func (i *CatalogIngestorImpl) IngestStudy(ctx context.Context, rec catalog.ImagingRecord, sourcePath string) (catalog.IngestResult, error) {
	existing, err := i.studies.GetByStudyInstanceUID(ctx, rec.StudyInstanceUID)
	if err != nil {
		return "", fmt.Errorf("failed to check for existing study: %w", err)
	}
	if existing != nil {
		i.logger.Infow("study already cataloged, skipping",
			"study_instance_uid", rec.StudyInstanceUID,
			"source", sourcePath,
		)
		return catalog.IngestDuplicate, nil
	}

	patient, err := i.resolvePatient(ctx, rec)
	if err != nil {
		return "", err
	}

	study, err := catalog.NewStudy(
		patient.ID(),
		rec.StudyInstanceUID,
		rec.StudyDate,
		rec.Modality,
		rec.ReferringPhysician,
		rec.StudyDescription,
		rec.SeriesDescription,
		sourcePath,
	)
	if err != nil {
		return "", fmt.Errorf("failed to build study: %w", err)
	}

	if err := i.studies.Create(ctx, study); err != nil {
		// Lost the commit race to another ingester holding the same UID.
		if errors.IsConflictError(err) {
			i.logger.Infow("study committed by concurrent ingester, skipping",
				"study_instance_uid", rec.StudyInstanceUID,
				"source", sourcePath,
			)
			return catalog.IngestDuplicate, nil
		}
		return "", fmt.Errorf("failed to create study: %w", err)
	}

	i.logger.Infow("study cataloged",
		"study_id", study.ID(),
		"study_instance_uid", study.StudyInstanceUID(),
		"patient_id", patient.PatientID(),
		"modality", study.Modality(),
	)
	return catalog.IngestCreated, nil
}

// resolvePatient finds or lazily creates the catalog patient. A patient
// insert that loses a concurrent race is recovered by re-fetching the
// winner's row.
func (i *CatalogIngestorImpl) resolvePatient(ctx context.Context, rec catalog.ImagingRecord) (*catalog.Patient, error) {
	patient, err := i.patients.GetByPatientID(ctx, rec.PatientID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up patient: %w", err)
	}
	if patient != nil {
		return patient, nil
	}

	patient, err = catalog.NewPatient(rec.PatientID, rec.PatientName)
	if err != nil {
		return nil, fmt.Errorf("failed to build patient: %w", err)
	}

	if err := i.patients.Create(ctx, patient); err != nil {
		if !errors.IsConflictError(err) {
			return nil, fmt.Errorf("failed to create patient: %w", err)
		}
		patient, err = i.patients.GetByPatientID(ctx, rec.PatientID)
		if err != nil {
			return nil, fmt.Errorf("failed to re-fetch patient after insert race: %w", err)
		}
		if patient == nil {
			return nil, fmt.Errorf("patient %s vanished after insert race", rec.PatientID)
		}
	}

	return patient, nil
}
