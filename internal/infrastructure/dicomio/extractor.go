// Package dicomio parses DICOM files into normalized catalog records.
package dicomio

import (
	"fmt"
	"strings"

	"github.com/suyashkumar/dicom"
	"github.com/suyashkumar/dicom/pkg/tag"

	"dicomdesk/internal/domain/catalog"
	"dicomdesk/internal/shared/logger"
)

// TagExtractor implements catalog.Extractor. Pixel data is skipped; only
// the header tags the catalog needs are read.
type TagExtractor struct {
	logger logger.Interface
}

// NewTagExtractor creates a new extractor.
func NewTagExtractor(log logger.Interface) *TagExtractor {
	return &TagExtractor{
		logger: log.Named("dicom.extractor"),
	}
}

var _ catalog.Extractor = (*TagExtractor)(nil)

// headerTags holds the raw string values read from one file's header.
type headerTags struct {
	patientID          string
	patientName        string
	studyInstanceUID   string
	studyDate          string
	modality           string
	referringPhysician string
	studyDescription   string
	seriesDescription  string
}

// ExtractTags reads one file's header and validates the required tags.
// PatientID, StudyInstanceUID and a well-formed StudyDate are required;
// everything else is optional.
func (e *TagExtractor) ExtractTags(path string) (*catalog.ImagingRecord, error) {
	dataset, err := dicom.ParseFile(path, nil, dicom.SkipPixelData())
	if err != nil {
		e.logger.Warnw("failed to read imaging file", "path", path, "error", err)
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	return recordFromHeader(path, headerTags{
		patientID:          stringTag(&dataset, tag.PatientID),
		patientName:        stringTag(&dataset, tag.PatientName),
		studyInstanceUID:   stringTag(&dataset, tag.StudyInstanceUID),
		studyDate:          stringTag(&dataset, tag.StudyDate),
		modality:           stringTag(&dataset, tag.Modality),
		referringPhysician: stringTag(&dataset, tag.ReferringPhysicianName),
		studyDescription:   stringTag(&dataset, tag.StudyDescription),
		seriesDescription:  stringTag(&dataset, tag.SeriesDescription),
	})
}

// recordFromHeader normalizes the raw header values into a catalog record.
// The identifier tags are required as-is; no format constraints beyond
// non-emptiness are applied to them.
func recordFromHeader(path string, h headerTags) (*catalog.ImagingRecord, error) {
	if h.patientID == "" || h.studyInstanceUID == "" {
		return nil, fmt.Errorf("%s is missing required patient or study identifier tags", path)
	}

	studyDate, err := catalog.ParseStudyDate(h.studyDate)
	if err != nil {
		return nil, fmt.Errorf("%s has an invalid study date: %w", path, err)
	}

	modality := h.modality
	if modality == "" {
		modality = catalog.ModalityOther
	}

	return &catalog.ImagingRecord{
		PatientID:          h.patientID,
		PatientName:        catalog.FormatPersonName(h.patientName),
		StudyInstanceUID:   h.studyInstanceUID,
		StudyDate:          studyDate,
		Modality:           modality,
		ReferringPhysician: h.referringPhysician,
		StudyDescription:   h.studyDescription,
		SeriesDescription:  h.seriesDescription,
	}, nil
}

// stringTag returns the first string value of a tag, trimmed, or "" when the
// tag is absent or not a string.
func stringTag(dataset *dicom.Dataset, t tag.Tag) string {
	element, err := dataset.FindElementByTag(t)
	if err != nil || element == nil {
		return ""
	}
	values, ok := element.Value.GetValue().([]string)
	if !ok || len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}
