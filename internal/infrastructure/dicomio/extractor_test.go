package dicomio

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dicomdesk/internal/domain/catalog"
)

func validHeader() headerTags {
	return headerTags{
		patientID:        "PAT-001",
		patientName:      "DOE^JANE",
		studyInstanceUID: "1.2.840.113619.2.55.3.1",
		studyDate:        "20240115",
		modality:         "CT",
	}
}

func TestRecordFromHeader(t *testing.T) {
	record, err := recordFromHeader("/in/a.dcm", validHeader())
	require.NoError(t, err)

	assert.Equal(t, "PAT-001", record.PatientID)
	assert.Equal(t, "Doe, Jane", record.PatientName)
	assert.Equal(t, "1.2.840.113619.2.55.3.1", record.StudyInstanceUID)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), record.StudyDate)
	assert.Equal(t, "CT", record.Modality)
}

func TestRecordFromHeaderAcceptsAnyNonEmptyUID(t *testing.T) {
	uids := []string{
		"1.2.03",
		"1.2.840.0113619.2.55.3.604688119",
		"1." + strings.Repeat("9", 70),
		"not-even-numeric",
	}
	for _, uid := range uids {
		h := validHeader()
		h.studyInstanceUID = uid
		record, err := recordFromHeader("/in/a.dcm", h)
		require.NoError(t, err, uid)
		assert.Equal(t, uid, record.StudyInstanceUID)
	}
}

func TestRecordFromHeaderRequiresIdentifiers(t *testing.T) {
	h := validHeader()
	h.patientID = ""
	_, err := recordFromHeader("/in/a.dcm", h)
	assert.Error(t, err)

	h = validHeader()
	h.studyInstanceUID = ""
	_, err = recordFromHeader("/in/a.dcm", h)
	assert.Error(t, err)
}

func TestRecordFromHeaderRequiresValidStudyDate(t *testing.T) {
	for _, raw := range []string{"", "2024", "20241301"} {
		h := validHeader()
		h.studyDate = raw
		_, err := recordFromHeader("/in/a.dcm", h)
		assert.Error(t, err, raw)
	}
}

func TestRecordFromHeaderDefaultsModality(t *testing.T) {
	h := validHeader()
	h.modality = ""
	record, err := recordFromHeader("/in/a.dcm", h)
	require.NoError(t, err)
	assert.Equal(t, catalog.ModalityOther, record.Modality)
}
