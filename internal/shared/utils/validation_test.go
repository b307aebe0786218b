package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateStudyInstanceUID(t *testing.T) {
	assert.NoError(t, ValidateStudyInstanceUID("1.2.840.113619.2.55.3.1"))
	assert.NoError(t, ValidateStudyInstanceUID("0"))

	assert.Error(t, ValidateStudyInstanceUID(""))
	assert.Error(t, ValidateStudyInstanceUID("1.2.abc"))
	assert.Error(t, ValidateStudyInstanceUID("1..2"))
	assert.Error(t, ValidateStudyInstanceUID("1.02.3"))
	assert.Error(t, ValidateStudyInstanceUID("1."+strings.Repeat("9", 64)))
}

func TestValidateStructUsesJSONNames(t *testing.T) {
	type request struct {
		StudyUID string `json:"study_uid" validate:"required,dicom_uid"`
		Limit    int    `json:"limit" validate:"gte=0,lte=200"`
	}

	assert.NoError(t, ValidateStruct(&request{StudyUID: "1.2.3", Limit: 20}))

	err := ValidateStruct(&request{StudyUID: "not-a-uid", Limit: 500})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "study_uid")
}
