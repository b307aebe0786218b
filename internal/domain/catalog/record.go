package catalog

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ImagingRecord is the normalized result of tag extraction from one imaging
// file. Required fields are validated by the extractor; optional fields are
// empty when the source tag was blank.
type ImagingRecord struct {
	PatientID          string
	PatientName        string
	StudyInstanceUID   string
	StudyDate          time.Time
	Modality           string
	ReferringPhysician string
	StudyDescription   string
	SeriesDescription  string
}

var titleCaser = cases.Title(language.Und)

// FormatPersonName converts the wire form "LAST^FIRST[^...]" to
// "Last, First". Single-component names are title-cased as-is and empty
// input yields empty output. Components beyond the second are dropped.
func FormatPersonName(raw string) string {
	if raw == "" {
		return ""
	}
	parts := strings.Split(raw, "^")
	if len(parts) >= 2 {
		return fmt.Sprintf("%s, %s",
			titleCaser.String(strings.TrimSpace(parts[0])),
			titleCaser.String(strings.TrimSpace(parts[1])),
		)
	}
	return titleCaser.String(strings.TrimSpace(parts[0]))
}

// ParseStudyDate parses the 8-digit YYYYMMDD wire form into a UTC date.
// Any other form, or a calendrically invalid date, is an error.
func ParseStudyDate(raw string) (time.Time, error) {
	if len(raw) != 8 {
		return time.Time{}, fmt.Errorf("study date %q is not in YYYYMMDD form", raw)
	}
	t, err := time.ParseInLocation("20060102", raw, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid study date %q: %w", raw, err)
	}
	return t, nil
}
