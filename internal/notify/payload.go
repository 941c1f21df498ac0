package notify

import (
	"time"

	"github.com/dgallion1/cvparse/internal/extract"
)

// timestampLayout is ISO 8601 with millisecond precision, always UTC.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Payload is the JSON document posted to the downstream webhook.
type Payload struct {
	CVData   CVData          `json:"cv_data"`
	Metadata PayloadMetadata `json:"metadata"`
}

type CVData struct {
	PersonalInfo   PersonalInfo `json:"personal_info"`
	Education      []string     `json:"education"`
	Qualifications []string     `json:"qualifications"`
	Projects       []string     `json:"projects"`
	CVPublicLink   string       `json:"cv_public_link"`
}

type PersonalInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type PayloadMetadata struct {
	ApplicantName      string `json:"applicant_name"`
	Email              string `json:"email"`
	Status             string `json:"status"`
	CVProcessed        bool   `json:"cv_processed"`
	ProcessedTimestamp string `json:"processed_timestamp"`
	SubmissionID       string `json:"submission_id,omitempty"`
}

// Metadata is the per-submission context that is not extracted from the
// document itself.
type Metadata struct {
	ApplicantName string
	Email         string
	Status        string
	SubmissionID  string
}

// BuildPayload assembles the webhook body for rec.
func BuildPayload(rec extract.Record, meta Metadata, now time.Time) Payload {
	return Payload{
		CVData: CVData{
			PersonalInfo: PersonalInfo{
				Name:  rec.Name,
				Email: rec.Email,
				Phone: rec.Phone,
			},
			Education:      nonNil(rec.Education),
			Qualifications: nonNil(rec.Qualifications),
			Projects:       nonNil(rec.Projects),
			CVPublicLink:   rec.DocumentURL,
		},
		Metadata: PayloadMetadata{
			ApplicantName:      meta.ApplicantName,
			Email:              meta.Email,
			Status:             meta.Status,
			CVProcessed:        true,
			ProcessedTimestamp: now.UTC().Format(timestampLayout),
			SubmissionID:       meta.SubmissionID,
		},
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
