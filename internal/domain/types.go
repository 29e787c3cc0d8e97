package domain

import "time"

// Miscellaneous is the reserved unit for questions that fit no syllabus unit
const Miscellaneous = "Miscellaneous"

// Supported content types
const (
	ContentTypePDF   = "application/pdf"
	ContentTypeDOCX  = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeXLSX  = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypeHTML  = "text/html"
	ContentTypeText  = "text/plain"
	ContentTypeOctet = "application/octet-stream"
)

// InputDocument is one uploaded exam paper. It lives for a single pipeline run.
type InputDocument struct {
	Name        string `json:"name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// OrganizedResult maps a syllabus unit name to the unique questions that belong to it
type OrganizedResult map[string][]string

// Units returns the number of units and the total question count
func (r OrganizedResult) Units() (units, questions int) {
	for _, qs := range r {
		units++
		questions += len(qs)
	}
	return units, questions
}

// User is an account allowed to call the organizer
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
