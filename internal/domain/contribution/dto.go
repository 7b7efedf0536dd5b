package contribution

// FileRef describes one uploaded file attached to a contribution.
// FileRecordID is empty when the file's metadata record could not be created.
type FileRef struct {
	URL          string `json:"url"`
	PublicID     string `json:"public_id"`
	Type         string `json:"type" validate:"omitempty,oneof=image video csv"`
	Name         string `json:"name"`
	FileRecordID string `json:"file_record_id,omitempty"`
}

// SubmitRequest is the body of POST /contributions.
type SubmitRequest struct {
	SignName          string    `json:"sign_name" validate:"required"`
	Language          string    `json:"language" validate:"required"`
	Category          string    `json:"category" validate:"required"`
	Description       string    `json:"description" validate:"required,min=10"`
	RegionalVariation string    `json:"regional_variation,omitempty"`
	ContributorName   string    `json:"contributor_name" validate:"required"`
	ContributorEmail  string    `json:"contributor_email" validate:"required,email"`
	Files             []FileRef `json:"files,omitempty" validate:"dive"`
}
