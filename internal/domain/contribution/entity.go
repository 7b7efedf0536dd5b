package contribution

import "ishaara/internal/domain/docstore"

// Status of a contribution. Moderation moves it out of pending.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Contribution is a persisted community sign submission.
type Contribution struct {
	ID                string
	SignName          string
	Language          string
	Category          string
	Description       string
	RegionalVariation string
	ContributorName   string
	ContributorEmail  string
	Status            Status
	HasFiles          bool
	FileIDs           []string

	// UnlinkedFileIDs lists file records whose contribution_id update failed.
	// They stay orphaned until the next sweep.
	UnlinkedFileIDs []string

	Document *docstore.Document
}

// FromDocument reads a contribution out of its stored document.
func FromDocument(doc *docstore.Document) *Contribution {
	hasFiles, _ := doc.Data["has_files"].(bool)
	return &Contribution{
		ID:                doc.ID,
		SignName:          doc.String("sign_name"),
		Language:          doc.String("language"),
		Category:          doc.String("category"),
		Description:       doc.String("description"),
		RegionalVariation: doc.String("regional_variation"),
		ContributorName:   doc.String("contributor_name"),
		ContributorEmail:  doc.String("contributor_email"),
		Status:            Status(doc.String("status")),
		HasFiles:          hasFiles,
		FileIDs:           doc.Strings("file_ids"),
		Document:          doc,
	}
}
