package files

import "ishaara/internal/domain/blob"

// CreateFileRequest is the body of POST /files.
type CreateFileRequest struct {
	Name           string `json:"name" validate:"required"`
	OriginalName   string `json:"original_name" validate:"required"`
	Type           string `json:"type" validate:"required,oneof=image video csv"`
	Size           int64  `json:"size" validate:"required,gt=0"`
	URL            string `json:"url" validate:"required"`
	PublicID       string `json:"public_id" validate:"required"`
	CloudinaryURL  string `json:"cloudinary_url" validate:"required"`
	UploadedBy     string `json:"uploaded_by" validate:"required"`
	ContributionID string `json:"contribution_id"`
}

// RequestFromUpload builds the record request for an object just written to
// the blob store.
func RequestFromUpload(res *blob.UploadResult, originalName string, size int64, uploadedBy string) *CreateFileRequest {
	return &CreateFileRequest{
		Name:          res.PublicID,
		OriginalName:  originalName,
		Type:          TypeForKind(res.ResourceKind),
		Size:          size,
		URL:           res.SecureURL,
		PublicID:      res.PublicID,
		CloudinaryURL: res.SecureURL,
		UploadedBy:    uploadedBy,
	}
}

// SweepResult counts what one orphan sweep did.
type SweepResult struct {
	Contributions int `json:"contributions"`
	Linked        int `json:"linked"`
	AlreadyLinked int `json:"already_linked"`
	Missing       int `json:"missing"`
	Conflicting   int `json:"conflicting"`
	Failed        int `json:"failed"`
}
