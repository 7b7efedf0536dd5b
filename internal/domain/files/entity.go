package files

// File types accepted for a file record.
const (
	TypeImage = "image"
	TypeVideo = "video"
	TypeCSV   = "csv"
)

// Record statuses.
const (
	StatusActive  = "active"
	StatusDeleted = "deleted"
)

// Document field names of a file record.
const (
	FieldName           = "name"
	FieldOriginalName   = "original_name"
	FieldType           = "type"
	FieldSize           = "size"
	FieldURL            = "url"
	FieldPublicID       = "public_id"
	FieldCloudinaryURL  = "cloudinary_url"
	FieldUploadedBy     = "uploaded_by"
	FieldContributionID = "contribution_id"
	FieldUploadDate     = "upload_date"
	FieldStatus         = "status"
)

// TypeForKind maps a blob resource kind to a file record type. Anything that
// is neither image nor video is stored as csv.
func TypeForKind(kind string) string {
	switch kind {
	case TypeImage, TypeVideo:
		return kind
	default:
		return TypeCSV
	}
}
