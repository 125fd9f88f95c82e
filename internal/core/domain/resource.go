package domain

import "time"

// Resource is a study material PDF stored in object storage.
type Resource struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Subject    string    `json:"subject"`
	ExamStage  string    `json:"examStage"`
	Year       string    `json:"year"`
	Month      string    `json:"month"`
	PaperNo    string    `json:"paperNo"`
	ObjectKey  string    `json:"objectKey"`
	FileSize   int64     `json:"fileSize"`
	UploadedBy string    `json:"uploadedBy"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ResourceFilter narrows resource listings.
type ResourceFilter struct {
	Subject    string
	ExamStage  string
	Year       string
	Month      string
	PaperNo    string
	Search     string
	Bookmarked []string
	Page       int
	PageSize   int
}
