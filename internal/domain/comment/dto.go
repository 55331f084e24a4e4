package comment

// CreateRequest is the body of POST /photos/{id}/comments
type CreateRequest struct {
	Content string `json:"content" validate:"required,min=1,max=500"`
}

// ListResponse is one slice of a photo's comments, newest first.
type ListResponse struct {
	Comments []*Comment `json:"comments"`
	Total    int        `json:"total"`
}

const (
	DefaultLimit = 50
	MaxLimit     = 100
)
