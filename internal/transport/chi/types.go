package chi

// ErrorCode is a machine-readable error code.
type ErrorCode string

// Error codes returned in ErrorResponse.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeInvalidQuery     ErrorCode = "invalid_query"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode         `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// ChatRequest is the body of POST /chat.
type ChatRequest struct {
	Message string `json:"message" validate:"required,max=1000"`
}

// ReplyResponse is one bot message.
type ReplyResponse struct {
	ID      string   `json:"id"`
	Kind    string   `json:"kind"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
	Sources []string `json:"sources,omitempty"`
}

// SearchResponse is the body of the search endpoints.
type SearchResponse struct {
	Query    string             `json:"query"`
	Results  []SearchResultItem `json:"results"`
	Degraded bool               `json:"degraded"`
}

// SearchResultItem is one ranked document.
type SearchResultItem struct {
	ID                string   `json:"id"`
	Title             string   `json:"title,omitempty"`
	Text              string   `json:"text"`
	Category          string   `json:"category,omitempty"`
	Tags              []string `json:"tags,omitempty"`
	Score             float64  `json:"score"`
	GroupType         string   `json:"group_type,omitempty"`
	Duration          string   `json:"duration,omitempty"`
	RecruitmentPeriod string   `json:"recruitment_period,omitempty"`
	ContactName       string   `json:"contact_name,omitempty"`
	ContactEmail      string   `json:"contact_email,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}
