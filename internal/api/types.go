package api

// AnswerResponse is the backend's reply to a chat question.
type AnswerResponse struct {
	Answer         string  `json:"answer"`
	ProcessingTime float64 `json:"processing_time"`
}

// InjectResponse reports the outcome of a URL ingestion request.
// Status is "success" or "partial_success"; Errors lists per-URL failures
// when the ingestion only partially succeeded.
type InjectResponse struct {
	Message    string   `json:"message"`
	Status     string   `json:"status"`
	AddedCount int      `json:"added_count"`
	Errors     []string `json:"errors,omitempty"`
}

// DeleteResponse reports the outcome of a delete-by-metadata request.
// Status is "success" or "no_match".
type DeleteResponse struct {
	Message      string `json:"message"`
	DeletedCount int    `json:"deleted_count"`
	Status       string `json:"status"`
}

// CountEntry is one url with the number of chunks indexed under it.
type CountEntry struct {
	URL   string
	Count int
}

// ServiceConfig describes the models the backend is running with.
type ServiceConfig struct {
	LLMModel        string `json:"llm_model"`
	EmbeddingsModel string `json:"embeddings_model"`
}
