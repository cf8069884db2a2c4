package assistant

// QueryRequest is a free-form question for the assistant.
type QueryRequest struct {
	Query string `json:"query" validate:"required,max=2000"`
}

// QueryResponse carries the assistant's final answer.
type QueryResponse struct {
	Answer string `json:"answer"`
}

// SuggestionsResponse carries planting suggestions for a city.
type SuggestionsResponse struct {
	City        string `json:"city"`
	Suggestions string `json:"suggestions"`
}
