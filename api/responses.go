package api

// CheckResponse is the response for a path check.
type CheckResponse struct {
	Allowed        bool              `json:"allowed" description:"Whether the request is allowed"`
	Decision       string            `json:"decision" description:"Decision code"`
	Reason         string            `json:"reason,omitempty" description:"Human-readable reason"`
	Path           string            `json:"path" description:"Normalized path that was evaluated"`
	MatchedPattern string            `json:"matched_pattern,omitempty" description:"Pattern of the granting permission"`
	MatchedID      string            `json:"matched_permission_id,omitempty" description:"ID of the granting permission"`
	Params         map[string]string `json:"params,omitempty" description:"Placeholder values"`
	Cached         bool              `json:"cached,omitempty" description:"Served from the decision cache"`
	EvalTimeNs     int64             `json:"eval_time_ns" description:"Evaluation time in nanoseconds"`
}

// ListResponse wraps a list of items with pagination metadata.
type ListResponse[T any] struct {
	Items  []T   `json:"items" description:"List of items"`
	Total  int64 `json:"total" description:"Total count"`
	Limit  int   `json:"limit" description:"Page size"`
	Offset int   `json:"offset" description:"Page offset"`
}
