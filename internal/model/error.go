package model

// AppError is the JSON body of a request-level failure: an unknown route,
// a missing or invisible panel, a refused edit, or a fixture that could not
// be fetched or parsed. Anything else is unhandled and rendered as an error
// page by internal/failure.
//
// Stage names where the failure happened: "route", "validate_request",
// "load_panel", "fetch_fixture", "fetch_markdown" or "parse_fixture".
// Code is stable and machine-readable (PANEL_NOT_FOUND,
// FIXTURE_VALIDATE_ERROR, ...); Message is for people.
type AppError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Stage   string `json:"stage"`

	// Fixture failures point at the offending source.
	URL     string `json:"url,omitempty"`
	Line    int    `json:"line,omitempty"`
	Snippet string `json:"snippet,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// ErrorResponse wraps an AppError as {"error": {...}}.
type ErrorResponse struct {
	Error AppError `json:"error"`
}
