package client

import (
	"fmt"
	"strings"
)

// maxSnippet bounds the response body kept in an APIError, in characters.
const maxSnippet = 200

// APIError is returned for every non-2xx response.
type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("memory service %s %s: status %d", e.Method, e.Path, e.Status)
	}
	return fmt.Sprintf("memory service %s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	return &APIError{
		Method: method,
		Path:   path,
		Status: status,
		Body:   snippet(string(body)),
	}
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= maxSnippet {
		return s
	}
	return string(r[:maxSnippet])
}
