// Package linkedin is a thin client for the LinkedIn OAuth and UGC post APIs.
package linkedin

import "fmt"

// TokenResponse is what the LinkedIn token endpoint returns for both the
// authorization-code and refresh-token grants.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Profile is the subset of the member profile the engine cares about.
type Profile struct {
	ID        string `json:"id"`
	FirstName string `json:"localizedFirstName"`
	LastName  string `json:"localizedLastName"`
}

// APIError reports a failed LinkedIn call. The caller decides whether to
// retry; the client itself never does.
type APIError struct {
	Op         string // "refresh_token", "profile", "create_post"
	StatusCode int    // zero when the request never got a response
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("linkedin %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("linkedin %s: status %d: %s", e.Op, e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error { return e.Err }
