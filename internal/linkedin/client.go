package linkedin

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultAPIBaseURL  = "https://api.linkedin.com/v2"
	defaultAuthBaseURL = "https://www.linkedin.com/oauth/v2"

	// requestTimeout bounds every LinkedIn call. It must stay well under the
	// 15-minute due-post sweep interval so a hung call cannot stall the next
	// tick.
	requestTimeout = 30 * time.Second
)

// Client talks to the LinkedIn API. It is stateless and safe for concurrent
// use; retries are the caller's business.
type Client struct {
	api          *resty.Client
	auth         *resty.Client
	clientID     string
	clientSecret string
	redirectURL  string
}

// NewClient creates a LinkedIn client with the app's OAuth credentials.
func NewClient(clientID, clientSecret, redirectURL string) *Client {
	return &Client{
		api:          resty.New().SetBaseURL(defaultAPIBaseURL).SetTimeout(requestTimeout),
		auth:         resty.New().SetBaseURL(defaultAuthBaseURL).SetTimeout(requestTimeout),
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
	}
}

// AuthorizationURL builds the member consent URL for connecting an account.
func (c *Client) AuthorizationURL(state string) string {
	params := url.Values{
		"response_type": {"code"},
		"client_id":     {c.clientID},
		"redirect_uri":  {c.redirectURL},
		"scope":         {"r_liteprofile r_emailaddress w_member_social"},
		"state":         {state},
	}
	return fmt.Sprintf("%s/authorization?%s", c.auth.BaseURL, params.Encode())
}

// ExchangeCode trades an authorization code for tokens.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	return c.tokenGrant(ctx, map[string]string{
		"grant_type":    "authorization_code",
		"code":          code,
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
		"redirect_uri":  c.redirectURL,
	}, "exchange_code")
}

// RefreshAccessToken trades a refresh token for a fresh access token. The
// grant does not always return a new refresh token; RefreshToken is empty in
// that case.
func (c *Client) RefreshAccessToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	return c.tokenGrant(ctx, map[string]string{
		"grant_type":    "refresh_token",
		"refresh_token": refreshToken,
		"client_id":     c.clientID,
		"client_secret": c.clientSecret,
	}, "refresh_token")
}

func (c *Client) tokenGrant(ctx context.Context, form map[string]string, op string) (*TokenResponse, error) {
	var tokens TokenResponse
	resp, err := c.auth.R().
		SetContext(ctx).
		SetFormData(form).
		SetResult(&tokens).
		Post("/accessToken")
	if err != nil {
		return nil, &APIError{Op: op, Err: err}
	}
	if resp.IsError() {
		return nil, &APIError{Op: op, StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	return &tokens, nil
}

// Profile fetches the authenticated member's profile.
func (c *Client) Profile(ctx context.Context, accessToken string) (*Profile, error) {
	var profile Profile
	resp, err := c.api.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetResult(&profile).
		Get("/me")
	if err != nil {
		return nil, &APIError{Op: "profile", Err: err}
	}
	if resp.IsError() {
		return nil, &APIError{Op: "profile", StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	return &profile, nil
}

// CreatePost publishes a text share on the member's feed and returns the id
// LinkedIn assigned to it. The member URN is resolved from the token first,
// matching the two-step flow the UGC post endpoint requires.
func (c *Client) CreatePost(ctx context.Context, accessToken, text string) (string, error) {
	profile, err := c.Profile(ctx, accessToken)
	if err != nil {
		return "", &APIError{Op: "create_post", Err: err}
	}

	body := map[string]interface{}{
		"author":         fmt.Sprintf("urn:li:person:%s", profile.ID),
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]interface{}{
			"com.linkedin.ugc.ShareContent": map[string]interface{}{
				"shareCommentary":    map[string]string{"text": text},
				"shareMediaCategory": "NONE",
			},
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	var created struct {
		ID string `json:"id"`
	}
	resp, err := c.api.R().
		SetContext(ctx).
		SetAuthToken(accessToken).
		SetHeader("X-Restli-Protocol-Version", "2.0.0").
		SetBody(body).
		SetResult(&created).
		Post("/ugcPosts")
	if err != nil {
		return "", &APIError{Op: "create_post", Err: err}
	}
	if resp.IsError() {
		return "", &APIError{Op: "create_post", StatusCode: resp.StatusCode(), Body: string(resp.Body())}
	}
	return created.ID, nil
}
