// Package google implementa el provider de login de Google (OIDC).
//
// Canjea el authorization code en el token endpoint y lee el perfil del
// userinfo endpoint estándar de OpenID Connect.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/moguapp/moguauth/internal/oauth"
)

const (
	authURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	tokenURL    = "https://oauth2.googleapis.com/token"
	userInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

// Provider implementa oauth.Provider para Google.
type Provider struct {
	clientID     string
	clientSecret string
	redirectURL  string
	scopes       []string

	httpClient  *http.Client
	tokenURL    string
	userInfoURL string
}

// New crea el provider. Sin scopes explícitos pide openid, email y profile.
func New(clientID, clientSecret, redirectURL string, scopes []string) *Provider {
	if len(scopes) == 0 {
		scopes = []string{"openid", "email", "profile"}
	}
	return &Provider{
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		scopes:       scopes,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		tokenURL:     tokenURL,
		userInfoURL:  userInfoURL,
	}
}

func (p *Provider) Name() string { return "google" }

func (p *Provider) AuthURL(state string) string {
	q := url.Values{}
	q.Set("client_id", p.clientID)
	q.Set("redirect_uri", p.redirectURL)
	q.Set("response_type", "code")
	q.Set("scope", strings.Join(p.scopes, " "))
	q.Set("state", state)
	return authURL + "?" + q.Encode()
}

func (p *Provider) Exchange(ctx context.Context, code string) (*oauth.UserInfo, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)
	form.Set("redirect_uri", p.redirectURL)
	form.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", oauth.ErrProviderError, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: token request: %v", oauth.ErrProviderError, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: read token response: %v", oauth.ErrProviderError, err)
	}
	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnauthorized {
		return nil, oauth.ErrInvalidCode
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: token endpoint status %d", oauth.ErrProviderError, resp.StatusCode)
	}

	var tr struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tr); err != nil || tr.AccessToken == "" {
		return nil, fmt.Errorf("%w: malformed token response", oauth.ErrProviderError)
	}
	return p.fetchProfile(ctx, tr.AccessToken)
}

func (p *Provider) fetchProfile(ctx context.Context, accessToken string) (*oauth.UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", oauth.ErrProviderError, err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: userinfo request: %v", oauth.ErrProviderError, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: userinfo status %d", oauth.ErrProviderError, resp.StatusCode)
	}

	var ui struct {
		Sub     string `json:"sub"`
		Email   string `json:"email"`
		Name    string `json:"name"`
		Picture string `json:"picture"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&ui); err != nil {
		return nil, fmt.Errorf("%w: malformed userinfo response", oauth.ErrProviderError)
	}
	if ui.Sub == "" {
		return nil, fmt.Errorf("%w: userinfo missing sub", oauth.ErrProviderError)
	}

	return &oauth.UserInfo{
		ProviderUserID: ui.Sub,
		Email:          ui.Email,
		Nickname:       ui.Name,
		Picture:        ui.Picture,
	}, nil
}
