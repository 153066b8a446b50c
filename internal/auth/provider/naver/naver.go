package naver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/owtlabs/owt/internal/auth/domain"

	"golang.org/x/oauth2"
)

const providerName = "naver"

// Naver's OAuth 2.0 endpoints and profile API.
const (
	defaultAuthURL    = "https://nid.naver.com/oauth2.0/authorize"
	defaultTokenURL   = "https://nid.naver.com/oauth2.0/token"
	defaultProfileURL = "https://openapi.naver.com/v1/nid/me"
)

// maxProfileBody bounds how much of the profile response we read.
const maxProfileBody = 1 << 20

// Provider implements the authorization-code flow against Naver and
// normalizes the /v1/nid/me profile into a domain.ExternalIdentity.
type Provider struct {
	oauthConfig *oauth2.Config
	profileURL  string
	httpClient  *http.Client
}

// Option overrides a default, mainly so tests can point the provider at a
// local server.
type Option func(*Provider)

func WithEndpoints(authURL, tokenURL, profileURL string) Option {
	return func(p *Provider) {
		p.oauthConfig.Endpoint = oauth2.Endpoint{AuthURL: authURL, TokenURL: tokenURL}
		p.profileURL = profileURL
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) { p.httpClient = client }
}

func New(clientID, clientSecret, redirectURL string, opts ...Option) (*Provider, error) {
	if clientID == "" || clientSecret == "" || redirectURL == "" {
		return nil, errors.New("naver oauth config missing required fields")
	}

	p := &Provider{
		oauthConfig: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  defaultAuthURL,
				TokenURL: defaultTokenURL,
			},
			Scopes: []string{"email", "profile"},
		},
		profileURL: defaultProfileURL,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Name returns the provider identifier used by the registry.
func (p *Provider) Name() string {
	return providerName
}

// AuthCodeURL builds the upstream authorization URL carrying the
// anti-forgery state.
func (p *Provider) AuthCodeURL(state string) string {
	return p.oauthConfig.AuthCodeURL(state)
}

// profileResponse is the envelope Naver wraps around /v1/nid/me. A
// resultcode of "00" signals success; anything else carries a message.
type profileResponse struct {
	ResultCode string `json:"resultcode"`
	Message    string `json:"message"`
	Response   struct {
		ID           string `json:"id"`
		Email        string `json:"email"`
		Nickname     string `json:"nickname"`
		Name         string `json:"name"`
		ProfileImage string `json:"profile_image"`
	} `json:"response"`
}

// Exchange trades the callback code for an upstream access token, fetches
// the profile and normalizes it.
func (p *Provider) Exchange(ctx context.Context, code string) (domain.ExternalIdentity, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)

	token, err := p.oauthConfig.Exchange(ctx, code)
	if err != nil {
		return domain.ExternalIdentity{}, fmt.Errorf("naver token exchange failed: %w", err)
	}

	profile, err := p.fetchProfile(ctx, token.AccessToken)
	if err != nil {
		return domain.ExternalIdentity{}, err
	}

	if profile.Response.ID == "" || profile.Response.Email == "" {
		return domain.ExternalIdentity{}, errors.New("naver profile missing id or email")
	}

	// Nickname is optional on Naver profiles; fall back to the real name.
	displayName := profile.Response.Nickname
	if displayName == "" {
		displayName = profile.Response.Name
	}

	identity := domain.ExternalIdentity{
		Provider:    providerName,
		ProviderID:  profile.Response.ID,
		Email:       profile.Response.Email,
		DisplayName: displayName,
	}
	if img := profile.Response.ProfileImage; img != "" {
		identity.AvatarURL = &img
	}
	return identity, nil
}

func (p *Provider) fetchProfile(ctx context.Context, accessToken string) (profileResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.profileURL, nil)
	if err != nil {
		return profileResponse{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return profileResponse{}, fmt.Errorf("naver profile request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return profileResponse{}, fmt.Errorf("naver profile request returned %d", resp.StatusCode)
	}

	var profile profileResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxProfileBody)).Decode(&profile); err != nil {
		return profileResponse{}, fmt.Errorf("naver profile response malformed: %w", err)
	}

	if profile.ResultCode != "00" {
		return profileResponse{}, fmt.Errorf("naver profile request rejected: %s %s", profile.ResultCode, profile.Message)
	}
	return profile, nil
}
