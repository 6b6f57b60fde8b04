package identity

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v3/userinfo"
	githubUserURL     = "https://api.github.com/user"
)

// Profile is the account information returned by an OAuth provider
type Profile struct {
	Provider  string
	UID       string
	Email     string
	Name      string
	AvatarURL string
}

// OAuthProvider runs the authorization-code flow against one provider
type OAuthProvider struct {
	name        string
	config      *oauth2.Config
	userInfoURL string
	parse       func(body []byte) Profile
}

// NewGoogleProvider creates the Google sign-in provider
func NewGoogleProvider(clientID, clientSecret, redirectURL string) *OAuthProvider {
	return newProvider("google", &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"openid", "email", "profile"},
		Endpoint:     google.Endpoint,
	}, googleUserInfoURL, parseGoogle)
}

// NewGitHubProvider creates the GitHub sign-in provider
func NewGitHubProvider(clientID, clientSecret, redirectURL string) *OAuthProvider {
	return newProvider("github", &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       []string{"read:user", "user:email"},
		Endpoint:     github.Endpoint,
	}, githubUserURL, parseGitHub)
}

func newProvider(name string, config *oauth2.Config, userInfoURL string, parse func([]byte) Profile) *OAuthProvider {
	return &OAuthProvider{name: name, config: config, userInfoURL: userInfoURL, parse: parse}
}

// Name returns the provider name stored on user profiles
func (p *OAuthProvider) Name() string {
	return p.name
}

// AuthCodeURL returns the consent page URL carrying state
func (p *OAuthProvider) AuthCodeURL(state string) string {
	return p.config.AuthCodeURL(state)
}

// Exchange trades an authorization code for the user's profile
func (p *OAuthProvider) Exchange(ctx context.Context, code string) (*Profile, error) {
	token, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange %s code: %w", p.name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build user info request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.config.Client(ctx, token).Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s user info: %w", p.name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s user info: %w", p.name, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s user info returned status %d", p.name, resp.StatusCode)
	}

	profile := p.parse(body)
	if profile.UID == "" {
		return nil, fmt.Errorf("%s user info has no account id", p.name)
	}
	profile.Provider = p.name
	return &profile, nil
}

func parseGoogle(body []byte) Profile {
	r := gjson.ParseBytes(body)
	return Profile{
		UID:       r.Get("sub").String(),
		Email:     r.Get("email").String(),
		Name:      r.Get("name").String(),
		AvatarURL: r.Get("picture").String(),
	}
}

func parseGitHub(body []byte) Profile {
	r := gjson.ParseBytes(body)
	name := r.Get("name").String()
	if name == "" {
		name = r.Get("login").String()
	}
	return Profile{
		UID:       r.Get("id").String(),
		Email:     r.Get("email").String(),
		Name:      name,
		AvatarURL: r.Get("avatar_url").String(),
	}
}
