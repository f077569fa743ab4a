package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gdg-garage/events-api/internal/config"
	"github.com/gdg-garage/events-api/internal/service"
	"golang.org/x/oauth2"
)

const DiscordAPI = "https://discord.com/api"

var (
	ErrUnknownProvider = errors.New("unknown oauth provider")
	ErrNotGuildMember  = errors.New("not a member of the required guild")
)

// Provider is one configured OAuth login option.
type Provider struct {
	Name   string
	OAuth  *oauth2.Config
	fetch  func(ctx context.Context, client *http.Client) (service.ExternalProfile, error)
	apiURL string
}

func (p *Provider) AuthCodeURL(state string) string {
	return p.OAuth.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange trades the callback code for a token and fetches the user's profile.
func (p *Provider) Exchange(ctx context.Context, code string) (service.ExternalProfile, error) {
	token, err := p.OAuth.Exchange(ctx, code)
	if err != nil {
		return service.ExternalProfile{}, fmt.Errorf("exchange %s code: %w", p.Name, err)
	}
	profile, err := p.fetch(ctx, p.OAuth.Client(ctx, token))
	if err != nil {
		return service.ExternalProfile{}, err
	}
	profile.Provider = p.Name
	return profile, nil
}

// Providers is the set of OAuth providers keyed by path name.
type Providers map[string]*Provider

func (ps Providers) Get(name string) (*Provider, error) {
	p, ok := ps[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
	}
	return p, nil
}

// NewProviders builds the providers that have client credentials configured.
func NewProviders(cfg *config.Config) Providers {
	ps := Providers{}
	if cfg.FortyTwoClientID != "" && cfg.FortyTwoClientSecret != "" {
		ps["42"] = NewFortyTwoProvider(cfg.FortyTwoClientID, cfg.FortyTwoClientSecret, cfg.FortyTwoRedirectURL, cfg.FortyTwoAPIURL)
	}
	if cfg.DiscordClientID != "" && cfg.DiscordClientSecret != "" {
		ps["discord"] = NewDiscordProvider(cfg.DiscordClientID, cfg.DiscordClientSecret, cfg.DiscordRedirectURL, DiscordAPI, cfg.DiscordGuildID)
	}
	return ps
}

func NewFortyTwoProvider(clientID, clientSecret, redirectURL, apiURL string) *Provider {
	apiURL = strings.TrimRight(apiURL, "/")
	p := &Provider{
		Name: "42",
		OAuth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"public"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  apiURL + "/oauth/authorize",
				TokenURL: apiURL + "/oauth/token",
			},
		},
		apiURL: apiURL,
	}
	p.fetch = func(ctx context.Context, client *http.Client) (service.ExternalProfile, error) {
		var me struct {
			ID          int64  `json:"id"`
			Login       string `json:"login"`
			DisplayName string `json:"displayname"`
			Email       string `json:"email"`
		}
		if err := getJSON(ctx, client, p.apiURL+"/v2/me", &me); err != nil {
			return service.ExternalProfile{}, err
		}
		if me.ID == 0 {
			return service.ExternalProfile{}, errors.New("42 profile has no id")
		}
		return service.ExternalProfile{
			ID:          strconv.FormatInt(me.ID, 10),
			Username:    me.Login,
			DisplayName: me.DisplayName,
			Email:       me.Email,
		}, nil
	}
	return p
}

// NewDiscordProvider logs users in with Discord. When guildID is set, only
// members of that guild are accepted.
func NewDiscordProvider(clientID, clientSecret, redirectURL, apiURL, guildID string) *Provider {
	apiURL = strings.TrimRight(apiURL, "/")
	scopes := []string{"identify", "email"}
	if guildID != "" {
		scopes = append(scopes, "guilds")
	}
	p := &Provider{
		Name: "discord",
		OAuth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  apiURL + "/oauth2/authorize",
				TokenURL: apiURL + "/oauth2/token",
			},
		},
		apiURL: apiURL,
	}
	p.fetch = func(ctx context.Context, client *http.Client) (service.ExternalProfile, error) {
		if guildID != "" {
			var guilds []struct {
				ID string `json:"id"`
			}
			if err := getJSON(ctx, client, p.apiURL+"/users/@me/guilds", &guilds); err != nil {
				return service.ExternalProfile{}, err
			}
			isMember := false
			for _, g := range guilds {
				if g.ID == guildID {
					isMember = true
					break
				}
			}
			if !isMember {
				return service.ExternalProfile{}, ErrNotGuildMember
			}
		}

		var me struct {
			ID         string `json:"id"`
			Username   string `json:"username"`
			GlobalName string `json:"global_name"`
			Email      string `json:"email"`
		}
		if err := getJSON(ctx, client, p.apiURL+"/users/@me", &me); err != nil {
			return service.ExternalProfile{}, err
		}
		if me.ID == "" {
			return service.ExternalProfile{}, errors.New("discord profile has no id")
		}
		return service.ExternalProfile{
			ID:          me.ID,
			Username:    me.Username,
			DisplayName: me.GlobalName,
			Email:       me.Email,
		}, nil
	}
	return p
}

func getJSON(ctx context.Context, client *http.Client, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get %s: unexpected status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}
