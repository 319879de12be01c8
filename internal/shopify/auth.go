package shopify

import (
	"context"
	"fmt"
	"strings"

	"github.com/Veraticus/partner-directory-sync/internal/common"
	"github.com/Veraticus/partner-directory-sync/internal/config"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// TokenURL is the shop's OAuth token endpoint.
func TokenURL(domain string) string {
	return "https://" + domain + "/admin/oauth/access_token"
}

// NewTokenSource returns a static source for an admin access token, or a
// client credentials source when only an app id and secret are configured.
// The client credentials source caches its token until it expires. Set
// oauth2.HTTPClient on ctx to control the transport used for token requests.
func NewTokenSource(ctx context.Context, cfg config.ShopConfig) (oauth2.TokenSource, error) {
	if token := strings.TrimSpace(cfg.AccessToken); token != "" {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}), nil
	}

	if !cfg.UsesClientCredentials() {
		return nil, fmt.Errorf("%w: %s or %s and %s",
			common.ErrMissingConfig, config.EnvAccessToken, config.EnvClientID, config.EnvClientSecret)
	}
	if cfg.Domain == "" {
		return nil, fmt.Errorf("%w: %s", common.ErrMissingConfig, config.EnvShop)
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     TokenURL(cfg.Domain),
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	return cc.TokenSource(ctx), nil
}
