package providers

import (
	"context"

	"golang.org/x/oauth2"
)

// OAuthUser is the account a provider vouches for. The sign-in flow keys
// players on the verified email.
type OAuthUser struct {
	ID            string
	Email         string
	EmailVerified bool
	Name          string
}

// OAuthProvider runs the authorization code flow against one identity provider.
type OAuthProvider interface {
	Name() string
	GetAuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*oauth2.Token, error)
	GetUserInfo(ctx context.Context, token *oauth2.Token) (*OAuthUser, error)
}
