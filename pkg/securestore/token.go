package securestore

import (
	"context"

	"github.com/huddle-sports/huddle-client/pkg/client"
)

// TokenSource reads the access token from s for authenticated requests.
// A missing token sends requests anonymously.
func TokenSource(s Store) client.TokenSource {
	return client.TokenFunc(func(context.Context) (string, error) {
		token, _, err := s.Get(KeyAccessToken)
		return token, err
	})
}
