package devserver

import (
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/bookdenapp/bookden-shell/internal/id"
)

const (
	tokenIssuer     = "bookden-devserver"
	sessionDuration = 24 * time.Hour
)

// tokenService issues and verifies PASETO v4.local session tokens. The
// symmetric key is generated per process; restarting the server signs
// everyone out, which is fine for a development backend.
type tokenService struct {
	key paseto.V4SymmetricKey
}

func newTokenService() *tokenService {
	return &tokenService{key: paseto.NewV4SymmetricKey()}
}

// issue creates a session token for the user.
func (s *tokenService) issue(userID string) (string, error) {
	now := time.Now()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(userID)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(sessionDuration))

	jti, err := id.Generate("session")
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}
	token.SetJti(jti)

	return token.V4Encrypt(s.key, nil), nil
}

// verify returns the user id a token was issued to. Expired, revoked and
// malformed tokens all read as not-signed-in.
func (s *tokenService) verify(raw string) (string, bool) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.IssuedBy(tokenIssuer), paseto.NotExpired())

	token, err := parser.ParseV4Local(s.key, raw, nil)
	if err != nil {
		return "", false
	}
	subject, err := token.GetSubject()
	if err != nil {
		return "", false
	}
	return subject, true
}
