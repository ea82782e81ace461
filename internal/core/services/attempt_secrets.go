package services

import (
	"crypto/rand"
	"encoding/base64"

	"golang.org/x/oauth2"
)

// stateBytes is the entropy of a CSRF state token.
const stateBytes = 32

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// newRedirectSecrets returns the CSRF state and PKCE verifier of a redirect attempt.
func newRedirectSecrets() (state, verifier string, err error) {
	state, err = randomToken(stateBytes)
	if err != nil {
		return "", "", err
	}
	return state, oauth2.GenerateVerifier(), nil
}

// codeChallenge derives the S256 challenge sent with the authorization URL.
func codeChallenge(verifier string) string {
	return oauth2.S256ChallengeFromVerifier(verifier)
}

// newPopupState binds a popup attempt to a user. The backend splits on the
// last '.' to recover the user identifier.
func newPopupState(userID string) (string, error) {
	nonce, err := randomToken(stateBytes)
	if err != nil {
		return "", err
	}
	return nonce + "." + userID, nil
}
