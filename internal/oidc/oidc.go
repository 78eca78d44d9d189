package oidc

import (
	"context"
	"crypto"
	"errors"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
)

// GoogleIssuer is the issuer of Google ID tokens.
const GoogleIssuer = "https://accounts.google.com"

// ErrUnverifiedEmail is returned for ID tokens whose email the provider has
// not verified; such addresses cannot be trusted for account linking.
var ErrUnverifiedEmail = errors.New("id token email is not verified")

// IDToken is a minimal interface for token payloads that allows extracting claims
// It is satisfied by *oidc.IDToken and by test fakes.
type IDToken interface {
	Claims(v interface{}) error
}

// Identity is the subset of ID token claims used to sign a user in.
type Identity struct {
	Subject       string `json:"sub"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"email_verified"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// Verifier wraps the OIDC provider and token verifier
type Verifier struct {
	verifier *oidc.IDTokenVerifier
}

// NewVerifier discovers issuer and verifies tokens issued to clientID.
func NewVerifier(ctx context.Context, issuer, clientID string) (*Verifier, error) {
	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}
	return &Verifier{verifier: provider.Verifier(&oidc.Config{ClientID: clientID})}, nil
}

// NewStaticVerifier verifies tokens against fixed public keys without
// discovery.
func NewStaticVerifier(issuer, clientID string, keys ...crypto.PublicKey) *Verifier {
	ks := &oidc.StaticKeySet{PublicKeys: keys}
	return &Verifier{verifier: oidc.NewVerifier(issuer, ks, &oidc.Config{ClientID: clientID})}
}

// Verify checks signature, issuer, audience and expiry of raw and returns
// the identity it carries.
func (v *Verifier) Verify(ctx context.Context, raw string) (*Identity, error) {
	idToken, err := v.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}
	return IdentityFromToken(idToken)
}

// IdentityFromToken extracts and checks the identity claims of tok.
func IdentityFromToken(tok IDToken) (*Identity, error) {
	var id Identity
	if err := tok.Claims(&id); err != nil {
		return nil, fmt.Errorf("decode id token claims: %w", err)
	}
	if id.Subject == "" || id.Email == "" {
		return nil, errors.New("id token lacks subject or email")
	}
	if !id.EmailVerified {
		return nil, ErrUnverifiedEmail
	}
	return &id, nil
}
