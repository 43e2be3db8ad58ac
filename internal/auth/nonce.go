package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	nonceAudience = "dropzone-nonce"
	// UploadAction is the only action nonces are minted for.
	UploadAction = "dropzone_upload"
)

var (
	ErrNonceMissing = errors.New("nonce missing")
	ErrNonceActor   = errors.New("nonce issued to another actor")
	ErrNonceAction  = errors.New("nonce issued for another action")
)

type nonceClaims struct {
	Action string `json:"act"`
	jwt.RegisteredClaims
}

// Nonces mints and verifies short-lived anti-forgery tokens bound to one
// actor and one action.
type Nonces struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewNonces(secret string, ttl time.Duration) *Nonces {
	return &Nonces{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (n *Nonces) Issue(actorID string) (string, time.Time, error) {
	now := n.now()
	expiresAt := now.Add(n.ttl)

	claims := nonceClaims{
		Action: UploadAction,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   actorID,
			Audience:  jwt.ClaimStrings{nonceAudience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(n.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign nonce: %w", err)
	}
	return signed, expiresAt, nil
}

func (n *Nonces) Verify(token, actorID string) error {
	if token == "" {
		return ErrNonceMissing
	}

	claims := &nonceClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return n.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithAudience(nonceAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(n.now),
	)
	if err != nil {
		return fmt.Errorf("verify nonce: %w", err)
	}

	if claims.Subject != actorID {
		return ErrNonceActor
	}
	if claims.Action != UploadAction {
		return ErrNonceAction
	}
	return nil
}
