package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"workspace-collab/core"
)

// Claims is the token payload issued by the workspace's auth service.
type Claims struct {
	DisplayName string `json:"name"`
	AvatarRef   string `json:"avatarRef"`
	jwt.RegisteredClaims
}

// JWTResolver resolves connections through bearer tokens presented in the
// socket handshake. The gateway registers each connection's token on
// connect; Resolve validates it lazily so an expired or garbage token
// degrades the connection to anonymous instead of rejecting it.
type JWTResolver struct {
	secret []byte

	mu     sync.RWMutex
	tokens map[string]string
}

func NewJWTResolver(secret string) *JWTResolver {
	return &JWTResolver{
		secret: []byte(secret),
		tokens: make(map[string]string),
	}
}

// Register associates a handshake token with a connection.
func (r *JWTResolver) Register(connectionID, token string) {
	if token == "" {
		return
	}
	r.mu.Lock()
	r.tokens[connectionID] = token
	r.mu.Unlock()
}

// Forget drops the connection's token on disconnect.
func (r *JWTResolver) Forget(connectionID string) {
	r.mu.Lock()
	delete(r.tokens, connectionID)
	r.mu.Unlock()
}

func (r *JWTResolver) Resolve(ctx context.Context, connectionID string) (core.Identity, error) {
	r.mu.RLock()
	tokenString, ok := r.tokens[connectionID]
	r.mu.RUnlock()
	if !ok {
		return core.Identity{}, core.ErrUnknownIdentity
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil || !token.Valid {
		logrus.WithError(err).WithField("connection_id", connectionID).
			Debug("token rejected; connection stays anonymous")
		return core.Identity{}, core.ErrUnknownIdentity
	}

	return core.Identity{
		UserID:      claims.Subject,
		DisplayName: claims.DisplayName,
		AvatarRef:   claims.AvatarRef,
	}, nil
}

type noneResolver struct{}

func (noneResolver) Resolve(ctx context.Context, connectionID string) (core.Identity, error) {
	return core.Identity{}, core.ErrUnknownIdentity
}

// None returns a resolver that knows nobody; every connection participates
// anonymously. Used when no JWT secret is configured.
func None() core.IdentityResolver {
	return noneResolver{}
}
