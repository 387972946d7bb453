package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sepelio/nucleo/internal/account"
)

const (
	contextActorUserIDKey = "actor_user_id"
	contextActorRoleKey   = "actor_role"
)

const (
	roleAgent      = account.RoleAgent
	roleAdmin      = account.RoleAdmin
	roleSuperAdmin = account.RoleSuperAdmin
)

var errInvalidToken = errors.New("invalid token")

type jwtHeader struct {
	Alg string `json:"alg"`
}

// actorClaims identifies the authenticated caller: a cooperative agent,
// admin or super-admin, carried as a bearer HS256 JWT. No multi-tenant
// org concept applies to this domain.
type actorClaims struct {
	Subject json.Number `json:"sub"`
	Role    string      `json:"role"`
	Expires json.Number `json:"exp"`
}

type validatedActor struct {
	UserID int64
	Role   account.Role
}

func readBearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

func validateActorJWT(token string, secret []byte) (*validatedActor, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, errInvalidToken
	}

	headerBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, errInvalidToken
	}
	var header jwtHeader
	if err := json.Unmarshal(headerBytes, &header); err != nil {
		return nil, errInvalidToken
	}
	if header.Alg != "HS256" {
		return nil, errInvalidToken
	}

	signingInput := parts[0] + "." + parts[1]
	sig, err := base64.RawURLEncoding.DecodeString(parts[2])
	if err != nil {
		return nil, errInvalidToken
	}

	mac := hmac.New(sha256.New, secret)
	_, _ = mac.Write([]byte(signingInput))
	if !hmac.Equal(mac.Sum(nil), sig) {
		return nil, errInvalidToken
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, errInvalidToken
	}
	var claims actorClaims
	if err := json.Unmarshal(payloadBytes, &claims); err != nil {
		return nil, errInvalidToken
	}

	exp, err := claims.Expires.Int64()
	if err != nil || exp == 0 || time.Now().Unix() >= exp {
		return nil, errInvalidToken
	}
	userID, err := claims.Subject.Int64()
	if err != nil || userID == 0 {
		return nil, errInvalidToken
	}

	role := account.Role(claims.Role)
	switch role {
	case roleAgent, roleAdmin, roleSuperAdmin:
	default:
		return nil, errInvalidToken
	}

	return &validatedActor{UserID: userID, Role: role}, nil
}

// AuthRequired validates the bearer token and stashes the actor on the
// gin context for downstream handlers and RequireRole.
func (s *Server) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := readBearerToken(c.GetHeader("Authorization"))
		if token == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		if strings.TrimSpace(s.cfg.AuthJWTSecret) == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		actor, err := validateActorJWT(token, []byte(s.cfg.AuthJWTSecret))
		if err != nil {
			AbortWithError(c, ErrUnauthorized)
			return
		}

		c.Set(contextActorUserIDKey, actor.UserID)
		c.Set(contextActorRoleKey, actor.Role)
		c.Next()
	}
}

// RequireRole aborts with ErrForbidden unless the authenticated actor's
// role is one of allowed.
func (s *Server) RequireRole(allowed ...account.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := actorRole(c)
		for _, a := range allowed {
			if role == a {
				c.Next()
				return
			}
		}
		AbortWithError(c, ErrForbidden)
	}
}

func actorUserID(c *gin.Context) int64 {
	v, _ := c.Get(contextActorUserIDKey)
	id, _ := v.(int64)
	return id
}

func actorRole(c *gin.Context) (account.Role, bool) {
	v, ok := c.Get(contextActorRoleKey)
	if !ok {
		return "", false
	}
	role, ok := v.(account.Role)
	return role, ok
}
