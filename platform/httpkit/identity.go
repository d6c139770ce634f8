package httpkit

import (
	"errors"
	"strings"

	"realestate_crm_backend/platform/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// ContextAgentIDKey is the gin context key for the authenticated agent ID.
	ContextAgentIDKey = "agentID"
	// ContextTeamIDKey is the gin context key for the agent's team ID, if any.
	ContextTeamIDKey = "teamID"

	errMissingToken = "missing token"
	errInvalidToken = "invalid token"
)

// AuthRequired returns middleware that validates JWT access tokens issued by
// the identity collaborator. Token issuance lives outside this service; only
// validation and claim extraction happen here.
func AuthRequired(cfg config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		rawToken, ok := extractBearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, errMissingToken)
			return
		}

		claims, err := parseAccessClaims(rawToken, cfg)
		if err != nil {
			abortUnauthorized(c, errInvalidToken)
			return
		}

		agentID, err := parseAgentID(claims)
		if err != nil {
			abortUnauthorized(c, errInvalidToken)
			return
		}
		c.Set(ContextAgentIDKey, agentID)

		if teamID, err := parseTeamID(claims); err != nil {
			abortUnauthorized(c, errInvalidToken)
			return
		} else if teamID != nil {
			c.Set(ContextTeamIDKey, *teamID)
		}

		c.Next()
	}
}

// AgentID returns the authenticated agent ID from the gin context.
func AgentID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(ContextAgentIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}

// TeamID returns the agent's team ID from the gin context, if present.
func TeamID(c *gin.Context) *uuid.UUID {
	value, ok := c.Get(ContextTeamIDKey)
	if !ok {
		return nil
	}
	id, ok := value.(uuid.UUID)
	if !ok {
		return nil
	}
	return &id
}

func extractBearerToken(authHeader string) (string, bool) {
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}

	rawToken := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if rawToken == "" {
		return "", false
	}
	return rawToken, true
}

func parseAccessClaims(rawToken string, cfg config.JWTConfig) (jwt.MapClaims, error) {
	token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(cfg.GetJWTAccessSecret()), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New(errInvalidToken)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New(errInvalidToken)
	}
	return claims, nil
}

func parseAgentID(claims jwt.MapClaims) (uuid.UUID, error) {
	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, errors.New(errInvalidToken)
	}
	return uuid.Parse(sub)
}

func parseTeamID(claims jwt.MapClaims) (*uuid.UUID, error) {
	raw, ok := claims["teamId"]
	if !ok || raw == nil {
		return nil, nil
	}
	text, ok := raw.(string)
	if !ok || text == "" {
		return nil, nil
	}
	parsed, err := uuid.Parse(text)
	if err != nil {
		return nil, err
	}
	return &parsed, nil
}

func abortUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(401, gin.H{"error": message})
}
