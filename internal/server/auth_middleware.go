package server

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"agora/internal/middleware"
	"agora/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenIssuer   = "agora-api"
	tokenAudience = "agora-client"
	tokenTTL      = 7 * 24 * time.Hour

	wsTicketPrefix  = "ws_ticket:"
	wsTicketTTL     = 30 * time.Second
	blacklistPrefix = "blacklist:"
)

var errTokenRevoked = errors.New("token revoked")

// tokenClaims is what AuthRequired learns from a valid token.
type tokenClaims struct {
	UserID    uint
	JTI       string
	ExpiresAt time.Time
}

// parseToken validates signature, issuer, audience and expiry, then checks
// the revocation list.
func (s *Server) parseToken(c *fiber.Ctx, tokenString string) (*tokenClaims, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	sub, err := claims.GetSubject()
	if err != nil {
		return nil, err
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return nil, fmt.Errorf("invalid subject %q", sub)
	}

	parsed := &tokenClaims{UserID: uint(userID)}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		parsed.ExpiresAt = exp.Time
	}
	if jti, ok := claims["jti"].(string); ok && jti != "" {
		parsed.JTI = jti
		if s.redis != nil {
			revoked, err := s.redis.Exists(c.UserContext(), blacklistPrefix+jti).Result()
			if err == nil && revoked > 0 {
				return nil, errTokenRevoked
			}
		}
	}
	return parsed, nil
}

func bearerToken(c *fiber.Ctx) string {
	parts := strings.Split(c.Get("Authorization"), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

func (s *Server) authenticate(c *fiber.Ctx, userID uint) {
	c.Locals("userID", userID)
	// Sync to UserContext for logging and downstream services
	c.SetUserContext(middleware.WithUserID(c.UserContext(), userID))
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		isWSPath := strings.HasPrefix(c.Path(), "/api/ws") && c.Path() != "/api/ws/ticket"

		// 1. WebSocket ticket (short-lived, single-use)
		if ticket := c.Query("ticket"); ticket != "" && s.redis != nil {
			userIDStr, err := s.redis.GetDel(c.UserContext(), wsTicketPrefix+ticket).Result()
			if err == nil {
				if userID, parseErr := strconv.ParseUint(userIDStr, 10, 32); parseErr == nil {
					s.authenticate(c, uint(userID))
					return c.Next()
				}
			}
			if isWSPath {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Invalid or expired WebSocket ticket"))
			}
		}

		// 2. JWT (Bearer header, or token query param outside WS routes)
		tokenString := bearerToken(c)
		if tokenString == "" && !isWSPath {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required."))
		}

		claims, err := s.parseToken(c, tokenString)
		if errors.Is(err, errTokenRevoked) {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Token has been revoked"))
		}
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		c.Locals("jti", claims.JTI)
		c.Locals("tokenExpiresAt", claims.ExpiresAt)
		s.authenticate(c, claims.UserID)
		return c.Next()
	}
}

// optionalUserID attempts to extract userID from Authorization header but does not enforce it.
func (s *Server) optionalUserID(c *fiber.Ctx) (uint, bool) {
	if uid, ok := c.Locals("userID").(uint); ok {
		return uid, true
	}
	tokenString := bearerToken(c)
	if tokenString == "" {
		return 0, false
	}
	claims, err := s.parseToken(c, tokenString)
	if err != nil {
		return 0, false
	}
	return claims.UserID, true
}

// AdminRequired returns middleware that rejects non-admin users with 403.
// Must be placed after AuthRequired so that userID is available in locals.
func (s *Server) AdminRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("userID").(uint)

		admin, err := s.accountService.IsAdmin(c.UserContext(), userID)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusInternalServerError, err)
		}
		if !admin {
			return models.RespondWithError(c, fiber.StatusForbidden,
				models.NewForbiddenError("Admin access required"))
		}
		return c.Next()
	}
}
