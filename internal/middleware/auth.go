package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/harentsoaR/medbook-api/internal/httperr"
	"github.com/harentsoaR/medbook-api/internal/models"
	"github.com/harentsoaR/medbook-api/internal/services"
	"github.com/harentsoaR/medbook-api/internal/utils"
)

const (
	userIDKey   = "userID"
	userRoleKey = "userRole"
)

// UserLookup resolves an external identity to a local account.
type UserLookup interface {
	FindUserByFirebaseUID(ctx context.Context, uid string) (*models.User, error)
}

// Authenticator accepts our own JWTs and, when configured, Firebase ID tokens.
type Authenticator struct {
	jwt      *utils.JWTManager
	identity services.IdentityVerifier
	users    UserLookup
}

func NewAuthenticator(jwt *utils.JWTManager, identity services.IdentityVerifier, users UserLookup) *Authenticator {
	return &Authenticator{jwt: jwt, identity: identity, users: users}
}

func (a *Authenticator) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			httperr.Send(c, http.StatusUnauthorized, httperr.CodeMissingToken, "Not authorized, no token")
			return
		}
		tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))

		claims, err := a.jwt.Validate(tokenString)
		if err == nil {
			c.Set(userIDKey, claims.UserID)
			c.Set(userRoleKey, claims.Role)
			c.Next()
			return
		}
		if errors.Is(err, utils.ErrTokenExpired) {
			httperr.Send(c, http.StatusUnauthorized, httperr.CodeTokenExpired, "Token expired, please login again")
			return
		}

		if a.identity != nil && a.users != nil {
			if user, ok := a.firebaseUser(c.Request.Context(), tokenString); ok {
				c.Set(userIDKey, user.ID.Hex())
				c.Set(userRoleKey, string(user.Role))
				c.Next()
				return
			}
		}
		httperr.Send(c, http.StatusUnauthorized, httperr.CodeInvalidToken, "Not authorized, token failed")
	}
}

func (a *Authenticator) firebaseUser(ctx context.Context, token string) (*models.User, bool) {
	id, err := a.identity.Verify(ctx, token)
	if err != nil {
		return nil, false
	}
	user, err := a.users.FindUserByFirebaseUID(ctx, id.UID)
	if err != nil {
		return nil, false
	}
	return user, true
}

// RequireRoles rejects users whose role is not in roles.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := CurrentRole(c)
		for _, r := range roles {
			if r == role {
				c.Next()
				return
			}
		}
		httperr.Send(c, http.StatusForbidden, httperr.CodeForbidden, "User role "+string(role)+" is not authorized to access this route")
	}
}

// CurrentUserID returns the authenticated user's id.
func CurrentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	hex := c.GetString(userIDKey)
	if hex == "" {
		return primitive.NilObjectID, false
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, false
	}
	return id, true
}

func CurrentRole(c *gin.Context) models.Role {
	return models.Role(c.GetString(userRoleKey))
}
