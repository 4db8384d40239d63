package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/ArowuTest/tripledigit-backend/internal/models"
	"github.com/ArowuTest/tripledigit-backend/internal/utils"
	"github.com/ArowuTest/tripledigit-backend/pkg/apperror"
	"github.com/ArowuTest/tripledigit-backend/pkg/response"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const bearerSchema = "Bearer "

// CtxPrincipal holds the *models.Principal of an authenticated request.
const CtxPrincipal = "principal"

// JWTAuth rejects requests without a valid session token and stores the
// caller in the gin context.
func JWTAuth(tokens *utils.TokenManager, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Abort(c, apperror.ErrMissingToken())
			return
		}
		if !strings.HasPrefix(authHeader, bearerSchema) {
			response.Abort(c, apperror.ErrInvalidToken())
			return
		}

		principal, err := tokens.Validate(strings.TrimSpace(authHeader[len(bearerSchema):]))
		if err != nil {
			log.Debug().Err(err).Str("path", c.Request.URL.Path).Msg("token rejected")
			if errors.Is(err, utils.ErrTokenExpired) {
				response.Abort(c, apperror.ErrTokenExpired())
				return
			}
			response.Abort(c, apperror.ErrInvalidToken())
			return
		}

		c.Set(CtxPrincipal, principal)
		c.Next()
	}
}

// AccountLoader resolves the current state of an authenticated account.
type AccountLoader interface {
	Me(ctx context.Context, accountID string) (*models.Account, error)
}

// RequireRole allows only callers holding role. It must run after JWTAuth.
// The token claim is checked first and then confirmed against the stored
// account, so a demoted account loses access before its token expires.
func RequireRole(role models.Role, accounts AccountLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := Principal(c)
		if !ok {
			response.Abort(c, apperror.ErrMissingToken())
			return
		}
		if p.Role != role {
			response.Abort(c, apperror.ErrForbidden())
			return
		}

		account, err := accounts.Me(c.Request.Context(), p.AccountID)
		if err != nil {
			if apperror.HasCode(err, apperror.CodeNotFound) {
				response.Abort(c, apperror.ErrInvalidToken())
				return
			}
			response.Abort(c, err)
			return
		}
		if account.Role != role {
			response.Abort(c, apperror.ErrForbidden())
			return
		}
		c.Next()
	}
}

// Principal returns the authenticated caller, if any.
func Principal(c *gin.Context) (*models.Principal, bool) {
	v, exists := c.Get(CtxPrincipal)
	if !exists {
		return nil, false
	}
	p, ok := v.(*models.Principal)
	return p, ok
}

// AccountID returns the caller's account id.
func AccountID(c *gin.Context) (primitive.ObjectID, error) {
	p, ok := Principal(c)
	if !ok {
		return primitive.NilObjectID, apperror.ErrMissingToken()
	}
	id, err := primitive.ObjectIDFromHex(p.AccountID)
	if err != nil {
		return primitive.NilObjectID, apperror.ErrInvalidToken()
	}
	return id, nil
}
