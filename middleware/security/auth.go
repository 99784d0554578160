package security

import (
	"net/http"
	"strings"

	"ChatWave/tools/errs"
	sec "ChatWave/tools/security"

	"github.com/gin-gonic/gin"
)

// Context keys downstream handlers read the authenticated identity from.
const (
	CtxUserIDKey = "authUserID"
	CtxTokenKey  = "authToken"
)

type Options struct {
	JWT sec.Options

	// HeaderToken is the header carrying a bare token. "Authorization: Bearer"
	// is always accepted as well.
	HeaderToken string
}

func DefaultOptions(jwt sec.Options) *Options {
	return &Options{JWT: jwt, HeaderToken: "authorization"}
}

// Middleware rejects requests without a verifiable token and stores the
// subject and raw token in the gin context.
func Middleware(opts *Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(opts.HeaderToken))

		if token == "" {
			if authz := strings.TrimSpace(c.GetHeader("Authorization")); authz != "" {
				if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
					token = strings.TrimSpace(authz[len("bearer "):])
				}
			}
		}
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
			return
		}

		claims, err := sec.Verify(opts.JWT, token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
			return
		}
		sub := claims.Subject()
		if sub == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errs.ErrTokenInvalid)
			return
		}

		c.Set(CtxUserIDKey, sub)
		c.Set(CtxTokenKey, token)
		c.Next()
	}
}

// UserID reads the authenticated subject set by Middleware.
func UserID(c *gin.Context) string {
	return c.GetString(CtxUserIDKey)
}

// Token reads the raw bearer token set by Middleware.
func Token(c *gin.Context) string {
	return c.GetString(CtxTokenKey)
}
