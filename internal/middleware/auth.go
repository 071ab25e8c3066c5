package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/casdoor/casdoor-go-sdk/casdoorsdk"
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/quiz-service/internal/config"
	"github.com/SAP-F-2025/quiz-service/internal/utils"
)

const (
	ContextUserID   = "user_id"
	ContextUserName = "user_name"
	ContextRoles    = "roles"
)

const (
	RoleAdmin      = "admin"
	RoleInstructor = "instructor"
)

// TokenParser validates a bearer token and returns its claims
type TokenParser func(token string) (*casdoorsdk.Claims, error)

// NewCasdoorParser configures the casdoor SDK and returns its JWT parser.
func NewCasdoorParser(cfg config.CasdoorConfig) TokenParser {
	casdoorsdk.InitConfig(
		cfg.Endpoint,
		cfg.ClientID,
		cfg.ClientSecret,
		cfg.Certificate,
		cfg.OrganizationName,
		cfg.ApplicationName,
	)
	return casdoorsdk.ParseJwtToken
}

// CasdoorAuth rejects requests without a valid bearer token and stores the
// caller's id under "user_id" and roles under "roles" in the gin context.
func CasdoorAuth(parse TokenParser, logger utils.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Missing bearer token"})
			return
		}

		claims, err := parse(strings.TrimSpace(token))
		if err != nil {
			logger.Warn("Rejected bearer token", "path", c.Request.URL.Path, "error", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Invalid token"})
			return
		}

		userID := claims.User.Id
		if userID == "" {
			userID = claims.Subject
		}
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token has no subject"})
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextUserName, claims.User.Name)
		c.Set(ContextRoles, rolesOf(claims))
		c.Next()
	}
}

// rolesOf collects the casdoor roles of a token, lowercased. Casdoor admins
// always carry the admin role.
func rolesOf(claims *casdoorsdk.Claims) []string {
	var roles []string
	if claims.User.IsAdmin {
		roles = append(roles, RoleAdmin)
	}
	for _, r := range claims.User.Roles {
		if r != nil && r.Name != "" {
			roles = append(roles, strings.ToLower(r.Name))
		}
	}
	return roles
}

// RequireRole lets through callers holding at least one of roles
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		held := c.GetStringSlice(ContextRoles)
		for _, r := range roles {
			if slices.Contains(held, r) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"message": "Insufficient role",
			"details": gin.H{"required": roles},
		})
	}
}
