package middleware

import (
	"net/http"
	"strings"

	"freightflow/internal/model"
	"freightflow/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const requestContextKey = "requestContext"

// RequireAuth validates the bearer token and resolves the tenancy/identity
// claims into a RequestContext stored on the gin context. Every protected
// route runs behind this; handlers fetch the context with GetRequestContext.
func RequireAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, cookieErr := c.Cookie("access_token")
		if cookieErr != nil || tokenString == "" {
			authHeader := c.GetHeader("Authorization")
			if authHeader == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid authorization format. Expected 'Bearer <token>'"))
				return
			}
			tokenString = parts[1]
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token"))
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims"))
			return
		}

		rc, err := contextFromClaims(claims)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid token claims: "+err.Error()))
			return
		}

		c.Set(requestContextKey, rc)
		c.Next()
	}
}

// RequireRole restricts a route to the listed roles. Must run after
// RequireAuth.
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		rc, ok := GetRequestContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authorization is missing"))
			return
		}

		for _, role := range allowedRoles {
			if rc.Role == role {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
	}
}

// GetRequestContext returns the RequestContext resolved by RequireAuth.
func GetRequestContext(c *gin.Context) (model.RequestContext, bool) {
	value, exists := c.Get(requestContextKey)
	if !exists {
		return model.RequestContext{}, false
	}
	rc, ok := value.(model.RequestContext)
	return rc, ok
}

func contextFromClaims(claims jwt.MapClaims) (model.RequestContext, error) {
	orgID, err := claimUUID(claims, "org_id")
	if err != nil {
		return model.RequestContext{}, err
	}
	branchID, err := claimUUID(claims, "branch_id")
	if err != nil {
		return model.RequestContext{}, err
	}
	userID, err := claimUUID(claims, "sub")
	if err != nil {
		return model.RequestContext{}, err
	}

	role, _ := claims["role"].(string)
	if role != model.RoleAdmin && role != model.RoleManager && role != model.RoleOperator {
		return model.RequestContext{}, jwt.ErrTokenInvalidClaims
	}

	return model.RequestContext{
		OrganizationID: orgID,
		BranchID:       branchID,
		Role:           role,
		UserID:         userID,
	}, nil
}

func claimUUID(claims jwt.MapClaims, key string) (uuid.UUID, error) {
	raw, _ := claims[key].(string)
	return uuid.Parse(raw)
}
