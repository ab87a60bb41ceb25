package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/courseflow-api/internal/models"
	appErrors "github.com/noah-isme/courseflow-api/pkg/errors"
	"github.com/noah-isme/courseflow-api/pkg/response"
)

// Rule describes who may call a route. A rule that is neither public nor lists roles
// admits any authenticated user.
type Rule struct {
	Public bool
	Roles  []models.Role
}

// Allows reports whether role satisfies the rule for an authenticated caller.
func (r Rule) Allows(role models.Role) bool {
	if r.Public || len(r.Roles) == 0 {
		return true
	}
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

// Authorize enforces rule, authenticating the caller first unless the route is public.
func Authorize(validator TokenValidator, rule Rule) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rule.Public {
			c.Next()
			return
		}
		claims, err := authenticate(c, validator)
		if err != nil {
			response.Abort(c, err)
			return
		}
		if !rule.Allows(claims.Role) {
			response.Abort(c, appErrors.ErrForbidden)
			return
		}
		c.Next()
	}
}
