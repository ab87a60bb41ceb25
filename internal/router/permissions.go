package router

import (
	"github.com/noah-isme/courseflow-api/internal/middleware"
	"github.com/noah-isme/courseflow-api/internal/models"
)

var (
	public        = middleware.Rule{Public: true}
	authenticated = middleware.Rule{}
	adminOnly     = middleware.Rule{Roles: []models.Role{models.RoleAdmin}}
	staff         = middleware.Rule{Roles: []models.Role{models.RoleAdmin, models.RoleLecturer}}
)

// Permissions maps "METHOD /path" (relative to the API prefix) to its access rule.
// A route missing from this table cannot be registered.
var Permissions = map[string]middleware.Rule{
	"GET /health":           public,
	"GET /health/simple":    public,
	"GET /health/database":  public,
	"GET /health/readiness": public,
	"GET /health/liveness":  public,
	"GET /metrics":          public,

	"POST /auth/register":                 public,
	"POST /auth/login":                    public,
	"POST /auth/forgot-password":          public,
	"POST /auth/reset-password":           public,
	"GET /auth/me":                        authenticated,
	"POST /auth/verification-codes":       adminOnly,
	"GET /auth/verification-codes":        adminOnly,
	"GET /auth/verification-codes/:id":    adminOnly,
	"PATCH /auth/verification-codes/:id":  adminOnly,
	"DELETE /auth/verification-codes/:id": adminOnly,

	"POST /departments":                   adminOnly,
	"GET /departments":                    public,
	"GET /departments/statistics":         public,
	"GET /departments/search/:term":       public,
	"GET /departments/with-courses":       public,
	"GET /departments/without-courses":    public,
	"GET /departments/with-course-count":  public,
	"POST /departments/bulk/upload":       adminOnly,
	"GET /departments/bulk/template":      public,
	"GET /departments/:code":              public,
	"GET /departments/:code/full-details": public,
	"PATCH /departments/:code":            adminOnly,
	"DELETE /departments/:code":           adminOnly,

	"POST /courses":                           staff,
	"GET /courses":                            public,
	"GET /courses/statistics":                 public,
	"GET /courses/department/:departmentCode": public,
	"GET /courses/level/:level":               public,
	"GET /courses/search/:term":               public,
	"GET /courses/credits/:min/:max":          public,
	"GET /courses/without-schedules":          public,
	"POST /courses/bulk/upload":               staff,
	"GET /courses/bulk/template":              public,
	"GET /courses/:code":                      public,
	"PATCH /courses/:code":                    staff,
	"DELETE /courses/:code":                   adminOnly,

	"POST /schedules":                           staff,
	"GET /schedules":                            public,
	"GET /schedules/statistics":                 public,
	"GET /schedules/export":                     public,
	"GET /schedules/time-range":                 public,
	"GET /schedules/course/:courseCode":         public,
	"GET /schedules/department/:departmentCode": public,
	"GET /schedules/level/:level":               public,
	"GET /schedules/day/:dayOfWeek":             public,
	"GET /schedules/venue/:venue":               public,
	"GET /schedules/type/:type":                 public,
	"POST /schedules/bulk/upload":               staff,
	"GET /schedules/bulk/template":              public,
	"GET /schedules/:id":                        public,
	"PATCH /schedules/:id":                      staff,
	"DELETE /schedules/:id":                     adminOnly,

	"POST /complaints":              authenticated,
	"GET /complaints":               adminOnly,
	"GET /complaints/pending":       adminOnly,
	"GET /complaints/resolved":      adminOnly,
	"GET /complaints/my-complaints": authenticated,
	"GET /complaints/:id":           authenticated,
	"PATCH /complaints/:id":         adminOnly,
	"DELETE /complaints/:id":        adminOnly,

	"POST /users":             adminOnly,
	"GET /users":              adminOnly,
	"GET /users/:matricNO":    adminOnly,
	"PATCH /users/:matricNO":  adminOnly,
	"DELETE /users/:matricNO": adminOnly,
}
