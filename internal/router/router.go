package router

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/noah-isme/courseflow-api/internal/handler"
	"github.com/noah-isme/courseflow-api/internal/middleware"
)

// Handlers groups every HTTP handler served by the API.
type Handlers struct {
	Auth        *handler.AuthHandler
	Departments *handler.DepartmentHandler
	Courses     *handler.CourseHandler
	Schedules   *handler.ScheduleHandler
	Complaints  *handler.ComplaintHandler
	Users       *handler.UserHandler
	Health      *handler.HealthHandler
	Metrics     *handler.MetricsHandler
}

// Options configures route registration.
type Options struct {
	Prefix      string
	Swagger     bool
	Permissions map[string]middleware.Rule
}

// Registrar attaches handlers together with the access rule declared for their route.
type Registrar struct {
	group      *gin.RouterGroup
	validator  middleware.TokenValidator
	rules      map[string]middleware.Rule
	registered map[string]struct{}
}

// NewRegistrar creates a registrar over group.
func NewRegistrar(group *gin.RouterGroup, validator middleware.TokenValidator, rules map[string]middleware.Rule) *Registrar {
	if rules == nil {
		rules = Permissions
	}
	return &Registrar{group: group, validator: validator, rules: rules, registered: map[string]struct{}{}}
}

// Handle registers the route guarded by its rule. It panics when the route has no rule.
func (r *Registrar) Handle(method, path string, h gin.HandlerFunc) {
	key := method + " " + path
	rule, ok := r.rules[key]
	if !ok {
		panic(fmt.Sprintf("router: no permission rule for %s", key))
	}
	r.registered[key] = struct{}{}
	r.group.Handle(method, path, middleware.Authorize(r.validator, rule), h)
}

// Unregistered lists the rules that no route claimed.
func (r *Registrar) Unregistered() []string {
	var missing []string
	for key := range r.rules {
		if _, ok := r.registered[key]; !ok {
			missing = append(missing, key)
		}
	}
	sort.Strings(missing)
	return missing
}

// Setup registers every route on engine under opts.Prefix.
func Setup(engine *gin.Engine, validator middleware.TokenValidator, h Handlers, opts Options) *Registrar {
	api := engine.Group(opts.Prefix)
	r := NewRegistrar(api, validator, opts.Permissions)

	r.Handle(http.MethodGet, "/health", h.Health.Check)
	r.Handle(http.MethodGet, "/health/simple", h.Health.Simple)
	r.Handle(http.MethodGet, "/health/database", h.Health.Database)
	r.Handle(http.MethodGet, "/health/readiness", h.Health.Readiness)
	r.Handle(http.MethodGet, "/health/liveness", h.Health.Liveness)
	r.Handle(http.MethodGet, "/metrics", h.Metrics.Prometheus)

	r.Handle(http.MethodPost, "/auth/register", h.Auth.Register)
	r.Handle(http.MethodPost, "/auth/login", h.Auth.Login)
	r.Handle(http.MethodPost, "/auth/forgot-password", h.Auth.ForgotPassword)
	r.Handle(http.MethodPost, "/auth/reset-password", h.Auth.ResetPassword)
	r.Handle(http.MethodGet, "/auth/me", h.Auth.Me)
	r.Handle(http.MethodPost, "/auth/verification-codes", h.Auth.CreateVerificationCode)
	r.Handle(http.MethodGet, "/auth/verification-codes", h.Auth.ListVerificationCodes)
	r.Handle(http.MethodGet, "/auth/verification-codes/:id", h.Auth.GetVerificationCode)
	r.Handle(http.MethodPatch, "/auth/verification-codes/:id", h.Auth.UpdateVerificationCode)
	r.Handle(http.MethodDelete, "/auth/verification-codes/:id", h.Auth.DeleteVerificationCode)

	d := h.Departments
	r.Handle(http.MethodPost, "/departments", d.Create)
	r.Handle(http.MethodGet, "/departments", d.List)
	r.Handle(http.MethodGet, "/departments/statistics", d.Statistics)
	r.Handle(http.MethodGet, "/departments/search/:term", d.Search)
	r.Handle(http.MethodGet, "/departments/with-courses", d.WithCourses)
	r.Handle(http.MethodGet, "/departments/without-courses", d.WithoutCourses)
	r.Handle(http.MethodGet, "/departments/with-course-count", d.WithCourseCount)
	r.Handle(http.MethodPost, "/departments/bulk/upload", d.BulkUpload)
	r.Handle(http.MethodGet, "/departments/bulk/template", d.Template)
	r.Handle(http.MethodGet, "/departments/:code", d.Get)
	r.Handle(http.MethodGet, "/departments/:code/full-details", d.FullDetails)
	r.Handle(http.MethodPatch, "/departments/:code", d.Update)
	r.Handle(http.MethodDelete, "/departments/:code", d.Remove)

	c := h.Courses
	r.Handle(http.MethodPost, "/courses", c.Create)
	r.Handle(http.MethodGet, "/courses", c.List)
	r.Handle(http.MethodGet, "/courses/statistics", c.Statistics)
	r.Handle(http.MethodGet, "/courses/department/:departmentCode", c.ByDepartment)
	r.Handle(http.MethodGet, "/courses/level/:level", c.ByLevel)
	r.Handle(http.MethodGet, "/courses/search/:term", c.Search)
	r.Handle(http.MethodGet, "/courses/credits/:min/:max", c.ByCreditRange)
	r.Handle(http.MethodGet, "/courses/without-schedules", c.WithoutSchedules)
	r.Handle(http.MethodPost, "/courses/bulk/upload", c.BulkUpload)
	r.Handle(http.MethodGet, "/courses/bulk/template", c.Template)
	r.Handle(http.MethodGet, "/courses/:code", c.Get)
	r.Handle(http.MethodPatch, "/courses/:code", c.Update)
	r.Handle(http.MethodDelete, "/courses/:code", c.Remove)

	s := h.Schedules
	r.Handle(http.MethodPost, "/schedules", s.Create)
	r.Handle(http.MethodGet, "/schedules", s.List)
	r.Handle(http.MethodGet, "/schedules/statistics", s.Statistics)
	r.Handle(http.MethodGet, "/schedules/export", s.Export)
	r.Handle(http.MethodGet, "/schedules/time-range", s.TimeRange)
	r.Handle(http.MethodGet, "/schedules/course/:courseCode", s.ByCourse)
	r.Handle(http.MethodGet, "/schedules/department/:departmentCode", s.ByDepartment)
	r.Handle(http.MethodGet, "/schedules/level/:level", s.ByLevel)
	r.Handle(http.MethodGet, "/schedules/day/:dayOfWeek", s.ByDay)
	r.Handle(http.MethodGet, "/schedules/venue/:venue", s.ByVenue)
	r.Handle(http.MethodGet, "/schedules/type/:type", s.ByType)
	r.Handle(http.MethodPost, "/schedules/bulk/upload", s.BulkUpload)
	r.Handle(http.MethodGet, "/schedules/bulk/template", s.Template)
	r.Handle(http.MethodGet, "/schedules/:id", s.Get)
	r.Handle(http.MethodPatch, "/schedules/:id", s.Update)
	r.Handle(http.MethodDelete, "/schedules/:id", s.Remove)

	cp := h.Complaints
	r.Handle(http.MethodPost, "/complaints", cp.Create)
	r.Handle(http.MethodGet, "/complaints", cp.List)
	r.Handle(http.MethodGet, "/complaints/pending", cp.Pending)
	r.Handle(http.MethodGet, "/complaints/resolved", cp.Resolved)
	r.Handle(http.MethodGet, "/complaints/my-complaints", cp.Mine)
	r.Handle(http.MethodGet, "/complaints/:id", cp.Get)
	r.Handle(http.MethodPatch, "/complaints/:id", cp.Update)
	r.Handle(http.MethodDelete, "/complaints/:id", cp.Remove)

	u := h.Users
	r.Handle(http.MethodPost, "/users", u.Create)
	r.Handle(http.MethodGet, "/users", u.List)
	r.Handle(http.MethodGet, "/users/:matricNO", u.Get)
	r.Handle(http.MethodPatch, "/users/:matricNO", u.Update)
	r.Handle(http.MethodDelete, "/users/:matricNO", u.Remove)

	if opts.Swagger {
		api.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	return r
}
