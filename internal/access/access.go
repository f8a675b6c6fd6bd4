package access

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	stringadapter "github.com/casbin/casbin/v2/persist/string-adapter"
)

//go:embed model.conf
var modelConf string

//go:embed policy.csv
var policyCSV string

// Roles known to the API.
const (
	RoleAdmin    = "ADMIN"
	RoleStaff    = "STAFF"
	RoleKeuangan = "KEUANGAN"
)

// Capability is an "object:action" pair checked against the policy.
type Capability string

const (
	HomeAdmin     Capability = "home:admin"
	HomeUser      Capability = "home:user"
	ClientsManage Capability = "clients:manage"
	StaffsManage  Capability = "staffs:manage"
	JobsManage    Capability = "jobs:manage"
	JobsView      Capability = "jobs:view"
)

// Capabilities lists every capability the console checks.
var Capabilities = []Capability{HomeAdmin, HomeUser, ClientsManage, StaffsManage, JobsManage, JobsView}

func (c Capability) split() (obj, act string) {
	obj, act, _ = strings.Cut(string(c), ":")
	return obj, act
}

// Landing pages.
const (
	LoginPath     = "/login"
	AdminHomePath = "/dashboard/admin-home"
	UserHomePath  = "/dashboard/user-home"
)

// Permissions is the resolved capability set of one session.
type Permissions struct {
	Role string
	caps map[Capability]bool
}

// Can reports whether the capability was granted.
func (p Permissions) Can(c Capability) bool {
	return p.caps[c]
}

// CanString is Can for templates.
func (p Permissions) CanString(c string) bool {
	return p.caps[Capability(c)]
}

// LandingPath is where a session is sent when it asks for something it cannot have.
func (p Permissions) LandingPath() string {
	switch {
	case p.Can(HomeAdmin):
		return AdminHomePath
	case p.Can(HomeUser):
		return UserHomePath
	}
	return LoginPath
}

// Guard resolves roles into permissions and protects routes.
type Guard struct {
	enforcer *casbin.Enforcer
	mu       sync.RWMutex
	cache    map[string]Permissions
	nav      *NavConfig
}

// NewGuard loads the embedded model, policy and navigation.
func NewGuard() (*Guard, error) {
	m, err := model.NewModelFromString(modelConf)
	if err != nil {
		return nil, fmt.Errorf("access: model: %w", err)
	}
	enforcer, err := casbin.NewEnforcer(m, stringadapter.NewAdapter(policyCSV))
	if err != nil {
		return nil, fmt.Errorf("access: enforcer: %w", err)
	}
	nav, err := loadNav()
	if err != nil {
		return nil, err
	}
	return &Guard{enforcer: enforcer, cache: make(map[string]Permissions), nav: nav}, nil
}

// SubjectFromRole maps an API role onto a policy subject.
func SubjectFromRole(role string) string {
	role = strings.TrimSpace(strings.ToLower(role))
	if role == "" {
		role = "anonymous"
	}
	return "role:" + role
}

// Resolve computes the permissions for role once and caches them.
func (g *Guard) Resolve(role string) Permissions {
	role = strings.ToUpper(strings.TrimSpace(role))

	g.mu.RLock()
	p, ok := g.cache[role]
	g.mu.RUnlock()
	if ok {
		return p
	}

	p = Permissions{Role: role, caps: make(map[Capability]bool, len(Capabilities))}
	sub := SubjectFromRole(role)
	for _, c := range Capabilities {
		obj, act := c.split()
		allowed, err := g.enforcer.Enforce(sub, obj, act)
		if err == nil && allowed {
			p.caps[c] = true
		}
	}

	g.mu.Lock()
	g.cache[role] = p
	g.mu.Unlock()
	return p
}

type contextKey string

const permissionsKey contextKey = "permissions"

// WithPermissions stores p on ctx.
func WithPermissions(ctx context.Context, p Permissions) context.Context {
	return context.WithValue(ctx, permissionsKey, p)
}

// FromContext returns the permissions of the current request; ok is false
// when the request carries no session.
func FromContext(ctx context.Context) (Permissions, bool) {
	p, ok := ctx.Value(permissionsKey).(Permissions)
	return p, ok
}

// Require lets the request through only when every capability is granted.
// Requests without a session go to the login page; the rest go to their landing page.
func (g *Guard) Require(caps ...Capability) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			perms, ok := FromContext(r.Context())
			if !ok {
				http.Redirect(w, r, LoginPath, http.StatusSeeOther)
				return
			}
			for _, c := range caps {
				if !perms.Can(c) {
					http.Redirect(w, r, perms.LandingPath(), http.StatusSeeOther)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
