package iamcontainer

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/libromesh/identity/pkg/audit"
	"github.com/libromesh/identity/pkg/audit/auditinfra"
	"github.com/libromesh/identity/pkg/config"
	"github.com/libromesh/identity/pkg/iam/auth/authapi"
	"github.com/libromesh/identity/pkg/iam/auth/authsrv"
	"github.com/libromesh/identity/pkg/iam/role/roleapi"
	"github.com/libromesh/identity/pkg/iam/role/rolesrv"
	"github.com/libromesh/identity/pkg/iam/user/userapi"
	"github.com/libromesh/identity/pkg/iam/user/usersrv"
	"github.com/libromesh/identity/pkg/idp"
	"github.com/libromesh/identity/pkg/logx"
	"github.com/libromesh/identity/pkg/notifx"
	"github.com/libromesh/identity/pkg/ratelimit"
	"github.com/libromesh/identity/pkg/ratelimit/ratelimitredis"
	"github.com/redis/go-redis/v9"
)

// ---------------------------------------------------------------------------
// Deps: explicit external dependencies this bounded context requires.
// No hidden globals, no ambient state — everything comes through here.
// ---------------------------------------------------------------------------

type Deps struct {
	Cfg *config.Config

	// DB backs the optional Postgres audit trail; nil keeps the logx recorder.
	DB *sqlx.DB

	// Redis backs the optional login rate limiter; nil keeps the noop limiter.
	Redis *redis.Client

	// Notifier sends account-created emails; nil disables notifications.
	Notifier *notifx.Client
}

// ---------------------------------------------------------------------------
// Container: the public surface of the identity module.
// Only expose what cmd/ actually needs.
// ---------------------------------------------------------------------------

type Container struct {
	// IdP adapter — exposed for the health endpoint's reachability probe.
	IdP *idp.Client

	// Services
	AuthService *authsrv.AuthService
	UserService *usersrv.UserService
	RoleService *rolesrv.RoleService

	// API handlers — needed by cmd/ to register routes
	AuthHandlers *authapi.Handlers
	UserHandlers *userapi.Handlers
	RoleHandlers *roleapi.Handlers
}

// New constructs the identity dependency graph: adapter → infra → services →
// handlers.
func New(deps Deps) *Container {
	logx.Info("🔧 Initializing identity container...")

	c := &Container{}

	// ── IdP adapter ──────────────────────────────────────────────────────

	c.IdP = idp.NewClient(deps.Cfg.Keycloak)

	// ── Infrastructure ───────────────────────────────────────────────────

	var recorder audit.Recorder
	if deps.DB != nil {
		pg := auditinfra.NewPostgresRecorder(deps.DB)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			logx.Warnf("  ⚠️  Audit schema check failed: %v", err)
		}
		recorder = pg
		logx.Info("  ✅ Postgres audit recorder enabled")
	} else {
		recorder = auditinfra.NewLogxRecorder()
		logx.Info("  ✅ Logx audit recorder enabled")
	}

	var limiter ratelimit.Limiter
	if deps.Redis != nil {
		limiter = ratelimitredis.NewFixedWindow(
			deps.Redis,
			deps.Cfg.Redis.LoginLimit,
			deps.Cfg.Redis.LoginWindow,
		)
		logx.Info("  ✅ Redis login rate limiter enabled")
	} else {
		limiter = ratelimit.NewNoop()
		logx.Warn("  ⚠️  Login rate limiting disabled (no Redis configured)")
	}

	// ── Domain services ──────────────────────────────────────────────────

	c.AuthService = authsrv.NewAuthService(c.IdP, c.IdP, limiter, recorder, deps.Notifier)
	c.UserService = usersrv.NewUserService(c.IdP, deps.Cfg.Keycloak.AdminWorkers, recorder, deps.Notifier)
	c.RoleService = rolesrv.NewRoleService(c.IdP)

	// ── API handlers ─────────────────────────────────────────────────────

	c.AuthHandlers = authapi.NewHandlers(c.AuthService)
	c.UserHandlers = userapi.NewHandlers(c.UserService)
	c.RoleHandlers = roleapi.NewHandlers(c.RoleService)

	logx.Info("✅ Identity container initialized")
	return c
}

// SeedRoles ensures the default role catalog exists. Called from cmd/ when
// SEED_ROLES is enabled.
func (c *Container) SeedRoles(ctx context.Context) error {
	return c.RoleService.Seed(ctx)
}
