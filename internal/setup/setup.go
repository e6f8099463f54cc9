package setup

import (
	"github.com/gatehouse-dev/gatehouse/internal/blacklist"
	"github.com/gatehouse-dev/gatehouse/internal/config"
	"github.com/gatehouse-dev/gatehouse/internal/handler"
	"github.com/gatehouse-dev/gatehouse/internal/mail"
	"github.com/gatehouse-dev/gatehouse/internal/middleware"
	"github.com/gatehouse-dev/gatehouse/internal/service"
	"github.com/gatehouse-dev/gatehouse/internal/storage/fs"
	"github.com/gatehouse-dev/gatehouse/internal/storage/pg"
	"github.com/gatehouse-dev/gatehouse/internal/utils/jwt"
)

// Dependencies struct to hold all initialized dependencies.
type Dependencies struct {
	Config    *config.Config
	Storage   *pg.Storage
	Handler   *handler.Handler
	Auth      *middleware.Auth
	RuleCache *blacklist.RuleCache
	Jwt       jwt.JwtService
}

// SetupDependencies initializes all dependencies required for the application.
func SetupDependencies(cfg *config.Config) (*Dependencies, error) {
	storage, err := pg.New(cfg)
	if err != nil {
		return nil, err
	}

	ruleCache := blacklist.NewRuleCache(storage)
	if err := ruleCache.Update(); err != nil {
		return nil, err
	}

	sender := mail.NewSMTPSender(&cfg.Private.Email)
	mailer := mail.NewFactory(sender, cfg.Public.TemplateFolder)

	jwtService := jwt.New(cfg.JwtKey(), cfg.JwtTTL())

	avatars, err := fs.NewAvatarStore(cfg.Public.AvatarFolder)
	if err != nil {
		return nil, err
	}

	registry := service.NewRegistry(cfg.Tenants)
	routes := service.StaticRoutes(cfg.Public.Routes)
	workflow := service.NewWorkflow(registry, storage, ruleCache, mailer, jwtService, routes, avatars, cfg.Public.LastLoginInterval)
	rules := service.NewRuleService(registry, storage, ruleCache)

	h := handler.New(workflow, rules, storage, cfg)
	auth := middleware.NewAuth(jwtService, cfg.Public.SecureCookies)

	return &Dependencies{
		Config:    cfg,
		Storage:   storage,
		Handler:   h,
		Auth:      auth,
		RuleCache: ruleCache,
		Jwt:       jwtService,
	}, nil
}
