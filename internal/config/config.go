package config

import (
	"fmt"
	"os"
	"path"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v2"

	"github.com/gatehouse-dev/gatehouse/internal/domain"
)

type Config struct {
	Public  Public
	Private Private
	Tenants Tenants
}

type Public struct {
	Addr                 string        `yaml:"addr"`
	LogLevel             string        `yaml:"log_level"`
	LogJSON              bool          `yaml:"log_json"`
	SecureCookies        bool          `yaml:"secure_cookies"`
	JwtTTL               time.Duration `yaml:"jwt_ttl" validate:"required"`
	RuleRefreshInterval  time.Duration `yaml:"rule_refresh_interval"` // blacklist rule cache
	LastLoginInterval    time.Duration `yaml:"last_login_interval"`   // min gap between last-login writes
	TemplateFolder       string        `yaml:"template_folder"`       // markdown mail templates
	AvatarMaxSizeBytes   int64         `yaml:"avatar_max_size_bytes"`
	AvatarMaxPixelWidth  int           `yaml:"avatar_max_pixel_width"`
	AvatarMaxPixelHeight int           `yaml:"avatar_max_pixel_height"`
	AvatarFolder         string        `yaml:"avatar_folder"`
	AllowedOrigins       []string      `yaml:"allowed_origins"`

	// Routes maps route names used as redirect targets to URLs.
	Routes map[string]string `yaml:"routes"`
}

type Private struct {
	Pg     Pg     `yaml:"pg" validate:"required"`
	Email  Email  `yaml:"email"`
	JwtKey string `yaml:"jwt_key" validate:"required"`
}

type Pg struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"required"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname" validate:"required"`
}

type Email struct {
	SMTPServer string `yaml:"smtp_server"`
	SMTPPort   int    `yaml:"smtp_port"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
	SenderName string `yaml:"sender_name"`
	Timeout    int    `yaml:"timeout"` // seconds
}

// Tenants maps tenant keys to their workflow configuration. The set of
// keys is fixed at load time; the registry never mutates it.
type Tenants map[domain.TenantKey]*TenantConfig

type TenantConfig struct {
	// Key mirrors the map key so a config can be passed around alone.
	Key domain.TenantKey `yaml:"-"`

	From          string        `yaml:"from" validate:"required"`
	AdminEmails   []string      `yaml:"admin_emails"`
	DefaultLocale domain.Locale `yaml:"default_locale"`

	Actions map[string]ActionConfig `yaml:"actions"`
}

// ActionConfig is the behavior record for one workflow stage. A stage
// missing from the config is disabled.
type ActionConfig struct {
	Enabled         bool           `yaml:"enabled"`
	ActivateAccount bool           `yaml:"activate_account"`
	AutoLogin       bool           `yaml:"auto_login"`
	RedirectTo      string         `yaml:"redirect_to"`
	DeleteAccount   bool           `yaml:"delete_account"`
	Email           EmailTemplates `yaml:"email"`
}

// EmailTemplates points at the markdown templates for one stage. An
// empty template name means "do not send that email".
type EmailTemplates struct {
	Subject       string `yaml:"subject"`
	UserTemplate  string `yaml:"user_template"`
	AdminTemplate string `yaml:"admin_template"`
}

// Action returns the behavior record for the given stage. Unconfigured
// stages come back zero-valued, i.e. disabled.
func (t *TenantConfig) Action(action domain.ActionType) ActionConfig {
	return t.Actions[string(action)]
}

func (s *Config) JwtKey() string {
	return s.Private.JwtKey
}

func (s *Config) JwtTTL() time.Duration {
	return s.Public.JwtTTL
}

func loadPath(configPath string, output interface{}) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return fmt.Errorf("config file does not exist: %s", configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("can't read config file %s: %w", configPath, err)
	}
	if err := yaml.Unmarshal(configFile, output); err != nil {
		return fmt.Errorf("can't unmarshal config file %s: %w", configPath, err)
	}
	return nil
}

// Load reads public.yaml, private.yaml and tenants.yaml from the folder
// and validates the result eagerly, so a bad tenant or action name fails
// at startup instead of on the first request that hits it.
func Load(configFolder string) (*Config, error) {
	var public Public
	if err := loadPath(path.Join(configFolder, "public.yaml"), &public); err != nil {
		return nil, err
	}

	var private Private
	if err := loadPath(path.Join(configFolder, "private.yaml"), &private); err != nil {
		return nil, err
	}

	var tenants Tenants
	if err := loadPath(path.Join(configFolder, "tenants.yaml"), &tenants); err != nil {
		return nil, err
	}

	cfg := &Config{Public: public, Private: private, Tenants: tenants}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad(configFolder string) *Config {
	cfg, err := Load(configFolder)
	if err != nil {
		panic(err.Error())
	}
	return cfg
}

func (s *Config) validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(s.Public); err != nil {
		return fmt.Errorf("invalid public config: %w", err)
	}
	if err := validate.Struct(s.Private); err != nil {
		return fmt.Errorf("invalid private config: %w", err)
	}

	if len(s.Tenants) == 0 {
		return fmt.Errorf("no tenants configured")
	}

	valid := make(map[string]bool, len(domain.ActionTypes))
	for _, a := range domain.ActionTypes {
		valid[string(a)] = true
	}

	for key, tenant := range s.Tenants {
		if tenant == nil {
			return fmt.Errorf("tenant %q: empty configuration", key)
		}
		tenant.Key = key
		if err := validate.Struct(tenant); err != nil {
			return fmt.Errorf("tenant %q: %w", key, err)
		}
		for action, ac := range tenant.Actions {
			if !valid[action] {
				return fmt.Errorf("tenant %q: unknown action type %q", key, action)
			}
			// A stage that should mail users needs a subject to mail with.
			if ac.Enabled && ac.Email.Subject == "" && (ac.Email.UserTemplate != "" || ac.Email.AdminTemplate != "") {
				return fmt.Errorf("tenant %q: action %q has email templates but no subject", key, action)
			}
		}
	}
	return nil
}
