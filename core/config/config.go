package config

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Config holds all application configuration in a structured way. It is
// loaded exactly once at startup (LoadConfig) into an immutable value;
// nothing in the gateway mutates it afterwards.
type Config struct {
	App        AppConfig
	MCP        MCPConfig
	Paths      PathsConfig
	Database   DatabaseConfig
	Security   SecurityConfig
	Providers  ProvidersConfig
	Defaults   DefaultsConfig
	Hardening  HardeningConfig
}

type AppConfig struct {
	Version     string
	Port        string
	Debug       bool
	Environment string
	DemoMode    bool
	BaseUrl     string
	ServerID    string
}

type MCPConfig struct {
	Port string
	Host string
}

type PathsConfig struct {
	BaseDir  string
	Statics  string
	Storages string
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string // file path for SQLite, DB name for Postgres

	ValkeyEnabled   bool
	ValkeyAddress   string
	ValkeyPassword  string
	ValkeyDB        int
	ValkeyKeyPrefix string
}

// SecurityConfig carries the admin bearer token, the at-rest credential
// encryption key, and the JWT signing secret for user-account sessions.
type SecurityConfig struct {
	MasterSecurityToken   string
	CredentialsEncryptKey string
	JWTSecret             string
}

// ProvidersConfig carries the third-party credentials named in spec §6.
// Whether mock or live adapters are wired is decided by DemoMode alone,
// not by which credentials are present.
type ProvidersConfig struct {
	TwilioAccountSID  string
	TwilioAuthToken   string
	ResendAPIKey      string
	ElevenLabsAPIKey  string
	AnthropicAPIKey   string
	LineChannelSecret string
}

type DefaultsConfig struct {
	EmailDomain    string
	VoiceGreeting  string
	VoiceVoice     string
	VoiceLanguage  string
	IdentityMode   string
	IsolationMode  string
	AdminAlertEmail string
	AdminAlertPhone string
}

type HardeningConfig struct {
	AdminIPAllowlist   []string
	IPDenylist         []string
	CORSAllowedOrigins []string
	HTTPRateLimitPerIP int
}

// Global provides legacy-style package-level access for code that predates
// dependency-injected config (teacher parity); new code should prefer the
// *Config value threaded in from cmd/.
var Global *Config

// LoadConfig loads configuration from environment variables, falling back
// to documented defaults. Demo mode relaxes several defaults so the
// gateway can be exercised with zero external credentials.
func LoadConfig() (*Config, error) {
	demoMode := getEnvBool("DEMO_MODE", true)

	baseDir := getEnv("APP_BASE_DIR", "storages")

	appCfg := AppConfig{
		Version:     "v1.0.0",
		Port:        getEnv("APP_PORT", "3000"),
		Debug:       getEnvBool("APP_DEBUG", false),
		Environment: getEnv("APP_ENV", "development"),
		DemoMode:    demoMode,
		BaseUrl:     getEnv("WEBHOOK_BASE_URL", "http://localhost:3000"),
		ServerID:    getEnv("SERVER_ID", ""),
	}

	pathsCfg := PathsConfig{
		BaseDir:  baseDir,
		Statics:  getEnv("PATH_STATICS", filepath.Join(baseDir, "statics")),
		Storages: baseDir,
	}

	dbDriver := getEnv("DB_DRIVER", "sqlite")
	dbCfg := DatabaseConfig{
		Driver:          dbDriver,
		Name:            getEnv("DB_NAME", filepath.Join(pathsCfg.Storages, "gateway.db")),
		Host:            getEnv("DB_HOST", "localhost"),
		Port:            getEnvInt("DB_PORT", 5432),
		User:            getEnv("DB_USER", "postgres"),
		Password:        getEnv("DB_PASSWORD", ""),
		ValkeyEnabled:   getEnvBool("VALKEY_ENABLED", false),
		ValkeyAddress:   getEnv("VALKEY_ADDRESS", "localhost:6379"),
		ValkeyPassword:  getEnv("VALKEY_PASSWORD", ""),
		ValkeyDB:        getEnvInt("VALKEY_DB", 0),
		ValkeyKeyPrefix: getEnv("VALKEY_KEY_PREFIX", "gw:"),
	}

	secCfg := SecurityConfig{
		MasterSecurityToken:   getEnv("MASTER_SECURITY_TOKEN", ""),
		CredentialsEncryptKey: getEnv("CREDENTIALS_ENCRYPTION_KEY", ""),
		JWTSecret:             getEnv("JWT_SECRET", "change-me-in-production"),
	}
	if secCfg.MasterSecurityToken == "" && demoMode {
		secCfg.MasterSecurityToken = "demo-master-token"
	}

	providersCfg := ProvidersConfig{
		TwilioAccountSID: getEnv("TWILIO_ACCOUNT_SID", ""),
		TwilioAuthToken:  getEnv("TWILIO_AUTH_TOKEN", ""),
		ResendAPIKey:     getEnv("RESEND_API_KEY", ""),
		ElevenLabsAPIKey: getEnv("ELEVENLABS_API_KEY", ""),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		LineChannelSecret: getEnv("LINE_CHANNEL_SECRET", ""),
	}

	defaultsCfg := DefaultsConfig{
		EmailDomain:   getEnv("EMAIL_DEFAULT_DOMAIN", "agents.example.com"),
		VoiceGreeting: getEnv("VOICE_DEFAULT_GREETING", "Hello, how can I help you today?"),
		VoiceVoice:    getEnv("VOICE_DEFAULT_VOICE", "default"),
		VoiceLanguage: getEnv("VOICE_DEFAULT_LANGUAGE", "en-US"),
		IdentityMode:  getEnv("IDENTITY_MODE", "dedicated"),
		IsolationMode: getEnv("ISOLATION_MODE", "single-account"),
		AdminAlertEmail: getEnv("ADMIN_ALERT_EMAIL", ""),
		AdminAlertPhone: getEnv("ADMIN_ALERT_PHONE", ""),
	}

	var adminAllow, denylist, cors []string
	if v := getEnv("ADMIN_IP_ALLOWLIST", ""); v != "" {
		adminAllow = strings.Split(v, ",")
	}
	if v := getEnv("IP_DENYLIST", ""); v != "" {
		denylist = strings.Split(v, ",")
	}
	corsOrigins := []string{"http://localhost:3000"}
	if v := getEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		corsOrigins = strings.Split(v, ",")
	}
	cors = corsOrigins

	hardeningCfg := HardeningConfig{
		AdminIPAllowlist:   adminAllow,
		IPDenylist:         denylist,
		CORSAllowedOrigins: cors,
		HTTPRateLimitPerIP: getEnvInt("HTTP_RATE_LIMIT_PER_IP", 120),
	}

	cfg := &Config{
		App:      appCfg,
		MCP:      MCPConfig{Port: getEnv("MCP_PORT", "8080"), Host: getEnv("MCP_HOST", "localhost")},
		Paths:    pathsCfg,
		Database: dbCfg,
		Security: secCfg,
		Providers: providersCfg,
		Defaults: defaultsCfg,
		Hardening: hardeningCfg,
	}

	if cfg.Database.Driver != "sqlite" && cfg.Database.Driver != "postgres" && cfg.Database.Driver != "" {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}

	Global = cfg
	return cfg, nil
}
