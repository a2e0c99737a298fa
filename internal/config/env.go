package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	defaultJWTSecret          = "transportdesk-dev-secret-change-me"
	defaultDispatcherUsername = "admin"
	defaultDispatcherPassword = "admin"
)

type Env struct {
	AppAddr            string        `validate:"required"`
	GinMode            string        `validate:"omitempty,oneof=debug release test"`
	DBDriver           string        `validate:"oneof=mysql postgres memory"`
	DBDSN              string        `validate:"required_unless=DBDriver memory"`
	JWTSecret          string        `validate:"required,min=16"`
	DispatcherUsername string        `validate:"required"`
	DispatcherPassHash string        `validate:"required"`
	SessionTTL         time.Duration `validate:"gt=0"`
	CORSAllowedOrigins []string
	Location           *time.Location `validate:"required"`
	LogFormat          string         `validate:"oneof=console json"`

	// Warnings lists insecure development defaults that were applied.
	Warnings []string
}

// LoadEnv reads .env (when present) and the process environment.
func LoadEnv() (Env, error) {
	_ = godotenv.Load()

	env := Env{
		AppAddr:            getEnv("APP_ADDR", ":8080"),
		GinMode:            getEnv("GIN_MODE", ""),
		DBDriver:           strings.ToLower(getEnv("DB_DRIVER", "memory")),
		DBDSN:              getEnv("DB_DSN", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		DispatcherUsername: getEnv("DISPATCHER_USERNAME", defaultDispatcherUsername),
		DispatcherPassHash: getEnv("DISPATCHER_PASSWORD_HASH", ""),
		LogFormat:          strings.ToLower(getEnv("LOG_FORMAT", "console")),
	}

	if env.DBDriver == "mysql" && env.DBDSN == "" {
		env.DBDSN = "root:@tcp(127.0.0.1:3306)/transportdesk"
	}

	if env.JWTSecret == "" {
		env.JWTSecret = defaultJWTSecret
		env.Warnings = append(env.Warnings, "JWT_SECRET not set, using the development secret")
	}

	if env.DispatcherPassHash == "" {
		password := getEnv("DISPATCHER_PASSWORD", "")
		if password == "" {
			password = defaultDispatcherPassword
			env.Warnings = append(env.Warnings, "DISPATCHER_PASSWORD not set, using the development password")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return env, fmt.Errorf("load env: hash dispatcher password: %w", err)
		}
		env.DispatcherPassHash = string(hash)
	}

	ttl, err := time.ParseDuration(getEnv("SESSION_TTL", "24h"))
	if err != nil {
		return env, fmt.Errorf("load env: SESSION_TTL: %w", err)
	}
	env.SessionTTL = ttl

	loc, err := time.LoadLocation(getEnv("TIMEZONE", "Local"))
	if err != nil {
		return env, fmt.Errorf("load env: TIMEZONE: %w", err)
	}
	env.Location = loc

	if origins := getEnv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				env.CORSAllowedOrigins = append(env.CORSAllowedOrigins, o)
			}
		}
	} else {
		env.CORSAllowedOrigins = []string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
			"http://localhost:5173",
			"http://127.0.0.1:5173",
		}
	}

	if err := Validate(env); err != nil {
		return env, err
	}
	return env, nil
}

// Validate checks struct rules plus the release-mode guard against development secrets.
func Validate(env Env) error {
	if err := validator.New().Struct(env); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if env.GinMode == "release" && env.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("invalid configuration: JWT_SECRET must be set in release mode")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
