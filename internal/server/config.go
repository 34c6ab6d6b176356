package server

import "time"

// Config holds the HTTP API settings.
type Config struct {
	Addr      string `env:"ADDR" envDefault:":8080"`
	PublicURL string `env:"PUBLIC_URL" envDefault:"http://localhost:8080"`
	JWTSecret string `env:"JWT_SECRET,required"`

	// Browser origins allowed to call the API with cookies.
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000"`

	// Seed admin account, created on startup when both are set.
	AdminUsername string `env:"ADMIN_USERNAME"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	AdminEmail    string `env:"ADMIN_EMAIL"`

	TokenTTL        time.Duration `env:"TOKEN_TTL" envDefault:"168h"`
	VerifyTTL       time.Duration `env:"VERIFY_TTL" envDefault:"24h"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`

	// AutoVerify enables new accounts without e-mail verification.
	AutoVerify    bool `env:"AUTO_VERIFY"`
	SecureCookies bool `env:"SECURE_COOKIES"`
}
