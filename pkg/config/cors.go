package config

// CORSConfig lists the browser origins allowed to call the API. An empty
// list disables CORS handling.
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" env-separator:","`
	MaxAge         int      `env:"CORS_MAX_AGE" env-default:"300"`
}

// Enabled reports whether CORS headers are served
func (c CORSConfig) Enabled() bool {
	return len(c.AllowedOrigins) > 0
}
