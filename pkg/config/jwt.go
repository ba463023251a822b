package config

// JWTConfig holds the HS256 secret that device-management bearer tokens are verified with
type JWTConfig struct {
	Secret string `env:"JWT_SECRET" env-default:"very-secure-jwt-secret"`
}

// Validate requires a secret, and a 32 byte one in production
func (j JWTConfig) Validate() ValidationErrors {
	errs := CollectErrors(RequireNonEmpty("JWT_SECRET", j.Secret))
	if IsProduction() {
		errs = append(errs, CollectErrors(RequireMinLength("JWT_SECRET", j.Secret, 32))...)
	}
	return errs
}
