package config

import "time"

// RedisConfig selects where suspended authentication attempts are kept.
// An empty URL keeps them in process memory.
type RedisConfig struct {
	URL        string        `env:"REDIS_URL" env-default:""`
	AttemptTTL time.Duration `env:"ATTEMPT_TTL" env-default:"5m"`
}

// Enabled reports whether attempts go to Redis
func (r RedisConfig) Enabled() bool {
	return r.URL != ""
}

func (r RedisConfig) Validate() ValidationErrors {
	errs := CollectErrors(RequirePositiveDuration("ATTEMPT_TTL", r.AttemptTTL))
	if err := WhenSet(r.URL, func() *ValidationError {
		return RequireValidURL("REDIS_URL", r.URL)
	}); err != nil {
		errs = append(errs, *err)
	}
	return errs
}
