package config

import "time"

// RateLimitConfig sizes the token buckets of the authentication endpoint
// (per client IP) and the device-management API (per token subject)
type RateLimitConfig struct {
	Enabled         bool          `env:"RATE_LIMIT_ENABLED" env-default:"true"`
	AuthBurst       int           `env:"RATE_LIMIT_AUTH_BURST" env-default:"20"`
	AuthPerMinute   float64       `env:"RATE_LIMIT_AUTH_PER_MINUTE" env-default:"30"`
	DeviceBurst     int           `env:"RATE_LIMIT_DEVICE_BURST" env-default:"50"`
	DevicePerMinute float64       `env:"RATE_LIMIT_DEVICE_PER_MINUTE" env-default:"120"`
	BucketTTL       time.Duration `env:"RATE_LIMIT_BUCKET_TTL" env-default:"1h"`
}

func (r RateLimitConfig) Validate() ValidationErrors {
	if !r.Enabled {
		return nil
	}
	errs := CollectErrors(
		RequirePositiveDuration("RATE_LIMIT_BUCKET_TTL", r.BucketTTL),
	)
	if r.AuthBurst <= 0 || r.AuthPerMinute <= 0 {
		errs = append(errs, ValidationError{Field: "RATE_LIMIT_AUTH", Message: "burst and per-minute rate must be positive"})
	}
	if r.DeviceBurst <= 0 || r.DevicePerMinute <= 0 {
		errs = append(errs, ValidationError{Field: "RATE_LIMIT_DEVICE", Message: "burst and per-minute rate must be positive"})
	}
	return errs
}
