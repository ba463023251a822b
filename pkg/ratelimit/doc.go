// Package ratelimit throttles HTTP requests with per-key token buckets.
//
// The service limits authentication round trips per client IP and
// device-management calls per token subject.
package ratelimit
