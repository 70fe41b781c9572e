// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: JWT issuers and grant audiences.
  - Lifecycle: OTP and transaction defaults.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "plume-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	// KYC uploads carry data-URIs, so this is wider than a plain JSON API needs.
	DefaultReadTimeout = 15 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 15 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 50.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 100

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs.
	AuthIssuer = "plume.app"

	// AccessTokenTTL is the lifetime of an RS256 access token.
	AccessTokenTTL = 15 * time.Minute

	// GrantTTL is the lifetime of a verification grant issued after a successful OTP check.
	GrantTTL = 15 * time.Minute
)

// # Lifecycle Defaults

const (
	// DefaultOTPTTL is how long an issued challenge stays verifiable.
	DefaultOTPTTL = 10 * time.Minute

	// DefaultOTPCooldown is the minimum delay between two issuances for one identifier.
	DefaultOTPCooldown = 60 * time.Second

	// OTPMaxAttempts burns a challenge after this many mismatched codes.
	OTPMaxAttempts = 5

	// TxTimeout bounds every store transaction that has no caller deadline.
	TxTimeout = 5 * time.Second

	// EventPublishTimeout bounds the post-commit lifecycle event write.
	EventPublishTimeout = 2 * time.Second

	// MaxDocumentBytes caps a decoded data-URI document.
	MaxDocumentBytes = 5 << 20
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderRetryAfter    = "Retry-After"
)

// # JSON Field Identifiers

const (
	FieldData       = "data"
	FieldError      = "error"
	FieldCode       = "code"
	FieldDetails    = "details"
	FieldItems      = "items"
	FieldTotal      = "total"
	FieldTotalPages = "totalPages"
	FieldMessage    = "message"
	FieldStatus     = "status"
	FieldChecks     = "checks"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixChallenge     = "otp:challenge:"
	RedisPrefixGrantConsumed = "grant:consumed:"
)
