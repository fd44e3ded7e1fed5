// Package ratelimit enforces a persistent sliding-window rate limit with
// IP blocking, keyed by (client IP, endpoint path).
package ratelimit

import (
	"strings"
	"time"
)

// Policy bounds requests for a window and sets the block span applied once
// the limit is exceeded.
type Policy struct {
	Limit  int
	Window time.Duration
	Block  time.Duration
}

// Rule binds a path prefix to a policy.
type Rule struct {
	Prefix string
	Policy Policy
}

// Rules is an ordered rule set, most specific first.
type Rules []Rule

// DefaultPolicy applies to endpoints no rule matches.
var DefaultPolicy = Policy{Limit: 100, Window: 15 * time.Minute, Block: 60 * time.Minute}

// DefaultRules hardens the authentication endpoints. First match wins.
var DefaultRules = Rules{
	{Prefix: "/auth/login", Policy: Policy{Limit: 10, Window: 15 * time.Minute, Block: 30 * time.Minute}},
	{Prefix: "/auth/register", Policy: Policy{Limit: 5, Window: 60 * time.Minute, Block: 60 * time.Minute}},
}

// Match selects the policy for an endpoint path.
func (rs Rules) Match(path string) Policy {
	for _, rule := range rs {
		if strings.HasPrefix(path, rule.Prefix) {
			return rule.Policy
		}
	}
	return DefaultPolicy
}
