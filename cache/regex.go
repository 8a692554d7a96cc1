package cache

import (
	"context"
	"regexp"
	"time"
)

// RegexCache memoizes compiled patterns across rules and pairs. The same
// Watch/Get pattern string is compiled once even though every worker
// re-validates it against every captured pair.
type RegexCache struct {
	perch *Perch[*regexp.Regexp]
}

// NewRegexCache builds a bounded cache holding up to capacity compiled
// patterns. Compile stores each entry with a fixed one-hour TTL, after
// which the next lookup recompiles it; eviction is LRU-driven once
// capacity is exceeded.
func NewRegexCache(capacity int) *RegexCache {
	return &RegexCache{perch: New[*regexp.Regexp](capacity)}
}

// Compile returns a cached *regexp.Regexp for pattern, compiling it on
// first use. A compile failure is never cached.
func (c *RegexCache) Compile(pattern string) (*regexp.Regexp, error) {
	return c.perch.Get(context.Background(), pattern, time.Hour, func(_ context.Context, key string) (*regexp.Regexp, error) {
		return regexp.Compile(key)
	})
}
