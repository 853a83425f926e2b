package config

import (
	"fmt"

	"github.com/gobwas/glob"
)

// OperationFilter decides which operation names a caller may run using glob
// patterns such as "Get*" or "*Clipboard*".
type OperationFilter struct {
	allowed []glob.Glob
	denied  []glob.Glob
}

// NewOperationFilter compiles the allow and deny patterns.
func NewOperationFilter(allowed, denied []string) (*OperationFilter, error) {
	f := &OperationFilter{}

	for _, pattern := range allowed {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid allowed pattern '%s': %w", pattern, err)
		}
		f.allowed = append(f.allowed, g)
	}

	for _, pattern := range denied {
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid denied pattern '%s': %w", pattern, err)
		}
		f.denied = append(f.denied, g)
	}

	return f, nil
}

// Filter builds the operation filter for c.
func (c *Config) Filter() (*OperationFilter, error) {
	return NewOperationFilter(c.Operations.AllowedPatterns, c.Operations.DeniedPatterns)
}

// IsAllowed reports whether name may run. Denied patterns take precedence;
// with no allowed patterns everything not denied is allowed. A nil filter
// allows everything.
func (f *OperationFilter) IsAllowed(name string) bool {
	if f == nil {
		return true
	}

	for _, pattern := range f.denied {
		if pattern.Match(name) {
			return false
		}
	}

	if len(f.allowed) == 0 {
		return true
	}

	for _, pattern := range f.allowed {
		if pattern.Match(name) {
			return true
		}
	}
	return false
}
