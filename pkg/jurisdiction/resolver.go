package jurisdiction

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Tier is one resolution strategy for a hierarchy level. Tiers are
// independent and interchangeable; the resolver tries them in order and the
// first one to yield a non-empty option set wins.
type Tier interface {
	// Name identifies the tier in traces and logs.
	Name() string

	// Resolve returns the options for the level under the given parent path.
	// An empty result or an error both count as a miss.
	Resolve(level Level, parent Path) ([]CodeName, error)
}

// ResolverConfig configures a Resolver built from the default tier chain.
type ResolverConfig struct {
	// BaseURL is the eCourts services root. Default: DefaultBaseURL.
	BaseURL string

	// HTTPClient is shared by the remote and scrape tiers. If nil, each tier
	// builds its own client with the configured timeout.
	HTTPClient HTTPClient

	// TierTimeout is the per-request timeout for each network tier.
	// Default: DefaultTierTimeout.
	TierTimeout time.Duration

	// UserAgent is the User-Agent header for network tiers.
	// Default: DefaultUserAgent.
	UserAgent string

	// Logger receives resolution diagnostics. Default: zap.NewNop().
	Logger *zap.Logger
}

// Resolver answers "what are the options at this level" by walking an
// ordered tier chain: remote data endpoints, then an HTML scrape, then the
// embedded static table. A result is always attributable to exactly one
// tier; partial results from different tiers are never merged.
type Resolver struct {
	tiers  []Tier
	logger *zap.Logger
}

// NewResolver creates a Resolver over an explicit tier chain. Used directly
// in tests; production callers usually want NewDefaultResolver.
func NewResolver(tiers []Tier, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{tiers: tiers, logger: logger}
}

// NewDefaultResolver builds the standard remote → scrape → static chain.
func NewDefaultResolver(config ResolverConfig) (*Resolver, error) {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	remoteTier := NewRemoteTier(RemoteTierConfig{
		BaseURL:    config.BaseURL,
		HTTPClient: config.HTTPClient,
		Timeout:    config.TierTimeout,
		UserAgent:  config.UserAgent,
		Logger:     logger,
	})
	scrapeTier := NewScrapeTier(ScrapeTierConfig{
		BaseURL:    config.BaseURL,
		HTTPClient: config.HTTPClient,
		Timeout:    config.TierTimeout,
		UserAgent:  config.UserAgent,
		Logger:     logger,
	})
	staticTier, err := NewStaticTier()
	if err != nil {
		return nil, err
	}

	return NewResolver([]Tier{remoteTier, scrapeTier, staticTier}, logger), nil
}

// Options resolves the selectable options at a level under the given parent
// path. The trace records which tier served the result and every tier miss
// before it, in order. Empty tier results fall through to the next tier;
// when all tiers miss, the error is an *UnresolvedLevelError and the trace
// carries the full miss list.
func (resolver *Resolver) Options(level Level, parent Path) ([]CodeName, Trace, error) {
	if err := parent.Validate(); err != nil {
		return nil, Trace{}, err
	}
	if requiredParent, hasParent := level.Parent(); hasParent {
		if parent.At(requiredParent).Code == "" {
			return nil, Trace{}, fmt.Errorf("resolving %s requires a selected %s", level, requiredParent)
		}
	}

	trace := Trace{}
	for _, tier := range resolver.tiers {
		options, err := tier.Resolve(level, parent)
		if err != nil {
			trace.Misses = append(trace.Misses, TierMiss{
				Tier:   tier.Name(),
				Level:  level,
				Reason: err.Error(),
			})
			resolver.logger.Debug("resolution tier miss",
				zap.String("tier", tier.Name()),
				zap.String("level", string(level)),
				zap.Error(err))
			continue
		}
		if len(options) == 0 {
			trace.Misses = append(trace.Misses, TierMiss{
				Tier:   tier.Name(),
				Level:  level,
				Reason: "no options",
			})
			continue
		}

		trace.ServedBy = tier.Name()
		resolver.logger.Info("jurisdiction level resolved",
			zap.String("tier", tier.Name()),
			zap.String("level", string(level)),
			zap.Int("options", len(options)))
		return options, trace, nil
	}

	return nil, trace, &UnresolvedLevelError{Level: level, Parent: parent}
}

// FindCode resolves a human-supplied selector (a code or a display name) at
// a level to its CodeName entry. Matching is case-insensitive, code first,
// then exact display name, then unambiguous name prefix.
func (resolver *Resolver) FindCode(level Level, parent Path, selector string) (CodeName, Trace, error) {
	normalized := strings.ToLower(strings.TrimSpace(selector))
	if normalized == "" {
		return CodeName{}, Trace{}, fmt.Errorf("empty %s selector", level)
	}

	options, trace, err := resolver.Options(level, parent)
	if err != nil {
		return CodeName{}, trace, err
	}

	for _, option := range options {
		if strings.ToLower(option.Code) == normalized {
			return option, trace, nil
		}
	}
	for _, option := range options {
		if strings.ToLower(option.Name) == normalized {
			return option, trace, nil
		}
	}

	var prefixMatches []CodeName
	for _, option := range options {
		if strings.HasPrefix(strings.ToLower(option.Name), normalized) {
			prefixMatches = append(prefixMatches, option)
		}
	}
	if len(prefixMatches) == 1 {
		return prefixMatches[0], trace, nil
	}
	if len(prefixMatches) > 1 {
		return CodeName{}, trace, fmt.Errorf("%s selector %q is ambiguous (%d matches)", level, selector, len(prefixMatches))
	}

	return CodeName{}, trace, fmt.Errorf("no %s matches selector %q", level, selector)
}
