package oracle

import (
	"fmt"

	"go.uber.org/zap"

	"pointake/internal/config"
	"pointake/internal/port"
)

// ProviderFactory creates a Generator for one provider config and model.
type ProviderFactory func(cfg *config.OracleProviderConfig, model string) (port.Generator, error)

// registry of provider factories, populated by init() in each provider package
// or explicitly via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewGenerator creates a Generator from a provider config using the registered factory.
func NewGenerator(cfg *config.OracleProviderConfig, model string) (port.Generator, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown oracle provider: %s", cfg.Provider)
	}
	return factory(cfg, model)
}

// Purpose selects which model of each provider a chain uses.
type Purpose int

const (
	PurposeExtraction Purpose = iota
	PurposeMatching
)

func (p Purpose) model(cfg *config.OracleProviderConfig) string {
	if p == PurposeMatching && cfg.MatchingModel != "" {
		return cfg.MatchingModel
	}
	return cfg.ExtractionModel
}

// NewChain builds the generator stack for purpose: each configured provider wrapped in
// retry, behind a fallback when there is more than one, then rate limiting.
func NewChain(cfg *config.OracleConfig, purpose Purpose, logger *zap.Logger) (port.Generator, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	provCfgs := cfg.Providers()
	if len(provCfgs) == 0 {
		return nil, fmt.Errorf("no oracle provider configured")
	}

	gens := make([]port.Generator, 0, len(provCfgs))
	names := make([]string, 0, len(provCfgs))
	for _, pc := range provCfgs {
		g, err := NewGenerator(pc, purpose.model(pc))
		if err != nil {
			return nil, fmt.Errorf("creating %s generator: %w", pc.Provider, err)
		}
		gens = append(gens, g)
		names = append(names, pc.Provider)
	}

	backoff := DefaultBackoff()
	if cfg.RetryBaseDelay > 0 {
		backoff.BaseDelay = cfg.RetryBaseDelay
	}
	if cfg.MaxRetries >= 0 {
		backoff.MaxRetries = cfg.MaxRetries
	}
	for i := range gens {
		gens[i] = WithRetry(gens[i], backoff, logger.With(zap.String("provider", names[i])))
	}

	gen := gens[0]
	if len(gens) > 1 {
		gen = NewFallback(gens, names, logger)
	}
	return WithRateLimit(gen, cfg.RequestsPerMinute), nil
}
