// Package decision maps an untrust probability to the final label.
package decision

import (
	"log/slog"

	"github.com/Veraticus/sieve/internal/config"
	"github.com/Veraticus/sieve/internal/model"
)

// Policy applies two cutoffs in a fixed order: TauHigh first, then TauLow.
type Policy struct {
	TauHigh float64
	TauLow  float64
}

// FromConfig builds the policy from the decision section.
func FromConfig(cfg config.Decision) Policy {
	return Policy{TauHigh: cfg.TauHigh, TauLow: cfg.TauLow}
}

// Decide returns Untrustworthy when p >= TauHigh, otherwise Trustworthy when
// p <= TauLow, otherwise Ignore.
func (p Policy) Decide(prob float64) model.Decision {
	if prob >= p.TauHigh {
		return model.DecisionUntrustworthy
	}
	if prob <= p.TauLow {
		return model.DecisionTrustworthy
	}
	return model.DecisionIgnore
}

// IgnoreReachable reports whether any probability can map to Ignore. With
// TauHigh <= TauLow the check order collapses the policy to one cutoff.
func (p Policy) IgnoreReachable() bool {
	return p.TauHigh > p.TauLow
}

// Warn logs once when the ignore zone is unreachable. The thresholds are
// left as configured.
func (p Policy) Warn(logger *slog.Logger) {
	if p.IgnoreReachable() {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Warn("Decision thresholds leave the ignore zone unreachable",
		"tau_high", p.TauHigh,
		"tau_low", p.TauLow,
		"effective_cutoff", p.TauHigh)
}
