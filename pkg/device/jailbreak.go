package device

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	idmerrors "github.com/tendant/device-idm/pkg/errors"
	"github.com/tendant/device-idm/pkg/identity"
	"github.com/tendant/device-idm/pkg/session"
)

// DefaultScoreThreshold treats any positive jailbreak score as compromised.
const DefaultScoreThreshold = "0"

// ParseScoreThreshold parses a decimal threshold; blank means DefaultScoreThreshold.
func ParseScoreThreshold(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = DefaultScoreThreshold
	}
	threshold, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return 0, idmerrors.InvalidInput("scoreThreshold", "must be a decimal number")
	}
	return threshold, nil
}

// JailbreakVerification rejects devices whose reported jailbreak score exceeds
// a threshold.
type JailbreakVerification struct {
	resolver  *identity.Resolver
	threshold float64
}

func NewJailbreakVerification(resolver *identity.Resolver, threshold float64) *JailbreakVerification {
	return &JailbreakVerification{resolver: resolver, threshold: threshold}
}

// Evaluate returns true iff platform.jailBreakScore of the collected profile is
// at most the threshold.
func (e *JailbreakVerification) Evaluate(ctx context.Context, state session.State) (bool, error) {
	profile, err := RequireProfile(state)
	if err != nil {
		return false, err
	}
	if _, err := e.resolver.Resolve(ctx, state); err != nil {
		return false, err
	}

	score, err := jailBreakScore(profile)
	if err != nil {
		return false, err
	}
	return score <= e.threshold, nil
}

func jailBreakScore(profile json.RawMessage) (float64, error) {
	var p struct {
		Platform struct {
			JailBreakScore *float64 `json:"jailBreakScore"`
		} `json:"platform"`
	}
	if err := json.Unmarshal(profile, &p); err != nil {
		return 0, idmerrors.Wrap(err, idmerrors.ErrCodeInvalidFormat, "device profile has no numeric platform.jailBreakScore")
	}
	if p.Platform.JailBreakScore == nil {
		return 0, idmerrors.New(idmerrors.ErrCodeInvalidFormat, "device profile has no numeric platform.jailBreakScore")
	}
	return *p.Platform.JailBreakScore, nil
}
