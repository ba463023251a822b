package device

import (
	"context"

	"github.com/tendant/device-idm/pkg/session"
)

// Evaluator makes a boolean trust decision for an authentication attempt.
type Evaluator interface {
	Evaluate(ctx context.Context, state session.State) (bool, error)
}

var (
	_ Evaluator = (*ContextMatch)(nil)
	_ Evaluator = (*JailbreakVerification)(nil)
	_ Evaluator = (*LocationRange)(nil)
)
