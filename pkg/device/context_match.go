package device

import (
	"context"
	"log/slog"

	"github.com/tendant/device-idm/pkg/deviceattr"
	"github.com/tendant/device-idm/pkg/identity"
	"github.com/tendant/device-idm/pkg/session"
)

// ContextMatch checks whether the collected profile equals the profile stored
// for the same device.
type ContextMatch struct {
	resolver *identity.Resolver
	records  RecordRepository
}

func NewContextMatch(resolver *identity.Resolver, records RecordRepository) *ContextMatch {
	return &ContextMatch{resolver: resolver, records: records}
}

// Evaluate returns true iff a stored record for the collected identifier has a
// profile structurally equal to the collected one.
func (e *ContextMatch) Evaluate(ctx context.Context, state session.State) (bool, error) {
	profile, err := RequireProfile(state)
	if err != nil {
		return false, err
	}
	identifier, err := RequireIdentifier(state)
	if err != nil {
		return false, err
	}
	user, err := e.resolver.Resolve(ctx, state)
	if err != nil {
		return false, err
	}

	records, err := e.records.Records(ctx, user.ID)
	if err != nil {
		return false, err
	}

	rec, ok := FindRecord(records, identifier, HasProfile)
	if !ok {
		slog.Debug("No stored profile for device", "username", user.Username, "identifier", identifier)
		return false, nil
	}

	stored, _ := rec.Get(deviceattr.Profile.FieldName())
	return jsonEqual(stored, profile), nil
}
