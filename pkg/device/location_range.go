package device

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	idmerrors "github.com/tendant/device-idm/pkg/errors"
	"github.com/tendant/device-idm/pkg/identity"
	"github.com/tendant/device-idm/pkg/session"
)

// DefaultDistanceKm is the default allowed movement between logins.
const DefaultDistanceKm = "100"

// ParseDistanceKm parses a positive integer distance; blank means DefaultDistanceKm.
func ParseDistanceKm(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		s = DefaultDistanceKm
	}
	km, err := strconv.Atoi(s)
	if err != nil || km <= 0 {
		return 0, idmerrors.InvalidInput("distanceKm", "must be a positive integer")
	}
	return km, nil
}

// LocationRange checks whether the device is within a distance of the location
// stored for it.
type LocationRange struct {
	resolver   *identity.Resolver
	records    RecordRepository
	distanceKm int
}

func NewLocationRange(resolver *identity.Resolver, records RecordRepository, distanceKm int) *LocationRange {
	return &LocationRange{resolver: resolver, records: records, distanceKm: distanceKm}
}

// Evaluate returns true iff the collected location is strictly closer than the
// configured distance to the first complete stored location of the device.
func (e *LocationRange) Evaluate(ctx context.Context, state session.State) (bool, error) {
	raw, err := RequireLocation(state)
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

	current, ok := ParseLocation(raw)
	if !ok {
		return false, idmerrors.New(idmerrors.ErrCodeInvalidFormat, "device location must have numeric latitude and longitude")
	}

	records, err := e.records.Records(ctx, user.ID)
	if err != nil {
		return false, err
	}

	rec, ok := FindRecord(records, identifier, HasLocation)
	if !ok {
		slog.Debug("No stored location for device", "username", user.Username, "identifier", identifier)
		return false, nil
	}

	stored, _ := rec.Location()
	distance := DistanceKm(current, stored)
	slog.Debug("Device distance computed", "identifier", identifier, "distanceKm", distance, "limitKm", e.distanceKm)
	return distance < float64(e.distanceKm), nil
}
