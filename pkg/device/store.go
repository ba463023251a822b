package device

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/tendant/device-idm/pkg/deviceattr"
	idmerrors "github.com/tendant/device-idm/pkg/errors"
	"github.com/tendant/device-idm/pkg/identity"
	"github.com/tendant/device-idm/pkg/session"
)

// Upsert merges the collected attributes into existing, keyed by the collected
// identifier. Entries that do not parse, lack an identifier or name another
// device are kept verbatim. The first entry for the collected identifier is the
// base of the new record; further entries for it are dropped. The new record is
// appended last.
func Upsert(existing []string, collected session.State, requested []deviceattr.Kind) ([]string, error) {
	identifier, err := RequireIdentifier(collected)
	if err != nil {
		return nil, err
	}

	kept := make([]string, 0, len(existing)+1)
	var matched *Record
	for _, raw := range existing {
		rec, err := ParseRecord(raw)
		if err != nil {
			kept = append(kept, raw)
			continue
		}
		id, ok := rec.Identifier()
		if !ok || id != identifier {
			kept = append(kept, raw)
			continue
		}
		if matched == nil {
			matched = &rec
		}
	}

	record := NewRecord()
	if matched != nil {
		record = *matched
	}

	idValue, err := json.Marshal(identifier)
	if err != nil {
		return nil, idmerrors.Wrap(err, idmerrors.ErrCodeInvalidFormat, "failed to encode device identifier")
	}
	record.Set(deviceattr.Identifier.FieldName(), idValue)

	for _, kind := range requested {
		if kind == deviceattr.Identifier || !collected.IsDefined(kind.SessionKey()) {
			continue
		}
		value, _ := collected.Get(kind.SessionKey())
		record.Set(kind.FieldName(), value)
	}

	serialized, err := record.Serialize()
	if err != nil {
		return nil, err
	}
	return uniqueStrings(append(kept, serialized)), nil
}

// Summary describes one parseable device record.
type Summary struct {
	Identifier   string
	HasProfile   bool
	HasPublicKey bool
	Location     *Location
}

// Summarize describes every parseable record and counts the rest.
func Summarize(records []string) ([]Summary, int) {
	summaries := make([]Summary, 0, len(records))
	unparseable := 0
	for _, raw := range records {
		rec, err := ParseRecord(raw)
		if err != nil {
			unparseable++
			continue
		}
		id, _ := rec.Identifier()
		s := Summary{
			Identifier:   id,
			HasProfile:   rec.IsDefined(deviceattr.Profile.FieldName()),
			HasPublicKey: rec.IsDefined(deviceattr.PublicKey.FieldName()),
		}
		if loc, ok := rec.Location(); ok {
			s.Location = &loc
		}
		summaries = append(summaries, s)
	}
	return summaries, unparseable
}

// Store persists collected device attributes against the attempt's user.
type Store struct {
	resolver   *identity.Resolver
	records    RecordRepository
	attributes []deviceattr.Kind
}

// NewStore creates a store persisting the given attribute kinds.
func NewStore(resolver *identity.Resolver, records RecordRepository, attributes []deviceattr.Kind) *Store {
	return &Store{
		resolver:   resolver,
		records:    records,
		attributes: attributes,
	}
}

// Save upserts the collected device into the user's collection and commits it.
func (s *Store) Save(ctx context.Context, state session.State) error {
	identifier, err := RequireIdentifier(state)
	if err != nil {
		return err
	}

	user, err := s.resolver.Resolve(ctx, state)
	if err != nil {
		return err
	}

	existing, err := s.records.Records(ctx, user.ID)
	if err != nil {
		return err
	}

	updated, err := Upsert(existing, state, s.attributes)
	if err != nil {
		return err
	}

	if err := s.write(ctx, user, updated); err != nil {
		return err
	}

	slog.Info("Device record saved", "username", user.Username, "identifier", identifier, "records", len(updated))
	return nil
}

// Devices summarizes the stored devices of username.
func (s *Store) Devices(ctx context.Context, username string) ([]Summary, int, error) {
	user, err := s.resolver.ResolveUsername(ctx, username)
	if err != nil {
		return nil, 0, err
	}

	records, err := s.records.Records(ctx, user.ID)
	if err != nil {
		return nil, 0, err
	}

	summaries, unparseable := Summarize(records)
	return summaries, unparseable, nil
}

// Remove deletes every parseable record of username carrying identifier.
// Unparseable entries are left alone.
func (s *Store) Remove(ctx context.Context, username, identifier string) (int, error) {
	user, err := s.resolver.ResolveUsername(ctx, username)
	if err != nil {
		return 0, err
	}

	records, err := s.records.Records(ctx, user.ID)
	if err != nil {
		return 0, err
	}

	remaining := make([]string, 0, len(records))
	for _, raw := range records {
		if rec, err := ParseRecord(raw); err == nil {
			if id, ok := rec.Identifier(); ok && id == identifier {
				continue
			}
		}
		remaining = append(remaining, raw)
	}

	removed := len(records) - len(remaining)
	if removed == 0 {
		return 0, idmerrors.NotFound("device", identifier)
	}

	if err := s.write(ctx, user, remaining); err != nil {
		return 0, err
	}

	slog.Info("Device record removed", "username", user.Username, "identifier", identifier, "removed", removed)
	return removed, nil
}

func (s *Store) write(ctx context.Context, user identity.User, records []string) error {
	if err := s.records.SetRecords(ctx, user.ID, records); err != nil {
		slog.Error("Failed to stage device records", "username", user.Username, "error", err)
		return idmerrors.Persistence(err, "failed to store device records")
	}
	if err := s.records.Commit(ctx, user.ID); err != nil {
		slog.Error("Failed to commit device records", "username", user.Username, "error", err)
		return idmerrors.Persistence(err, "failed to store device records")
	}
	return nil
}

// uniqueStrings drops duplicates, keeping first-seen order.
func uniqueStrings(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}
