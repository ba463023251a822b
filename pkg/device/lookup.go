package device

import (
	"encoding/json"
	"strings"

	"github.com/tendant/device-idm/pkg/deviceattr"
	idmerrors "github.com/tendant/device-idm/pkg/errors"
	"github.com/tendant/device-idm/pkg/session"
)

// FindRecord returns the first entry that parses, carries identifier and
// satisfies predicate. Unparseable entries are skipped.
func FindRecord(records []string, identifier string, predicate func(Record) bool) (Record, bool) {
	for _, raw := range records {
		rec, err := ParseRecord(raw)
		if err != nil {
			continue
		}
		id, ok := rec.Identifier()
		if !ok || id != identifier {
			continue
		}
		if predicate != nil && !predicate(rec) {
			continue
		}
		return rec, true
	}
	return Record{}, false
}

// HasProfile matches records with a defined profile.
func HasProfile(r Record) bool {
	return r.IsDefined(deviceattr.Profile.FieldName())
}

// HasLocation matches records whose location carries both coordinates.
func HasLocation(r Record) bool {
	_, ok := r.Location()
	return ok
}

// RequireIdentifier returns the collected device identifier.
func RequireIdentifier(state session.State) (string, error) {
	id, _ := state.GetString(deviceattr.Identifier.SessionKey())
	if strings.TrimSpace(id) == "" {
		return "", idmerrors.MissingIdentifier()
	}
	return id, nil
}

// RequireProfile returns the collected device profile.
func RequireProfile(state session.State) (json.RawMessage, error) {
	key := deviceattr.Profile.SessionKey()
	if !state.IsDefined(key) {
		return nil, idmerrors.ProfileRequired()
	}
	v, _ := state.Get(key)
	return v, nil
}

// RequireLocation returns the collected device location.
func RequireLocation(state session.State) (json.RawMessage, error) {
	key := deviceattr.Location.SessionKey()
	if !state.IsDefined(key) {
		return nil, idmerrors.LocationRequired()
	}
	v, _ := state.Get(key)
	return v, nil
}
