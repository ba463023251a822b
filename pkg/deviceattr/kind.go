// Package deviceattr is the catalog of device attributes collected during login.
//
// Each Kind has a session key, used while a login attempt is in progress, and a
// field name, used in the persisted device record.
package deviceattr

import (
	"log/slog"
	"strings"
)

// Kind identifies one device attribute.
type Kind int

const (
	Profile Kind = iota
	PublicKey
	Location
	Identifier
)

type entry struct {
	name       string
	sessionKey string
	fieldName  string
}

var catalog = [...]entry{
	Profile:    {name: "PROFILE", sessionKey: "device.profile", fieldName: "profile"},
	PublicKey:  {name: "PUBLIC_KEY", sessionKey: "device.publicKey", fieldName: "publicKey"},
	Location:   {name: "LOCATION", sessionKey: "device.location", fieldName: "location"},
	Identifier: {name: "IDENTIFIER", sessionKey: "device.identifier", fieldName: "identifier"},
}

// Collectable lists the kinds a client may be asked for, in request order.
// Identifier is always required and never requested by name.
var Collectable = []Kind{Profile, PublicKey, Location}

// All lists every kind in catalog order.
var All = []Kind{Profile, PublicKey, Location, Identifier}

// SessionKey returns the session state key for k.
func (k Kind) SessionKey() string {
	return catalog[k].sessionKey
}

// FieldName returns the JSON field name of k in a persisted device record.
func (k Kind) FieldName() string {
	return catalog[k].fieldName
}

// String returns the configuration name of k, e.g. PUBLIC_KEY.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(catalog) {
		return "UNKNOWN"
	}
	return catalog[k].name
}

// ParseKind resolves a configuration name to its Kind. Matching ignores case
// and surrounding whitespace.
func ParseKind(name string) (Kind, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for k, e := range catalog {
		if e.name == name {
			return Kind(k), true
		}
	}
	return 0, false
}

// ParseKinds resolves configured attribute names, keeping their order.
// Unknown names are logged and dropped; duplicates are dropped.
func ParseKinds(names []string) []Kind {
	kinds := make([]Kind, 0, len(names))
	seen := make(map[Kind]bool, len(names))
	for _, name := range names {
		k, ok := ParseKind(name)
		if !ok {
			slog.Warn("Ignoring unknown device attribute", "name", name)
			continue
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		kinds = append(kinds, k)
	}
	return kinds
}

// Names returns the configuration names of kinds.
func Names(kinds []Kind) []string {
	names := make([]string, len(kinds))
	for i, k := range kinds {
		names[i] = k.String()
	}
	return names
}
