package device

import (
	"bytes"
	"encoding/json"
	"reflect"

	"github.com/tendant/device-idm/pkg/deviceattr"
	idmerrors "github.com/tendant/device-idm/pkg/errors"
)

// Record is one persisted device, a JSON object with raw field values.
type Record struct {
	fields map[string]json.RawMessage
}

// Location is a geographic point in decimal degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NewRecord returns an empty record.
func NewRecord() Record {
	return Record{fields: make(map[string]json.RawMessage)}
}

// ParseRecord decodes a serialized record. The input must be a JSON object;
// an identifier is not required.
func ParseRecord(raw string) (Record, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return Record{}, idmerrors.Wrap(err, idmerrors.ErrCodeInvalidFormat, "device record is not a JSON object")
	}
	if fields == nil {
		// literal null
		return Record{}, idmerrors.New(idmerrors.ErrCodeInvalidFormat, "device record is not a JSON object")
	}
	return Record{fields: fields}, nil
}

// Get returns the raw value of field.
func (r Record) Get(field string) (json.RawMessage, bool) {
	v, ok := r.fields[field]
	return v, ok
}

// IsDefined reports whether field is present and not null.
func (r Record) IsDefined(field string) bool {
	v, ok := r.fields[field]
	return ok && !isNull(v)
}

// Set stores a raw JSON value under field.
func (r *Record) Set(field string, value json.RawMessage) {
	if r.fields == nil {
		r.fields = make(map[string]json.RawMessage)
	}
	r.fields[field] = append(json.RawMessage(nil), value...)
}

// Identifier returns the record's identifier when it is a JSON string.
func (r Record) Identifier() (string, bool) {
	v, ok := r.fields[deviceattr.Identifier.FieldName()]
	if !ok {
		return "", false
	}
	var id string
	if err := json.Unmarshal(v, &id); err != nil {
		return "", false
	}
	return id, true
}

// Location returns the stored location when both coordinates are numeric.
func (r Record) Location() (Location, bool) {
	v, ok := r.fields[deviceattr.Location.FieldName()]
	if !ok {
		return Location{}, false
	}
	return ParseLocation(v)
}

// Serialize encodes the record as compact JSON with sorted keys.
func (r Record) Serialize() (string, error) {
	if r.fields == nil {
		return "{}", nil
	}
	data, err := json.Marshal(r.fields)
	if err != nil {
		return "", idmerrors.Wrap(err, idmerrors.ErrCodeInvalidFormat, "failed to serialize device record")
	}
	return string(data), nil
}

func (r Record) String() string {
	s, err := r.Serialize()
	if err != nil {
		return "{}"
	}
	return s
}

// ParseLocation decodes a {latitude, longitude} object. Both coordinates must be
// present and numeric.
func ParseLocation(raw json.RawMessage) (Location, bool) {
	var loc struct {
		Latitude  *float64 `json:"latitude"`
		Longitude *float64 `json:"longitude"`
	}
	if err := json.Unmarshal(raw, &loc); err != nil {
		return Location{}, false
	}
	if loc.Latitude == nil || loc.Longitude == nil {
		return Location{}, false
	}
	return Location{Latitude: *loc.Latitude, Longitude: *loc.Longitude}, true
}

// jsonEqual compares two raw JSON values structurally.
func jsonEqual(a, b json.RawMessage) bool {
	var va, vb interface{}
	if err := json.Unmarshal(a, &va); err != nil {
		return false
	}
	if err := json.Unmarshal(b, &vb); err != nil {
		return false
	}
	return reflect.DeepEqual(va, vb)
}

func isNull(v json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(v), []byte("null"))
}
