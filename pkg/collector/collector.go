package collector

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/tendant/device-idm/pkg/deviceattr"
	idmerrors "github.com/tendant/device-idm/pkg/errors"
	"github.com/tendant/device-idm/pkg/session"
)

// Encoding selects how the attribute request is written.
type Encoding string

const (
	// EncodingURI writes device://<host>?attributes=<name>&...
	EncodingURI Encoding = "uri"
	// EncodingList writes the attribute names separated by spaces.
	EncodingList Encoding = "list"
)

const (
	Scheme          = "device"
	DefaultHost     = "simple-idm"
	AttributesParam = "attributes"
)

// Config toggles the attributes requested from the client.
type Config struct {
	Profile   bool     `yaml:"profile"`
	PublicKey bool     `yaml:"publicKey"`
	Location  bool     `yaml:"location"`
	Encoding  Encoding `yaml:"encoding"`
	Host      string   `yaml:"host"`
}

// DefaultConfig requests the device profile only.
func DefaultConfig() Config {
	return Config{
		Profile:  true,
		Encoding: EncodingURI,
		Host:     DefaultHost,
	}
}

// Validate checks the encoding.
func (c Config) Validate() error {
	switch c.Encoding {
	case "", EncodingURI, EncodingList:
		return nil
	default:
		return fmt.Errorf("unsupported request encoding: %s (supported: uri, list)", c.Encoding)
	}
}

// Enabled returns the enabled attribute kinds in request order.
func (c Config) Enabled() []deviceattr.Kind {
	kinds := make([]deviceattr.Kind, 0, len(deviceattr.Collectable))
	for _, k := range deviceattr.Collectable {
		if c.enabled(k) {
			kinds = append(kinds, k)
		}
	}
	return kinds
}

func (c Config) enabled(k deviceattr.Kind) bool {
	switch k {
	case deviceattr.Profile:
		return c.Profile
	case deviceattr.PublicKey:
		return c.PublicKey
	case deviceattr.Location:
		return c.Location
	}
	return false
}

// Outcome is the result of one collector step.
type Outcome struct {
	// Submitted is false while the collector waits for the client.
	Submitted bool
	// Request is the value to send to the client when Submitted is false.
	Request string
	// State is the updated session state when Submitted is true.
	State session.State
}

// Collector drives attribute collection for one node configuration.
type Collector struct {
	config Config
	kinds  []deviceattr.Kind
}

// New creates a collector, filling in the default encoding and host.
func New(config Config) (*Collector, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.Encoding == "" {
		config.Encoding = EncodingURI
	}
	if config.Host == "" {
		config.Host = DefaultHost
	}
	return &Collector{config: config, kinds: config.Enabled()}, nil
}

// Request encodes the attribute request sent to the client.
func (c *Collector) Request() string {
	names := make([]string, len(c.kinds))
	for i, k := range c.kinds {
		names[i] = k.FieldName()
	}

	if c.config.Encoding == EncodingList {
		return strings.Join(names, " ")
	}

	u := url.URL{Scheme: Scheme, Host: c.config.Host}
	if len(names) > 0 {
		u.RawQuery = url.Values{AttributesParam: names}.Encode()
	}
	return u.String()
}

// Process handles one pass of the collector. An empty submission yields the
// attribute request and leaves state untouched.
func (c *Collector) Process(state session.State, submission string) (Outcome, error) {
	if submission == "" {
		return Outcome{Request: c.Request()}, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(submission), &fields); err != nil {
		return Outcome{}, idmerrors.PayloadFormat(err, "device attribute submission is not a JSON object")
	}
	if fields == nil {
		return Outcome{}, idmerrors.PayloadFormat(nil, "device attribute submission is not a JSON object")
	}

	identifier, ok := fields[deviceattr.Identifier.FieldName()]
	if !ok || isNull(identifier) {
		return Outcome{}, idmerrors.PayloadFormat(nil, "device attribute submission has no identifier")
	}
	var id string
	if err := json.Unmarshal(identifier, &id); err != nil {
		return Outcome{}, idmerrors.PayloadFormat(err, "device identifier must be a string")
	}

	next := state.WithString(deviceattr.Identifier.SessionKey(), id)
	for _, k := range c.kinds {
		if v, ok := fields[k.FieldName()]; ok && !isNull(v) {
			next = next.With(k.SessionKey(), v)
			continue
		}
		next = next.WithString(k.SessionKey(), "")
	}

	return Outcome{Submitted: true, State: next}, nil
}

func isNull(v json.RawMessage) bool {
	return strings.TrimSpace(string(v)) == "null"
}
