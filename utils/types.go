package utils

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
)

// AttributeMap is a loosely typed set of configuration attributes, typically read straight from
// a config file before being decoded into a native struct.
type AttributeMap map[string]interface{}

// Has reports whether the key is present.
func (am AttributeMap) Has(name string) bool {
	_, has := am[name]
	return has
}

// Float64 returns the value at name as a float64, or def when missing or not convertible.
// Numeric strings are accepted.
func (am AttributeMap) Float64(name string, def float64) float64 {
	v, ok := am[name]
	if !ok {
		return def
	}
	f, err := cast.ToFloat64E(v)
	if err != nil {
		return def
	}
	return f
}

// Bool returns the value at name as a bool, or def when missing or of another type.
func (am AttributeMap) Bool(name string, def bool) bool {
	if v, ok := am[name].(bool); ok {
		return v
	}
	return def
}

// Decode converts the attributes into the struct pointed to by to, matching on json tags.
// Unknown keys are an error. Durations may be written as strings such as "50ms".
func (am AttributeMap) Decode(to interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           to,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return errors.Wrap(err, "cannot create attribute decoder")
	}
	return decoder.Decode(map[string]interface{}(am))
}
