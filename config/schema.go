package config

import (
	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"

	"go.viam.com/motionkit/components/motor"
	"go.viam.com/motionkit/components/motor/fake"
)

// Schema sections understood by SchemaFor.
const (
	SchemaConfig     = "config"
	SchemaMotor      = "motor"
	SchemaSimulation = "simulation"
)

var schemas = map[string]func() *jsonschema.Schema{
	SchemaConfig:     func() *jsonschema.Schema { return jsonschema.Reflect(&Config{}) },
	SchemaMotor:      func() *jsonschema.Schema { return jsonschema.Reflect(&motor.Config{}) },
	SchemaSimulation: func() *jsonschema.Schema { return jsonschema.Reflect(&fake.Config{}) },
}

// SchemaFor returns the JSON schema of a config file, or of the attributes or simulation
// sections of a motor entry.
func SchemaFor(section string) (*jsonschema.Schema, error) {
	reflect, ok := schemas[section]
	if !ok {
		return nil, errors.Errorf("unknown schema section %q, expected %s, %s or %s",
			section, SchemaConfig, SchemaMotor, SchemaSimulation)
	}
	return reflect(), nil
}
