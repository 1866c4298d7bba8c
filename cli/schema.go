package cli

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/motionkit/config"
)

// SchemaAction is the corresponding action for 'schema'.
func SchemaAction(c *cli.Context) error {
	schema, err := config.SchemaFor(c.String(schemaFlagSection))
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return errors.Wrap(err, "cannot marshal schema")
	}
	printf(c.App.Writer, "%s", data)
	return nil
}
