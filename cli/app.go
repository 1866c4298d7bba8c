// Package cli contains the motionplan command line tool: it prints profiles and trajectories and
// runs simulated actuators against them.
package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"

	"go.viam.com/motionkit/config"
	"go.viam.com/motionkit/logging"
)

const (
	generalFlagConfig  = "config"
	generalFlagDebug   = "debug"
	generalFlagLogFile = "log-file"
	generalFlagPlot    = "plot"

	schemaFlagSection = "section"

	profileFlagDistance    = "distance"
	profileFlagMaxVel      = "max-vel"
	profileFlagMaxAccel    = "max-accel"
	profileFlagStartVel    = "start-vel"
	profileFlagEndVel      = "end-vel"
	profileFlagConstrained = "constrained"
	sampleFlagInterval     = "dt"

	simulateFlagMode     = "mode"
	simulateFlagRPM      = "rpm"
	simulateFlagDistance = "distance"
	simulateFlagPower    = "power"
	simulateFlagDuration = "duration"
	simulateFlagEvery    = "print-every"
	simulateFlagFollow   = "follow"
	simulateFlagReverse  = "reverse"
)

var app = &cli.App{
	Name:            "motionplan",
	Usage:           "plan motion profiles and trajectories and simulate the actuators that follow them",
	HideHelpCommand: true,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:    generalFlagDebug,
			Aliases: []string{"vvv"},
			Usage:   "enable debug logging",
		},
		&cli.StringFlag{
			Name:      generalFlagLogFile,
			Usage:     "write logs as JSON lines to `FILE` instead of the console",
			TakesFile: true,
		},
	},
	Commands: []*cli.Command{
		{
			Name:      "profile",
			Usage:     "generate a one dimensional motion profile and print its segments and samples",
			UsageText: "motionplan profile --distance <distance> [other options]",
			Flags: []cli.Flag{
				&cli.Float64Flag{
					Name:     profileFlagDistance,
					Usage:    "distance to travel",
					Required: true,
				},
				&cli.Float64Flag{
					Name:  profileFlagMaxVel,
					Usage: "maximum velocity",
					Value: 30,
				},
				&cli.Float64Flag{
					Name:  profileFlagMaxAccel,
					Usage: "maximum acceleration",
					Value: 30,
				},
				&cli.Float64Flag{
					Name:  profileFlagStartVel,
					Usage: "velocity at the start",
				},
				&cli.Float64Flag{
					Name:  profileFlagEndVel,
					Usage: "velocity at the end",
				},
				&cli.BoolFlag{
					Name:  profileFlagConstrained,
					Usage: "use the sampled path-constrained generator instead of the closed form",
				},
				&cli.Float64Flag{
					Name:  sampleFlagInterval,
					Usage: "seconds between printed samples",
					Value: 0.25,
				},
				&cli.StringFlag{
					Name:      generalFlagPlot,
					Usage:     "also plot position, velocity and acceleration over time to `FILE` (png, svg or pdf)",
					TakesFile: true,
				},
			},
			Action: ProfileAction,
		},
		{
			Name:      "trajectory",
			Usage:     "generate a trajectory along the path in a config file and print its samples",
			UsageText: "motionplan trajectory --config <file> [--dt <seconds>]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:      generalFlagConfig,
					Aliases:   []string{"c"},
					Usage:     "load configuration from `FILE`",
					Required:  true,
					TakesFile: true,
				},
				&cli.Float64Flag{
					Name:  sampleFlagInterval,
					Usage: "seconds between printed samples",
					Value: 0.25,
				},
				&cli.StringFlag{
					Name:      generalFlagPlot,
					Usage:     "also plot the path and its samples to `FILE` (png, svg or pdf)",
					TakesFile: true,
				},
			},
			Action: TrajectoryAction,
		},
		{
			Name:      "simulate",
			Usage:     "drive the simulated motors in a config file as one group",
			UsageText: "motionplan simulate --config <file> --mode <power|velocity|position> [other options]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:      generalFlagConfig,
					Aliases:   []string{"c"},
					Usage:     "load configuration from `FILE`",
					Required:  true,
					TakesFile: true,
				},
				&cli.StringFlag{
					Name:  simulateFlagMode,
					Usage: "run mode: power, velocity or position",
					Value: simulateModeVelocity,
				},
				&cli.Float64Flag{
					Name:  simulateFlagRPM,
					Usage: "target speed in velocity mode",
				},
				&cli.Float64Flag{
					Name:  simulateFlagDistance,
					Usage: "target distance in position mode",
				},
				&cli.Float64Flag{
					Name:  simulateFlagPower,
					Usage: "power in power mode, or the power limit in position mode",
					Value: 1,
				},
				&cli.DurationFlag{
					Name:  simulateFlagDuration,
					Usage: "simulated time to run for; when following a trajectory it defaults to its duration",
				},
				&cli.DurationFlag{
					Name:  simulateFlagEvery,
					Usage: "simulated time between printed rows",
					Value: defaultPrintEvery,
				},
				&cli.BoolFlag{
					Name:  simulateFlagFollow,
					Usage: "in velocity mode, follow the speed of the trajectory along the configured path",
				},
				&cli.BoolFlag{
					Name:  simulateFlagReverse,
					Usage: "reverse the whole group",
				},
			},
			Action: SimulateAction,
		},
		{
			Name:      "schema",
			Usage:     "print the JSON schema of a config file or one of its motor sections",
			UsageText: "motionplan schema [--section <config|motor|simulation>]",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  schemaFlagSection,
					Usage: "config, motor or simulation",
					Value: config.SchemaConfig,
				},
			},
			Action: SchemaAction,
		},
	},
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app.Writer = out
	app.ErrWriter = errOut
	return app
}

// newLogger honours the global debug and log-file flags. Console logging is limited to warnings
// so it does not interleave with the printed tables.
func newLogger(c *cli.Context) logging.Logger {
	level := zapcore.InfoLevel
	if c.Bool(generalFlagDebug) {
		level = zapcore.DebugLevel
	}
	if file := c.String(generalFlagLogFile); file != "" {
		return logging.NewFileLogger("motionplan", file, level)
	}
	if level == zapcore.DebugLevel {
		return logging.NewDebugLogger("motionplan")
	}
	logger := logging.NewLogger("motionplan")
	logger.SetLevel(zapcore.WarnLevel)
	return logger
}

// printf prints a message with no decoration.
func printf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	fmt.Fprintf(w, format+"\n", a...)
}

// infof prints a message prefixed with a bold cyan "Info: ".
func infof(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	color.New(color.Bold, color.FgCyan).Fprint(w, "Info: ")
	printf(w, format, a...)
}

// warningf prints a message prefixed with a bold yellow "Warning: ".
func warningf(w io.Writer, format string, a ...interface{}) {
	//nolint:errcheck
	color.New(color.Bold, color.FgYellow).Fprint(w, "Warning: ")
	printf(w, format, a...)
}
