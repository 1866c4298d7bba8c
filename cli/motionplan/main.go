// Package main is the motionplan command itself.
package main

import (
	"log"
	"os"

	mpcli "go.viam.com/motionkit/cli"
)

func main() {
	app := mpcli.NewApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
