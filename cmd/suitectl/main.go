// Command suitectl is a terminal client for the suite-runner API.
package main

import "github.com/tbourn/go-suite-runner/internal/cli"

func main() {
	cli.Execute()
}
