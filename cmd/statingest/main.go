package main

import "github.com/datalakehq/statingest/internal/cli"

func main() {
	cli.Execute()
}
