package main

import (
	"github.com/cardiopulse/cardiopulse/pkg/cli"
)

func main() {
	cli.Execute()
}
