package main

import (
	"github.com/supplysight/sctl/pkg/cli"
)

func main() {
	cli.Execute()
}
