package main

import (
	"github.com/pridebank/atmgw/internal/cli"
)

func main() {
	cli.Execute()
}
