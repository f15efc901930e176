package main

import (
	"github.com/inkpress/inkpress-go/internal/cli"
)

func main() {
	cli.Execute()
}
