package main

import (
	"github.com/robotalks/foc.go/pkg/cli/sh"
	"github.com/robotalks/foc.go/pkg/conf"
)

//go-build: CGO_ENABLED=0

func init() {
	conf.SetupFlags()
}

func main() {
	sh.Main()
}
