package main

//go-build: CGO_ENABLED=0

import (
	"flag"
	"log"

	"github.com/robotalks/foc.go/pkg/conf"
	"github.com/robotalks/foc.go/pkg/ctl"
	fx "github.com/robotalks/foc.go/pkg/framework"
)

func init() {
	conf.SetupFlags()
}

func main() {
	flag.Parse()

	cfg := conf.NewConfig()
	if err := cfg.Load(); err != nil {
		log.Fatalln(err)
	}
	env := ctl.MustNewEnv(cfg, ctl.Meta{Description: "FOC Motor Controller"})
	defer env.Close()
	fx.NewLoop().Add(env).RunOrFail()
}
