package ctl

import (
	"context"
	"net/http"

	"github.com/golang/glog"

	"github.com/robotalks/foc.go/pkg/foc"
	fx "github.com/robotalks/foc.go/pkg/framework"
	"github.com/robotalks/foc.go/pkg/telemetry"
)

// HTTPServer serves the websocket telemetry endpoint at /telemetry.
type HTTPServer struct {
	Addr string
	Hub  *telemetry.WebSocketHub
}

// AddToLoop implements LoopAdder. Commands from websocket clients are
// posted to the loop.
func (s *HTTPServer) AddToLoop(loop *fx.Loop) {
	s.Hub.OnCommand = func(kc foc.KeyCommand) {
		PostCommand(loop, &CommandMsg{Command: kc, Source: SourceWS})
	}
	loop.AddRunnable(s)
}

// Name implements Named.
func (s *HTTPServer) Name() string {
	return "http"
}

// Run implements Runnable.
func (s *HTTPServer) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("/telemetry", s.Hub.Handler())
	srv := &http.Server{Addr: s.Addr, Handler: mux}
	glog.Infof("websocket telemetry on %s/telemetry", s.Addr)
	return fx.RunWithContextCloser(ctx, srv, srv.ListenAndServe)
}
