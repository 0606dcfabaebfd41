package main

import (
	lmhttp "github.com/fwojciec/linkmap/http"
)

// Run executes the serve command.
func (c *ServeCmd) Run(deps *Dependencies) error {
	srv := lmhttp.NewServer(deps.Links, deps.Logger)
	srv.Metrics = deps.Metrics
	return srv.ListenAndServe(deps.Ctx, c.Addr)
}
