package main

import (
	"context"
	"crypto/subtle"
	"fmt"
	"os"
	"os/signal"

	"github.com/fwojciec/agendex"
	aghttp "github.com/fwojciec/agendex/http"
)

// Run executes the serve command.
func (c *ServeCmd) Run(deps *Dependencies) error {
	token := os.Getenv("AGENDEX_ADMIN_TOKEN")
	if token == "" {
		return fmt.Errorf("AGENDEX_ADMIN_TOKEN not set; the scrape API requires a bearer token")
	}

	server := aghttp.NewServer()
	server.Addr = c.Addr
	server.Auth = &tokenAuthorizer{token: token}
	server.Ingestor = deps.Ingestor
	server.Logger = deps.Logger

	if err := server.Open(); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	defer server.Close()

	fmt.Fprintf(deps.Stdout, "listening on %s\n", server.URL())

	ctx, stop := signal.NotifyContext(deps.Ctx, os.Interrupt)
	defer stop()
	<-ctx.Done()

	fmt.Fprintln(deps.Stdout, "shutting down")
	return nil
}

var _ agendex.Authorizer = (*tokenAuthorizer)(nil)

// tokenAuthorizer grants admin access to callers holding the configured
// token. Role-based owner/editor checks belong to the hosting platform;
// the single-token mode covers self-hosted deployments.
type tokenAuthorizer struct {
	token string
}

func (a *tokenAuthorizer) IsAdmin(_ context.Context, token string) (bool, error) {
	return subtle.ConstantTimeCompare([]byte(token), []byte(a.token)) == 1, nil
}

func (a *tokenAuthorizer) CanManage(context.Context, string, agendex.OwnerRef) (bool, error) {
	return false, nil
}
