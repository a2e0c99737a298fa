package commands

import (
	"context"
	"errors"
	"fmt"

	"transportdesk/internal/client"
	"transportdesk/internal/config"

	"go.uber.org/zap"
)

// AppContext holds the dependencies shared by every command.
type AppContext struct {
	Cfg    config.CLIConfig
	Client *client.Client
	Logger *zap.Logger
	Ctx    context.Context
}

// explain turns API failures into the alert shown to the operator.
func explain(action string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, client.ErrNotLoggedIn) || client.IsUnauthorized(err) {
		return fmt.Errorf("%s: dispatcher login required, run `deskctl login`: %w", action, err)
	}
	return fmt.Errorf("%s: %w", action, err)
}
