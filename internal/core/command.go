package core

import "context"

type CmdRouter interface {
	Execute(ctx context.Context, input string) (string, bool)
	ListCommands() []Command
}

type Command interface {
	Name() string
	Usage() string
	Description() string
	Execute(ctx context.Context, args []string) (string, error)
}
