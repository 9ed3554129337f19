package app

import (
	"context"

	"creativedojo/internal/devtools"
)

type Demo interface {
	Resolve(name string) devtools.Scenario
	Names() []string
	SetState(ctx context.Context, cacheDir string, state string, rendered bool) error
}
