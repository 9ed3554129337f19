package devtools

import "context"

type Demo interface {
	Resolve(name string) Scenario
	Names() []string
	SetState(ctx context.Context, cacheDir string, state string, rendered bool) error
}
