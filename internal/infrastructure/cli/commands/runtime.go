package commands

import (
	"context"
	"sync"

	"github.com/doeshing/kubeask/internal/app"
)

// Runtime builds the container on first use, after global flags are parsed,
// so commands such as version never touch the config file.
type Runtime struct {
	Options app.Options

	once      sync.Once
	container *app.Container
	err       error
}

// Container returns the shared container, building it once.
func (r *Runtime) Container(ctx context.Context) (*app.Container, error) {
	r.once.Do(func() {
		r.container, r.err = app.BuildContainer(ctx, r.Options)
	})
	return r.container, r.err
}

// Close releases the container if it was built.
func (r *Runtime) Close() error {
	if r.container == nil {
		return nil
	}
	return r.container.Close()
}
