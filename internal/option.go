package internal

import (
	"io"
	"os"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config     *Config
	configPath string
	output     io.Writer
}

func newApplication(opts []Option) *application {
	app := &application{output: os.Stdout}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithConfigPath records the file the configuration was read from. The
// metadata watcher reloads from it when metadata.watch is set.
func WithConfigPath(path string) Option {
	return func(a *application) {
		a.configPath = path
	}
}

// WithOutput sets where the deploy and status commands print their result.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.output = w
	}
}
