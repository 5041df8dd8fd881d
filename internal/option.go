package internal

import "io"

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	command string
	force   bool
	out     io.Writer
	in      io.Reader
	logOut  io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithCommand selects the command to run. The default is CommandStats.
func WithCommand(name string) Option {
	return func(a *application) {
		a.command = name
	}
}

// WithForce makes CommandUpdateFilenames rename without asking.
func WithForce(force bool) Option {
	return func(a *application) {
		a.force = force
	}
}

// WithOutput sets where reports are written. The default is stdout.
func WithOutput(w io.Writer) Option {
	return func(a *application) {
		a.out = w
	}
}

// WithInput sets where prompt replies are read from. The default is stdin.
func WithInput(r io.Reader) Option {
	return func(a *application) {
		a.in = r
	}
}

// WithLogOutput sets where logs are written. The default is stderr.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.logOut = w
	}
}
