package internal

type application struct {
	config *Config
}

// Option configures Run and RunMCP.
type Option func(*application)

// WithConfig supplies the loaded configuration. Run and RunMCP refuse to
// start without one.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}
