package checkout

import "time"

// Config contains controller configuration.
type Config struct {
	// PollInterval is the delay between status polls.
	PollInterval time.Duration `json:"poll_interval" yaml:"poll_interval" mapstructure:"poll_interval"`
	// MaxBackoff caps the delay after consecutive transient poll errors.
	MaxBackoff time.Duration `json:"max_backoff" yaml:"max_backoff" mapstructure:"max_backoff"`
	// PollTimeout ends the attempt as failed when exceeded. Zero disables it.
	PollTimeout time.Duration `json:"poll_timeout" yaml:"poll_timeout" mapstructure:"poll_timeout"`
	// RequestTimeout bounds a single status request.
	RequestTimeout time.Duration `json:"request_timeout" yaml:"request_timeout" mapstructure:"request_timeout"`
}

// DefaultConfig returns the default controller configuration.
func DefaultConfig() *Config {
	return &Config{
		PollInterval:   2 * time.Second,
		MaxBackoff:     30 * time.Second,
		PollTimeout:    0,
		RequestTimeout: 30 * time.Second,
	}
}

func (c *Config) withDefaults() *Config {
	d := DefaultConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.PollInterval <= 0 {
		out.PollInterval = d.PollInterval
	}
	if out.MaxBackoff < out.PollInterval {
		out.MaxBackoff = out.PollInterval
	}
	if out.RequestTimeout <= 0 {
		out.RequestTimeout = d.RequestTimeout
	}
	if out.PollTimeout < 0 {
		out.PollTimeout = 0
	}
	return &out
}

// backoff returns the delay before the next poll after failures consecutive
// transient errors. A single failure keeps the regular interval.
func (c *Config) backoff(failures int) time.Duration {
	d := c.PollInterval
	for i := 1; i < failures && d < c.MaxBackoff; i++ {
		d *= 2
	}
	if d > c.MaxBackoff {
		d = c.MaxBackoff
	}
	return d
}
