package nlxd

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// APIVersion is the REST API version prefix requests are sent under.
type APIVersion string

// Supported API versions.
const (
	APIv1 APIVersion = "1.0"
)

// DefaultProject is the project used when none is configured.
const DefaultProject = "default"

const (
	defaultServerTimeout     = 30 * time.Second
	defaultConnectionTimeout = 10 * time.Second
)

// Timeouts is the pair of deadlines applied to every request.
type Timeouts struct {
	// Server bounds the wait for response headers once the request is sent.
	Server time.Duration `yaml:"server"`

	// Connection bounds establishing the connection.
	Connection time.Duration `yaml:"connection"`
}

// TimeoutsFromSeconds uses the same number of seconds for both deadlines.
func TimeoutsFromSeconds(seconds int) Timeouts {
	d := time.Duration(seconds) * time.Second
	return Timeouts{Server: d, Connection: d}
}

// ClientConfig describes how to reach the daemon.
//
// It is consumed once by [NewClient] and never mutated afterwards.
//
//	cfg := nlxd.DefaultConfig()
//	cfg.Project = "staging"
//	client, err := nlxd.NewClient(cfg)
type ClientConfig struct {
	// Endpoint is the daemon address. When zero, the socket is located
	// with a [Resolver] at client construction.
	Endpoint Endpoint

	// Version is the API version prefix. Defaults to [APIv1].
	Version APIVersion

	// InsecureSkipVerify disables TLS certificate verification for https
	// endpoints. It maps to "verify: false" in a config file and has no
	// effect on socket endpoints.
	InsecureSkipVerify bool

	// Timeouts holds the server and connection deadlines. Zero values
	// take the defaults.
	Timeouts Timeouts

	// Project is the target project. Defaults to [DefaultProject].
	Project string
}

// DefaultConfig returns a configuration that auto-detects the local socket.
func DefaultConfig() ClientConfig {
	return ClientConfig{
		Version: APIv1,
		Timeouts: Timeouts{
			Server:     defaultServerTimeout,
			Connection: defaultConnectionTimeout,
		},
		Project: DefaultProject,
	}
}

// withDefaults fills unset fields and checks the result.
func (c ClientConfig) withDefaults() (ClientConfig, error) {
	if c.Version == "" {
		c.Version = APIv1
	}
	if c.Version != APIv1 {
		return c, derive(ErrConfig, fmt.Sprintf("unsupported API version %q", c.Version), nil)
	}
	if c.Timeouts.Server == 0 {
		c.Timeouts.Server = defaultServerTimeout
	}
	if c.Timeouts.Connection == 0 {
		c.Timeouts.Connection = defaultConnectionTimeout
	}
	if c.Timeouts.Server < 0 || c.Timeouts.Connection < 0 {
		return c, derive(ErrConfig, "timeouts must not be negative", nil)
	}
	if c.Project == "" {
		c.Project = DefaultProject
	}
	if !c.Endpoint.IsZero() {
		switch c.Endpoint.Kind() {
		case SocketEndpoint:
			if c.Endpoint.SocketPath() == "" {
				return c, derive(ErrConfig, "socket endpoint without a path", nil)
			}
		case NetworkEndpoint:
			if s := c.Endpoint.Scheme(); s != "http" && s != "https" {
				return c, derive(ErrConfig, fmt.Sprintf("unsupported endpoint scheme %q", s), nil)
			}
			if c.Endpoint.Host() == "" {
				return c, derive(ErrConfig, "network endpoint without a host", nil)
			}
		}
	}
	return c, nil
}

// fileConfig is the YAML shape of a ClientConfig.
type fileConfig struct {
	Endpoint   string   `yaml:"endpoint"`
	APIVersion string   `yaml:"api_version"`
	Verify     *bool    `yaml:"verify"`
	Timeouts   Timeouts `yaml:"timeouts"`
	Project    string   `yaml:"project"`
}

// LoadConfig reads a ClientConfig from a YAML file:
//
//	endpoint: https://lxd.example.com:8443
//	api_version: "1.0"
//	verify: false
//	timeouts:
//	  server: 30s
//	  connection: 5s
//	project: staging
//
// Omitted keys take the values of [DefaultConfig].
func LoadConfig(path string) (ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ClientConfig{}, derive(ErrConfig, "reading config file", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a YAML document in the format read by [LoadConfig].
func ParseConfig(data []byte) (ClientConfig, error) {
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return ClientConfig{}, derive(ErrConfig, "parsing config file", err)
	}

	cfg := DefaultConfig()
	if fc.Endpoint != "" {
		ep, err := ParseEndpoint(fc.Endpoint)
		if err != nil {
			return ClientConfig{}, err
		}
		cfg.Endpoint = ep
	}
	if fc.APIVersion != "" {
		cfg.Version = APIVersion(fc.APIVersion)
	}
	if fc.Verify != nil {
		cfg.InsecureSkipVerify = !*fc.Verify
	}
	if fc.Timeouts.Server != 0 {
		cfg.Timeouts.Server = fc.Timeouts.Server
	}
	if fc.Timeouts.Connection != 0 {
		cfg.Timeouts.Connection = fc.Timeouts.Connection
	}
	if fc.Project != "" {
		cfg.Project = fc.Project
	}
	return cfg.withDefaults()
}
