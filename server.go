package nlxd

import (
	"context"
	"net/http"
	"slices"
)

// ServerEnvironment describes the host the daemon runs on.
type ServerEnvironment struct {
	Addresses          []string `json:"addresses"`
	Architectures      []string `json:"architectures"`
	Driver             string   `json:"driver"`
	DriverVersion      string   `json:"driver_version"`
	Kernel             string   `json:"kernel"`
	KernelArchitecture string   `json:"kernel_architecture"`
	KernelVersion      string   `json:"kernel_version"`
	OSName             string   `json:"os_name"`
	OSVersion          string   `json:"os_version"`
	Project            string   `json:"project"`
	Server             string   `json:"server"`
	ServerClustered    bool     `json:"server_clustered"`
	ServerName         string   `json:"server_name"`
	ServerPid          int      `json:"server_pid"`
	ServerVersion      string   `json:"server_version"`
	Storage            string   `json:"storage"`
	StorageVersion     string   `json:"storage_version"`
}

// ServerInfo is the daemon description returned by the API root.
type ServerInfo struct {
	APIExtensions []string          `json:"api_extensions"`
	APIStatus     string            `json:"api_status"`
	APIVersion    string            `json:"api_version"`
	Auth          string            `json:"auth"`
	AuthMethods   []string          `json:"auth_methods"`
	Public        bool              `json:"public"`
	Config        map[string]any    `json:"config"`
	Environment   ServerEnvironment `json:"environment"`
}

// HasExtension reports whether the daemon advertises an API extension.
func (s *ServerInfo) HasExtension(name string) bool {
	return slices.Contains(s.APIExtensions, name)
}

// IsTrusted returns true if the client is authenticated as trusted.
func (s *ServerInfo) IsTrusted() bool {
	return s.Auth == "trusted"
}

// Server fetches the daemon description.
//
// Example:
//
//	info, err := client.Server(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("LXD %s on %s\n", info.Environment.ServerVersion, info.Environment.KernelVersion)
func (c *Client) Server(ctx context.Context) (*ServerInfo, error) {
	return syncRequest[ServerInfo](ctx, c, http.MethodGet, c.apiPath(), nil)
}

// CheckServer fetches the daemon description and checks its version
// against [ServerVersionRange].
func (c *Client) CheckServer(ctx context.Context) (*CompatibilityResult, error) {
	info, err := c.Server(ctx)
	if err != nil {
		return nil, err
	}
	result := CheckCompatibility(info.Environment.ServerVersion)
	if !result.IsCompatible() {
		c.logger.Warn().
			Str("server_version", result.ServerVersion).
			Str("supported_range", result.SupportedRange).
			Msg(result.Message)
	}
	return result, nil
}
