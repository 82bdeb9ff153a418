package nlxd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
)

// SourceKind selects how a new instance is populated.
type SourceKind string

// Source kinds. Local and remote images share the wire type "image" and
// are told apart by the presence of a server.
const (
	SourceNone        SourceKind = "none"
	SourceLocalImage  SourceKind = "local-image"
	SourceRemoteImage SourceKind = "remote-image"
	SourceCopy        SourceKind = "copy"
	SourceMigration   SourceKind = "migration"
)

// MigrationMode is the direction of a migration source.
type MigrationMode string

// Migration modes.
const (
	MigrationPull  MigrationMode = "pull"
	MigrationPush  MigrationMode = "push"
	MigrationRelay MigrationMode = "relay"
)

// InstanceSource describes where a new instance comes from. Each Kind uses
// its own set of fields; see [NewInstance.Validate].
type InstanceSource struct {
	Kind SourceKind

	// Image sources (local and remote).
	Alias       string
	Fingerprint string
	Properties  map[string]string

	// Remote image sources.
	Server      string
	Protocol    RemoteImageProtocol
	Secret      string
	Certificate string

	// Copy sources. Source is the name of the instance to copy.
	Source       string
	Refresh      *bool
	InstanceOnly bool
	Project      string

	// Migration sources.
	Mode      MigrationMode
	Operation string
	Secrets   map[string]string
}

// sourceWire is the daemon's representation of an instance source.
type sourceWire struct {
	Type         string              `json:"type"`
	Alias        string              `json:"alias,omitempty"`
	Fingerprint  string              `json:"fingerprint,omitempty"`
	Properties   map[string]string   `json:"properties,omitempty"`
	Server       string              `json:"server,omitempty"`
	Protocol     RemoteImageProtocol `json:"protocol,omitempty"`
	Secret       string              `json:"secret,omitempty"`
	Certificate  string              `json:"certificate,omitempty"`
	Source       string              `json:"source,omitempty"`
	Refresh      *bool               `json:"refresh,omitempty"`
	InstanceOnly bool                `json:"instance_only,omitempty"`
	Project      string              `json:"project,omitempty"`
	Mode         MigrationMode       `json:"mode,omitempty"`
	Operation    string              `json:"operation,omitempty"`
	Secrets      map[string]string   `json:"secrets,omitempty"`
}

// MarshalJSON writes the source with the daemon's type names.
func (s InstanceSource) MarshalJSON() ([]byte, error) {
	w := sourceWire{
		Alias:        s.Alias,
		Fingerprint:  s.Fingerprint,
		Properties:   s.Properties,
		Server:       s.Server,
		Protocol:     s.Protocol,
		Secret:       s.Secret,
		Certificate:  s.Certificate,
		Source:       s.Source,
		Refresh:      s.Refresh,
		InstanceOnly: s.InstanceOnly,
		Project:      s.Project,
		Mode:         s.Mode,
		Operation:    s.Operation,
		Secrets:      s.Secrets,
	}
	switch s.Kind {
	case SourceLocalImage, SourceRemoteImage:
		w.Type = "image"
	case "", SourceNone:
		w.Type = "none"
	case SourceCopy, SourceMigration:
		w.Type = string(s.Kind)
	default:
		return nil, fmt.Errorf("unknown source kind %q", s.Kind)
	}
	return json.Marshal(w)
}

// UnmarshalJSON decides the source kind from the wire type.
func (s *InstanceSource) UnmarshalJSON(data []byte) error {
	var w sourceWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	var kind SourceKind
	switch w.Type {
	case "", "none":
		kind = SourceNone
	case "image":
		kind = SourceLocalImage
		if w.Server != "" {
			kind = SourceRemoteImage
		}
	case "copy":
		kind = SourceCopy
	case "migration":
		kind = SourceMigration
	default:
		return fmt.Errorf("unknown source type %q", w.Type)
	}
	*s = InstanceSource{
		Kind:         kind,
		Alias:        w.Alias,
		Fingerprint:  w.Fingerprint,
		Properties:   w.Properties,
		Server:       w.Server,
		Protocol:     w.Protocol,
		Secret:       w.Secret,
		Certificate:  w.Certificate,
		Source:       w.Source,
		Refresh:      w.Refresh,
		InstanceOnly: w.InstanceOnly,
		Project:      w.Project,
		Mode:         w.Mode,
		Operation:    w.Operation,
		Secrets:      w.Secrets,
	}
	return nil
}

// NewInstance is the request body for creating an instance.
type NewInstance struct {
	// Name of the instance. The daemon picks one when empty.
	Name        string            `json:"name,omitempty"`
	Description string            `json:"description,omitempty"`
	Type        InstanceType      `json:"type,omitempty"`
	Profiles    []string          `json:"profiles,omitempty"`
	Config      map[string]string `json:"config,omitempty"`
	Devices     map[string]Device `json:"devices,omitempty"`
	Ephemeral   bool              `json:"ephemeral,omitempty"`
	Source      InstanceSource    `json:"source"`
}

// NewInstanceFromImage returns a request creating a container from a local
// image alias.
func NewInstanceFromImage(name, alias string) *NewInstance {
	return &NewInstance{
		Name: name,
		Type: InstanceContainer,
		Source: InstanceSource{
			Kind:  SourceLocalImage,
			Alias: alias,
		},
	}
}

// NewInstanceFromRemoteImage returns a request creating a container from
// an image alias on a remote image server.
//
//	req := nlxd.NewInstanceFromRemoteImage("web", "https://cloud-images.ubuntu.com/releases",
//	    nlxd.ProtocolSimpleStreams, "22.04")
func NewInstanceFromRemoteImage(name, server string, protocol RemoteImageProtocol, alias string) *NewInstance {
	return &NewInstance{
		Name: name,
		Type: InstanceContainer,
		Source: InstanceSource{
			Kind:     SourceRemoteImage,
			Server:   server,
			Protocol: protocol,
			Alias:    alias,
		},
	}
}

// NewInstanceCopy returns a request copying an existing instance.
func NewInstanceCopy(name, source string, refresh bool) *NewInstance {
	return &NewInstance{
		Name: name,
		Source: InstanceSource{
			Kind:    SourceCopy,
			Source:  source,
			Refresh: swag.Bool(refresh),
		},
	}
}

// InstanceAction is a state change requested through [Client.UpdateInstanceState].
type InstanceAction string

// Instance actions.
const (
	ActionStart    InstanceAction = "start"
	ActionStop     InstanceAction = "stop"
	ActionRestart  InstanceAction = "restart"
	ActionFreeze   InstanceAction = "freeze"
	ActionUnfreeze InstanceAction = "unfreeze"
)

// InstanceStatePut is the request body for changing an instance's state.
type InstanceStatePut struct {
	Action InstanceAction `json:"action"`

	// Timeout in seconds for stop and restart; -1 waits forever.
	Timeout int `json:"timeout"`

	Force    bool `json:"force"`
	Stateful bool `json:"stateful"`
}

// Instances lists instance names in the client's project.
//
// Only names are returned; use [Client.GetInstance] for details.
func (c *Client) Instances(ctx context.Context) ([]string, error) {
	urls, err := syncRequest[[]string](ctx, c, http.MethodGet, c.apiPath("instances"), nil)
	if err != nil {
		return nil, err
	}
	return namesFromURLs(*urls)
}

// GetInstance fetches an instance by name.
func (c *Client) GetInstance(ctx context.Context, name string) (*Instance, error) {
	if name == "" {
		return nil, derive(ErrInvalidRequest, "instance name is required", nil)
	}
	return syncRequest[Instance](ctx, c, http.MethodGet, c.apiPath("instances", url.PathEscape(name)), nil)
}

// CreateInstance creates an instance and waits for the creation to finish.
//
// A request that fails validation is rejected locally with
// [ErrInvalidRequest]. Once submitted, the creation operation is awaited
// for the configured wait timeout (see [WithWaitTimeout]). A creation the
// daemon reports as failed returns the final operation together with
// [ErrOperationFailed].
//
//	op, err := client.CreateInstance(ctx, nlxd.NewInstanceFromImage("web", "ubuntu/22.04"))
//	if errors.Is(err, nlxd.ErrOperationFailed) {
//	    log.Printf("creation failed: %s", op.Err)
//	}
func (c *Client) CreateInstance(ctx context.Context, req *NewInstance) (*Operation, error) {
	if req == nil {
		return nil, derive(ErrInvalidRequest, "request is required", nil)
	}
	if err := req.Validate(strfmt.Default); err != nil {
		return nil, derive(ErrInvalidRequest, "invalid instance request", err)
	}

	handle, err := c.asyncRequest(ctx, http.MethodPost, c.apiPath("instances"), req)
	if err != nil {
		return nil, err
	}
	return c.WaitOperation(ctx, *handle, c.waitTimeout)
}

// DeleteInstance deletes an instance and waits for the deletion to finish.
func (c *Client) DeleteInstance(ctx context.Context, name string) (*Operation, error) {
	if name == "" {
		return nil, derive(ErrInvalidRequest, "instance name is required", nil)
	}
	handle, err := c.asyncRequest(ctx, http.MethodDelete, c.apiPath("instances", url.PathEscape(name)), nil)
	if err != nil {
		return nil, err
	}
	return c.WaitOperation(ctx, *handle, c.waitTimeout)
}

// UpdateInstanceState starts, stops, restarts, freezes or unfreezes an
// instance and waits for the change to finish.
func (c *Client) UpdateInstanceState(ctx context.Context, name string, state InstanceStatePut) (*Operation, error) {
	if name == "" {
		return nil, derive(ErrInvalidRequest, "instance name is required", nil)
	}
	switch state.Action {
	case ActionStart, ActionStop, ActionRestart, ActionFreeze, ActionUnfreeze:
	default:
		return nil, derive(ErrInvalidRequest, fmt.Sprintf("unknown instance action %q", state.Action), nil)
	}
	handle, err := c.asyncRequest(ctx, http.MethodPut, c.apiPath("instances", url.PathEscape(name), "state"), state)
	if err != nil {
		return nil, err
	}
	return c.WaitOperation(ctx, *handle, c.waitTimeout)
}
