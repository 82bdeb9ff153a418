package nlxd_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomblancdev/nlxd-go"
)

// TestNewInstance_Validate tests request validation per source kind.
func TestNewInstance_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     *nlxd.NewInstance
		wantErr string
	}{
		{
			name: "local image by alias",
			req:  nlxd.NewInstanceFromImage("web", "ubuntu/22.04"),
		},
		{
			name: "local image by fingerprint",
			req: &nlxd.NewInstance{Name: "web", Source: nlxd.InstanceSource{
				Kind: nlxd.SourceLocalImage, Fingerprint: "a1b2c3",
			}},
		},
		{
			name: "remote image",
			req:  nlxd.NewInstanceFromRemoteImage("web", "https://cloud-images.ubuntu.com/releases", nlxd.ProtocolSimpleStreams, "22.04"),
		},
		{
			name: "copy",
			req:  nlxd.NewInstanceCopy("web2", "web", false),
		},
		{
			name: "migration",
			req: &nlxd.NewInstance{Name: "web", Source: nlxd.InstanceSource{
				Kind:      nlxd.SourceMigration,
				Mode:      nlxd.MigrationPull,
				Operation: "https://10.0.0.2:8443/1.0/operations/abc",
				Secrets:   map[string]string{"control": "s1", "fs": "s2"},
			}},
		},
		{
			name: "no source",
			req:  &nlxd.NewInstance{Name: "empty"},
		},
		{
			name:    "local image without alias",
			req:     nlxd.NewInstanceFromImage("web", ""),
			wantErr: "source.alias",
		},
		{
			name:    "remote image without server",
			req:     nlxd.NewInstanceFromRemoteImage("web", "", nlxd.ProtocolLXD, "22.04"),
			wantErr: "source.server",
		},
		{
			name:    "remote image with unknown protocol",
			req:     nlxd.NewInstanceFromRemoteImage("web", "https://images.example.com", "oci", "22.04"),
			wantErr: "source.protocol",
		},
		{
			name: "copy without refresh",
			req: &nlxd.NewInstance{Name: "web2", Source: nlxd.InstanceSource{
				Kind: nlxd.SourceCopy, Source: "web",
			}},
			wantErr: "source.refresh",
		},
		{
			name: "migration without operation",
			req: &nlxd.NewInstance{Name: "web", Source: nlxd.InstanceSource{
				Kind: nlxd.SourceMigration, Mode: nlxd.MigrationPush,
			}},
			wantErr: "source.operation",
		},
		{
			name: "field from another source kind",
			req: &nlxd.NewInstance{Name: "web", Source: nlxd.InstanceSource{
				Kind: nlxd.SourceLocalImage, Alias: "ubuntu/22.04", Server: "https://images.example.com",
			}},
			wantErr: "server",
		},
		{
			name: "copy with an alias",
			req: &nlxd.NewInstance{Name: "web2", Source: nlxd.InstanceSource{
				Kind: nlxd.SourceCopy, Source: "web", Refresh: swag.Bool(true), Alias: "ubuntu/22.04",
			}},
			wantErr: "alias",
		},
		{
			name:    "invalid name",
			req:     nlxd.NewInstanceFromImage("1web", "ubuntu/22.04"),
			wantErr: "name",
		},
		{
			name:    "name too long",
			req:     nlxd.NewInstanceFromImage("w"+strings.Repeat("e", 63), "ubuntu/22.04"),
			wantErr: "name",
		},
		{
			name: "unknown instance type",
			req: &nlxd.NewInstance{Name: "web", Type: "jail", Source: nlxd.InstanceSource{
				Kind: nlxd.SourceLocalImage, Alias: "ubuntu/22.04",
			}},
			wantErr: "type",
		},
		{
			name: "unknown device kind",
			req: &nlxd.NewInstance{Name: "web", Devices: map[string]nlxd.Device{
				"fd0": {Kind: "floppy"},
			}},
			wantErr: "devices.fd0.type",
		},
		{
			name: "unknown source kind",
			req: &nlxd.NewInstance{Name: "web", Source: nlxd.InstanceSource{
				Kind: "snapshot",
			}},
			wantErr: "source.type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate(strfmt.Default)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var composite *errors.CompositeError
			require.ErrorAs(t, err, &composite)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

// TestInstanceSource_Wire tests the wire form of every source kind.
func TestInstanceSource_Wire(t *testing.T) {
	tests := []struct {
		name     string
		source   nlxd.InstanceSource
		wantType string
	}{
		{name: "none", source: nlxd.InstanceSource{}, wantType: "none"},
		{name: "local image", source: nlxd.InstanceSource{Kind: nlxd.SourceLocalImage, Alias: "a"}, wantType: "image"},
		{name: "remote image", source: nlxd.InstanceSource{Kind: nlxd.SourceRemoteImage, Alias: "a", Server: "https://s", Protocol: nlxd.ProtocolLXD}, wantType: "image"},
		{name: "copy", source: nlxd.InstanceSource{Kind: nlxd.SourceCopy, Source: "web", Refresh: swag.Bool(false)}, wantType: "copy"},
		{name: "migration", source: nlxd.InstanceSource{Kind: nlxd.SourceMigration, Mode: nlxd.MigrationPull, Operation: "https://s/1.0/operations/x"}, wantType: "migration"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.source)
			require.NoError(t, err)

			var wire map[string]any
			require.NoError(t, json.Unmarshal(data, &wire))
			assert.Equal(t, tt.wantType, wire["type"])

			var decoded nlxd.InstanceSource
			require.NoError(t, json.Unmarshal(data, &decoded))
			want := tt.source
			if want.Kind == "" {
				want.Kind = nlxd.SourceNone
			}
			assert.Equal(t, want, decoded)
		})
	}
}

func TestInstanceSource_RefreshRequested(t *testing.T) {
	assert.True(t, nlxd.NewInstanceCopy("b", "a", true).Source.RefreshRequested())
	assert.False(t, nlxd.NewInstanceCopy("b", "a", false).Source.RefreshRequested())
	assert.False(t, (&nlxd.InstanceSource{}).RefreshRequested())
}

func TestInstanceSource_UnknownWireType(t *testing.T) {
	var s nlxd.InstanceSource
	err := json.Unmarshal([]byte(`{"type":"snapshot"}`), &s)
	assert.Error(t, err)
}
