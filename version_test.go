package nlxd_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tomblancdev/nlxd-go"
)

// TestVersion_Constants verifies version constants are set correctly.
func TestVersion_Constants(t *testing.T) {
	assert.NotEmpty(t, nlxd.Version, "Version should not be empty")
	assert.NotEmpty(t, nlxd.TargetServerVersion, "TargetServerVersion should not be empty")
	assert.NotEmpty(t, nlxd.ServerVersionRange, "ServerVersionRange should not be empty")
	assert.True(t, nlxd.IsCompatible(nlxd.TargetServerVersion), "target version must satisfy the supported range")

	t.Logf("SDK Version: %s", nlxd.Version)
	t.Logf("Target Server Version: %s", nlxd.TargetServerVersion)
	t.Logf("Supported Range: %s", nlxd.ServerVersionRange)
}

// TestIsCompatible tests the IsCompatible convenience function.
func TestIsCompatible(t *testing.T) {
	tests := []struct {
		name       string
		version    string
		compatible bool
	}{
		{name: "exact target version", version: "5.21.0", compatible: true},
		{name: "patch version in range", version: "5.21.3", compatible: true},
		{name: "lowest supported", version: "4.0.0", compatible: true},
		{name: "newer supported major", version: "6.1.0", compatible: true},
		{name: "version too old", version: "3.0.4", compatible: false},
		{name: "version too new", version: "7.0.0", compatible: false},
		{name: "invalid version", version: "not-a-version", compatible: false},
		{name: "empty version", version: "", compatible: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.compatible, nlxd.IsCompatible(tt.version))
		})
	}
}

// TestCheckCompatibility tests the detailed compatibility check.
func TestCheckCompatibility(t *testing.T) {
	tests := []struct {
		name           string
		version        string
		expectedStatus nlxd.CompatibilityStatus
		containsMsg    string
	}{
		{name: "compatible version", version: "5.21.1", expectedStatus: nlxd.Compatible, containsMsg: "is compatible"},
		{name: "incompatible version", version: "3.0.0", expectedStatus: nlxd.Incompatible, containsMsg: "not compatible"},
		{name: "unparseable version", version: "latest", expectedStatus: nlxd.Unknown, containsMsg: "cannot parse"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := nlxd.CheckCompatibility(tt.version)

			assert.Equal(t, tt.expectedStatus, result.Status)
			assert.Equal(t, tt.version, result.ServerVersion)
			assert.Equal(t, nlxd.Version, result.SDKVersion)
			assert.Equal(t, nlxd.TargetServerVersion, result.TargetServerVersion)
			assert.Equal(t, nlxd.ServerVersionRange, result.SupportedRange)
			assert.Contains(t, result.Message, tt.containsMsg)
			assert.Equal(t, tt.expectedStatus == nlxd.Compatible, result.IsCompatible())
		})
	}
}

// TestCompatibilityStatus_String tests the String method.
func TestCompatibilityStatus_String(t *testing.T) {
	assert.Equal(t, "compatible", nlxd.Compatible.String())
	assert.Equal(t, "incompatible", nlxd.Incompatible.String())
	assert.Equal(t, "unknown", nlxd.Unknown.String())
}

// TestMustBeCompatible tests the panic behavior.
func TestMustBeCompatible(t *testing.T) {
	assert.NotPanics(t, func() { nlxd.MustBeCompatible("5.21.0") })
	assert.Panics(t, func() { nlxd.MustBeCompatible("3.0.0") })
}
