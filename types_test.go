package nlxd_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomblancdev/nlxd-go"
)

// TestDevice_JSON tests the flat wire form of devices.
func TestDevice_JSON(t *testing.T) {
	// Arrange
	dev := nlxd.Device{
		Kind:    nlxd.DeviceNIC,
		Options: map[string]string{"network": "lxdbr0", "name": "eth0"},
	}

	// Act
	data, err := json.Marshal(dev)
	require.NoError(t, err)

	var flat map[string]string
	require.NoError(t, json.Unmarshal(data, &flat))

	var decoded nlxd.Device
	require.NoError(t, json.Unmarshal(data, &decoded))

	// Assert
	assert.Equal(t, map[string]string{"type": "nic", "network": "lxdbr0", "name": "eth0"}, flat)
	assert.Equal(t, dev, decoded)
	assert.NotContains(t, dev.Options, "type", "marshalling must not modify Options")
}

func TestDevice_UnknownKind(t *testing.T) {
	var d nlxd.Device
	err := json.Unmarshal([]byte(`{"type":"floppy"}`), &d)
	assert.Error(t, err)
}

func TestEnumeratedTypes_RejectUnknown(t *testing.T) {
	var arch nlxd.Architecture
	assert.NoError(t, json.Unmarshal([]byte(`"riscv64"`), &arch))
	assert.Equal(t, nlxd.ArchRiscv64, arch)
	assert.Error(t, json.Unmarshal([]byte(`"z80"`), &arch))

	var it nlxd.InstanceType
	assert.NoError(t, json.Unmarshal([]byte(`"virtual-machine"`), &it))
	assert.Error(t, json.Unmarshal([]byte(`"jail"`), &it))

	var imgType nlxd.ImageType
	assert.NoError(t, json.Unmarshal([]byte(`""`), &imgType))
	assert.Error(t, json.Unmarshal([]byte(`"disk"`), &imgType))

	var proto nlxd.RemoteImageProtocol
	assert.NoError(t, json.Unmarshal([]byte(`"lxd"`), &proto))
	assert.Error(t, json.Unmarshal([]byte(`"oci"`), &proto))
}
