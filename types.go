package nlxd

import (
	"encoding/json"
	"fmt"
	"maps"

	"github.com/go-openapi/strfmt"
)

// InstanceType distinguishes system containers from virtual machines.
type InstanceType string

// Instance types.
const (
	InstanceContainer      InstanceType = "container"
	InstanceVirtualMachine InstanceType = "virtual-machine"
)

// UnmarshalText rejects unknown instance types. An empty value is kept as
// unset.
func (t *InstanceType) UnmarshalText(text []byte) error {
	switch v := InstanceType(text); v {
	case "", InstanceContainer, InstanceVirtualMachine:
		*t = v
		return nil
	default:
		return fmt.Errorf("unknown instance type %q", v)
	}
}

// Architecture is a machine architecture name as reported by the daemon.
type Architecture string

// Architectures known to the daemon.
const (
	ArchI686        Architecture = "i686"
	ArchX86_64      Architecture = "x86_64"
	ArchArmv6l      Architecture = "armv6l"
	ArchArmv7l      Architecture = "armv7l"
	ArchArmv8l      Architecture = "armv8l"
	ArchAarch64     Architecture = "aarch64"
	ArchPpc         Architecture = "ppc"
	ArchPpc64       Architecture = "ppc64"
	ArchPpc64le     Architecture = "ppc64le"
	ArchS390x       Architecture = "s390x"
	ArchMips        Architecture = "mips"
	ArchMips64      Architecture = "mips64"
	ArchRiscv32     Architecture = "riscv32"
	ArchRiscv64     Architecture = "riscv64"
	ArchLoongarch64 Architecture = "loongarch64"
)

var knownArchitectures = map[Architecture]bool{
	ArchI686: true, ArchX86_64: true, ArchArmv6l: true, ArchArmv7l: true,
	ArchArmv8l: true, ArchAarch64: true, ArchPpc: true, ArchPpc64: true,
	ArchPpc64le: true, ArchS390x: true, ArchMips: true, ArchMips64: true,
	ArchRiscv32: true, ArchRiscv64: true, ArchLoongarch64: true,
}

// UnmarshalText rejects unknown architectures. An empty value is kept as
// unset.
func (a *Architecture) UnmarshalText(text []byte) error {
	v := Architecture(text)
	if v != "" && !knownArchitectures[v] {
		return fmt.Errorf("unknown architecture %q", v)
	}
	*a = v
	return nil
}

// DeviceKind is the type of an instance device.
type DeviceKind string

// Device kinds.
const (
	DeviceNone        DeviceKind = "none"
	DeviceNIC         DeviceKind = "nic"
	DeviceDisk        DeviceKind = "disk"
	DeviceUnixChar    DeviceKind = "unix-char"
	DeviceUnixBlock   DeviceKind = "unix-block"
	DeviceUSB         DeviceKind = "usb"
	DeviceGPU         DeviceKind = "gpu"
	DeviceInfiniband  DeviceKind = "infiniband"
	DeviceProxy       DeviceKind = "proxy"
	DeviceUnixHotplug DeviceKind = "unix-hotplug"
	DeviceTPM         DeviceKind = "tpm"
	DevicePCI         DeviceKind = "pci"
)

var knownDeviceKinds = map[DeviceKind]bool{
	DeviceNone: true, DeviceNIC: true, DeviceDisk: true, DeviceUnixChar: true,
	DeviceUnixBlock: true, DeviceUSB: true, DeviceGPU: true, DeviceInfiniband: true,
	DeviceProxy: true, DeviceUnixHotplug: true, DeviceTPM: true, DevicePCI: true,
}

// Device is an instance device. On the wire it is a flat string map whose
// "type" key selects the kind; Options holds the remaining keys.
//
//	root := nlxd.Device{
//	    Kind:    nlxd.DeviceDisk,
//	    Options: map[string]string{"path": "/", "pool": "default"},
//	}
type Device struct {
	Kind    DeviceKind
	Options map[string]string
}

// MarshalJSON implements json.Marshaler.
func (d Device) MarshalJSON() ([]byte, error) {
	m := make(map[string]string, len(d.Options)+1)
	maps.Copy(m, d.Options)
	m["type"] = string(d.Kind)
	return json.Marshal(m)
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Device) UnmarshalJSON(data []byte) error {
	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	kind := DeviceKind(m["type"])
	if !knownDeviceKinds[kind] {
		return fmt.Errorf("unknown device type %q", kind)
	}
	delete(m, "type")
	d.Kind = kind
	d.Options = m
	return nil
}

// Instance is a container or virtual machine.
type Instance struct {
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Architecture Architecture `json:"architecture"`
	Type         InstanceType `json:"type"`
	Project      string       `json:"project"`

	// Location is the cluster member hosting the instance.
	Location string `json:"location"`

	// Status is the name of StatusCode, e.g. "Running".
	Status     string     `json:"status"`
	StatusCode StatusCode `json:"status_code"`

	Ephemeral bool     `json:"ephemeral"`
	Stateful  bool     `json:"stateful"`
	Profiles  []string `json:"profiles"`

	Config          map[string]string `json:"config"`
	Devices         map[string]Device `json:"devices"`
	ExpandedConfig  map[string]string `json:"expanded_config"`
	ExpandedDevices map[string]Device `json:"expanded_devices"`

	CreatedAt  strfmt.DateTime `json:"created_at"`
	LastUsedAt strfmt.DateTime `json:"last_used_at"`
}

// IsRunning returns true if the instance is running.
func (i *Instance) IsRunning() bool {
	return i.StatusCode == Running
}

// ImageType distinguishes container images from virtual machine images.
type ImageType string

// Image types.
const (
	ImageContainer      ImageType = "container"
	ImageVirtualMachine ImageType = "virtual-machine"
)

// UnmarshalText rejects unknown image types.
func (t *ImageType) UnmarshalText(text []byte) error {
	switch v := ImageType(text); v {
	case "", ImageContainer, ImageVirtualMachine:
		*t = v
		return nil
	default:
		return fmt.Errorf("unknown image type %q", v)
	}
}

// RemoteImageProtocol is the protocol spoken by a remote image server.
type RemoteImageProtocol string

// Remote image protocols.
const (
	ProtocolLXD           RemoteImageProtocol = "lxd"
	ProtocolSimpleStreams RemoteImageProtocol = "simplestreams"
)

// UnmarshalText rejects unknown protocols.
func (p *RemoteImageProtocol) UnmarshalText(text []byte) error {
	switch v := RemoteImageProtocol(text); v {
	case "", ProtocolLXD, ProtocolSimpleStreams:
		*p = v
		return nil
	default:
		return fmt.Errorf("unknown image protocol %q", v)
	}
}

// ImageAlias is a name pointing at an image.
type ImageAlias struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ImageSource describes where a cached image came from.
type ImageSource struct {
	Alias       string              `json:"alias"`
	Certificate string              `json:"certificate"`
	Protocol    RemoteImageProtocol `json:"protocol"`
	Server      string              `json:"server"`

	// ImageType is usually "container" or "virtual-machine" but the daemon
	// has been observed to leave it empty.
	ImageType string `json:"image_type"`
}

// Image is an image stored by the daemon.
type Image struct {
	Fingerprint  string       `json:"fingerprint"`
	Filename     string       `json:"filename"`
	Aliases      []ImageAlias `json:"aliases"`
	Architecture Architecture `json:"architecture"`
	Type         ImageType    `json:"type"`
	Project      string       `json:"project"`

	// Size is the image size in bytes.
	Size int64 `json:"size"`

	// AutoUpdate reports whether the image follows new builds.
	AutoUpdate bool `json:"auto_update"`

	// Cached reports whether the image is an automatically cached remote image.
	Cached bool `json:"cached"`

	// Public reports whether unauthenticated users may use the image.
	Public bool `json:"public"`

	Profiles     []string          `json:"profiles"`
	Properties   map[string]string `json:"properties"`
	UpdateSource *ImageSource      `json:"update_source,omitempty"`

	CreatedAt  strfmt.DateTime `json:"created_at"`
	ExpiresAt  strfmt.DateTime `json:"expires_at"`
	LastUsedAt strfmt.DateTime `json:"last_used_at"`
	UploadedAt strfmt.DateTime `json:"uploaded_at"`
}
