package nlxd

import (
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// Version is the current SDK version.
//
// This version follows semantic versioning (https://semver.org/).
// The version is incremented according to the following rules:
//   - MAJOR: Breaking changes to the public API
//   - MINOR: New features, backwards compatible
//   - PATCH: Bug fixes, backwards compatible
const Version = "0.1.0"

// TargetServerVersion is the daemon release this SDK is tested against.
const TargetServerVersion = "5.21.0"

// ServerVersionRange is the semver constraint on daemon releases the SDK
// supports. Use [CheckCompatibility] or [Client.CheckServer] to test a
// daemon at runtime.
const ServerVersionRange = ">= 4.0.0, < 7.0.0"

// CompatibilityStatus is the outcome of a version check.
type CompatibilityStatus int

const (
	// Unknown means the server version could not be parsed.
	Unknown CompatibilityStatus = iota

	// Compatible means the server version is within ServerVersionRange.
	Compatible

	// Incompatible means the server version is outside ServerVersionRange.
	Incompatible
)

func (s CompatibilityStatus) String() string {
	switch s {
	case Compatible:
		return "compatible"
	case Incompatible:
		return "incompatible"
	default:
		return "unknown"
	}
}

// CompatibilityResult describes how a daemon version relates to the SDK.
type CompatibilityResult struct {
	Status              CompatibilityStatus
	ServerVersion       string
	SDKVersion          string
	TargetServerVersion string
	SupportedRange      string
	Message             string
}

// IsCompatible returns true if the status is Compatible.
func (r *CompatibilityResult) IsCompatible() bool {
	return r.Status == Compatible
}

var serverRange = mustConstraint(ServerVersionRange)

func mustConstraint(c string) *semver.Constraints {
	constraints, err := semver.NewConstraint(c)
	if err != nil {
		panic(fmt.Sprintf("nlxd: invalid version constraint %q: %v", c, err))
	}
	return constraints
}

// CheckCompatibility classifies a daemon version such as "5.21.1".
func CheckCompatibility(serverVersion string) *CompatibilityResult {
	result := &CompatibilityResult{
		ServerVersion:       serverVersion,
		SDKVersion:          Version,
		TargetServerVersion: TargetServerVersion,
		SupportedRange:      ServerVersionRange,
	}

	v, err := semver.NewVersion(serverVersion)
	if err != nil {
		result.Status = Unknown
		result.Message = fmt.Sprintf("cannot parse server version %q: %v", serverVersion, err)
		return result
	}

	if serverRange.Check(v) {
		result.Status = Compatible
		result.Message = fmt.Sprintf("server version %s is compatible (supported: %s)", serverVersion, ServerVersionRange)
	} else {
		result.Status = Incompatible
		result.Message = fmt.Sprintf("server version %s is not compatible (supported: %s)", serverVersion, ServerVersionRange)
	}
	return result
}

// IsCompatible reports whether serverVersion is within ServerVersionRange.
func IsCompatible(serverVersion string) bool {
	return CheckCompatibility(serverVersion).IsCompatible()
}

// MustBeCompatible panics unless serverVersion is compatible.
func MustBeCompatible(serverVersion string) {
	if result := CheckCompatibility(serverVersion); !result.IsCompatible() {
		panic("nlxd: " + result.Message)
	}
}
