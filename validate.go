package nlxd

import (
	"sort"

	"github.com/go-openapi/errors"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/swag"
	"github.com/go-openapi/validate"
)

const (
	maxInstanceNameLength = 63
	instanceNamePattern   = `^[A-Za-z][A-Za-z0-9-]*$`
)

// sourceFields maps each source field to the kinds allowed to set it.
var sourceFields = []struct {
	name  string
	isSet func(*InstanceSource) bool
	kinds []SourceKind
}{
	{"alias", func(s *InstanceSource) bool { return s.Alias != "" }, []SourceKind{SourceLocalImage, SourceRemoteImage}},
	{"fingerprint", func(s *InstanceSource) bool { return s.Fingerprint != "" }, []SourceKind{SourceLocalImage, SourceRemoteImage}},
	{"properties", func(s *InstanceSource) bool { return len(s.Properties) > 0 }, []SourceKind{SourceLocalImage, SourceRemoteImage}},
	{"server", func(s *InstanceSource) bool { return s.Server != "" }, []SourceKind{SourceRemoteImage}},
	{"protocol", func(s *InstanceSource) bool { return s.Protocol != "" }, []SourceKind{SourceRemoteImage}},
	{"secret", func(s *InstanceSource) bool { return s.Secret != "" }, []SourceKind{SourceRemoteImage}},
	{"certificate", func(s *InstanceSource) bool { return s.Certificate != "" }, []SourceKind{SourceRemoteImage, SourceMigration}},
	{"source", func(s *InstanceSource) bool { return s.Source != "" }, []SourceKind{SourceCopy}},
	{"refresh", func(s *InstanceSource) bool { return s.Refresh != nil }, []SourceKind{SourceCopy, SourceMigration}},
	{"instance_only", func(s *InstanceSource) bool { return s.InstanceOnly }, []SourceKind{SourceCopy, SourceMigration}},
	{"project", func(s *InstanceSource) bool { return s.Project != "" }, []SourceKind{SourceCopy}},
	{"mode", func(s *InstanceSource) bool { return s.Mode != "" }, []SourceKind{SourceMigration}},
	{"operation", func(s *InstanceSource) bool { return s.Operation != "" }, []SourceKind{SourceMigration}},
	{"secrets", func(s *InstanceSource) bool { return len(s.Secrets) > 0 }, []SourceKind{SourceMigration}},
}

// Validate checks the request before it is sent.
//
// Every source kind requires its own fields and rejects fields that belong
// to other kinds:
//   - local-image: alias or fingerprint
//   - remote-image: server (a URI), protocol, and alias or fingerprint; secret is optional
//   - copy: source and refresh
//   - migration: mode and operation (a URI)
//
// The returned error is a go-openapi *errors.CompositeError listing every
// problem found.
func (r *NewInstance) Validate(formats strfmt.Registry) error {
	var res []error

	if r.Name != "" {
		if err := validate.MaxLength("name", "body", r.Name, maxInstanceNameLength); err != nil {
			res = append(res, err)
		}
		if err := validate.Pattern("name", "body", r.Name, instanceNamePattern); err != nil {
			res = append(res, err)
		}
	}

	if r.Type != "" {
		if err := validate.EnumCase("type", "body", string(r.Type), []any{string(InstanceContainer), string(InstanceVirtualMachine)}, true); err != nil {
			res = append(res, err)
		}
	}

	deviceNames := make([]string, 0, len(r.Devices))
	for name := range r.Devices {
		deviceNames = append(deviceNames, name)
	}
	sort.Strings(deviceNames)
	for _, name := range deviceNames {
		if !knownDeviceKinds[r.Devices[name].Kind] {
			res = append(res, errors.EnumFail("devices."+name+".type", "body", string(r.Devices[name].Kind), deviceKindValues()))
		}
	}

	res = append(res, r.Source.validate(formats)...)

	if len(res) > 0 {
		return errors.CompositeValidationError(res...)
	}
	return nil
}

func (s *InstanceSource) validate(formats strfmt.Registry) []error {
	kind := s.Kind
	if kind == "" {
		kind = SourceNone
	}

	var res []error
	if err := validate.EnumCase("source.type", "body", string(kind), []any{
		string(SourceNone), string(SourceLocalImage), string(SourceRemoteImage),
		string(SourceCopy), string(SourceMigration),
	}, true); err != nil {
		return append(res, err)
	}

	for _, f := range sourceFields {
		if f.isSet(s) && !allowsKind(f.kinds, kind) {
			res = append(res, errors.PropertyNotAllowed("source", "body", f.name))
		}
	}

	switch kind {
	case SourceLocalImage:
		if s.Alias == "" && s.Fingerprint == "" {
			res = append(res, errors.Required("source.alias", "body", nil))
		}

	case SourceRemoteImage:
		if s.Alias == "" && s.Fingerprint == "" {
			res = append(res, errors.Required("source.alias", "body", nil))
		}
		if err := validate.RequiredString("source.server", "body", s.Server); err != nil {
			res = append(res, err)
		} else if err := validate.FormatOf("source.server", "body", "uri", s.Server, formats); err != nil {
			res = append(res, err)
		}
		if err := validate.RequiredString("source.protocol", "body", string(s.Protocol)); err != nil {
			res = append(res, err)
		} else if err := validate.EnumCase("source.protocol", "body", string(s.Protocol), []any{string(ProtocolLXD), string(ProtocolSimpleStreams)}, true); err != nil {
			res = append(res, err)
		}

	case SourceCopy:
		if err := validate.RequiredString("source.source", "body", s.Source); err != nil {
			res = append(res, err)
		}
		if s.Refresh == nil {
			res = append(res, errors.Required("source.refresh", "body", nil))
		}

	case SourceMigration:
		if err := validate.RequiredString("source.mode", "body", string(s.Mode)); err != nil {
			res = append(res, err)
		} else if err := validate.EnumCase("source.mode", "body", string(s.Mode), []any{string(MigrationPull), string(MigrationPush), string(MigrationRelay)}, true); err != nil {
			res = append(res, err)
		}
		if err := validate.RequiredString("source.operation", "body", s.Operation); err != nil {
			res = append(res, err)
		} else if err := validate.FormatOf("source.operation", "body", "uri", s.Operation, formats); err != nil {
			res = append(res, err)
		}
	}

	return res
}

// RefreshRequested reports whether a copy source asks for a refresh.
func (s *InstanceSource) RefreshRequested() bool {
	return swag.BoolValue(s.Refresh)
}

func allowsKind(kinds []SourceKind, kind SourceKind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

func deviceKindValues() []any {
	values := make([]any, 0, len(knownDeviceKinds))
	for k := range knownDeviceKinds {
		values = append(values, string(k))
	}
	sort.Slice(values, func(i, j int) bool { return values[i].(string) < values[j].(string) })
	return values
}
