package nlxd

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Environment variables consulted when no endpoint is configured.
const (
	// EnvSocket names an explicit socket path.
	EnvSocket = "LXD_SOCKET"

	// EnvDir names the daemon directory; its unix.socket child is used.
	EnvDir = "LXD_DIR"
)

const (
	socketFilename = "unix.socket"

	// SnapSocketPath is the socket of the snap-packaged daemon.
	SnapSocketPath = "/var/snap/lxd/common/lxd/unix.socket"

	// DefaultSocketPath is used when nothing else applies, whether or not
	// it exists.
	DefaultSocketPath = "/var/lib/lxd/unix.socket"

	// socketHost stands in for the authority on socket connections.
	socketHost = "unix.socket"
)

// EndpointKind identifies the transport an [Endpoint] uses.
type EndpointKind int

const (
	// NetworkEndpoint is an HTTP or HTTPS host.
	NetworkEndpoint EndpointKind = iota + 1

	// SocketEndpoint is a Unix domain socket on the local filesystem.
	SocketEndpoint
)

func (k EndpointKind) String() string {
	switch k {
	case NetworkEndpoint:
		return "network"
	case SocketEndpoint:
		return "unix"
	default:
		return "unknown"
	}
}

// Endpoint is the resolved transport target of a [Client].
//
// An Endpoint is either a network host (see [Network]) or a local socket
// (see [LocalSocket]). The zero value is not a valid endpoint. Endpoints
// are immutable.
type Endpoint struct {
	kind   EndpointKind
	scheme string
	host   string
	path   string
}

// Network returns an endpoint for an HTTP(S) daemon.
//
// scheme must be "http" or "https"; host may include a port.
func Network(scheme, host string) Endpoint {
	return Endpoint{kind: NetworkEndpoint, scheme: scheme, host: host}
}

// LocalSocket returns an endpoint for a daemon listening on a Unix socket.
func LocalSocket(path string) Endpoint {
	return Endpoint{kind: SocketEndpoint, path: path}
}

// Kind returns the endpoint variant.
func (e Endpoint) Kind() EndpointKind { return e.kind }

// IsSocket reports whether the endpoint is a local socket.
func (e Endpoint) IsSocket() bool { return e.kind == SocketEndpoint }

// Scheme returns the URL scheme requests are written with.
//
// Socket endpoints always speak plain HTTP.
func (e Endpoint) Scheme() string {
	if e.kind == SocketEndpoint {
		return "http"
	}
	return e.scheme
}

// Host returns the authority placed on requests. For socket endpoints
// this is a fixed placeholder.
func (e Endpoint) Host() string {
	if e.kind == SocketEndpoint {
		return socketHost
	}
	return e.host
}

// SocketPath returns the socket path, or "" for network endpoints.
func (e Endpoint) SocketPath() string { return e.path }

// IsZero reports whether e was never set.
func (e Endpoint) IsZero() bool { return e.kind == 0 }

func (e Endpoint) String() string {
	switch e.kind {
	case SocketEndpoint:
		return "unix:" + e.path
	case NetworkEndpoint:
		return e.scheme + "://" + e.host
	default:
		return ""
	}
}

// MarshalText implements encoding.TextMarshaler.
func (e Endpoint) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using [ParseEndpoint].
func (e *Endpoint) UnmarshalText(text []byte) error {
	parsed, err := ParseEndpoint(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}

// ParseEndpoint parses "unix:/path", "unix:///path", "http://host[:port]"
// or "https://host[:port]".
func ParseEndpoint(s string) (Endpoint, error) {
	if s == "" {
		return Endpoint{}, derive(ErrConfig, "empty endpoint", nil)
	}

	if rest, ok := strings.CutPrefix(s, "unix:"); ok {
		rest = strings.TrimPrefix(rest, "//")
		if rest == "" {
			return Endpoint{}, derive(ErrConfig, "socket endpoint without a path", nil)
		}
		return LocalSocket(rest), nil
	}

	u, err := url.Parse(s)
	if err != nil {
		return Endpoint{}, derive(ErrConfig, fmt.Sprintf("invalid endpoint %q", s), err)
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return Endpoint{}, derive(ErrConfig, fmt.Sprintf("unsupported endpoint scheme %q", u.Scheme), nil)
	}
	if u.Host == "" {
		return Endpoint{}, derive(ErrConfig, fmt.Sprintf("endpoint %q has no host", s), nil)
	}
	if u.Path != "" && u.Path != "/" {
		return Endpoint{}, derive(ErrConfig, fmt.Sprintf("endpoint %q must not carry a path", s), nil)
	}
	return Network(u.Scheme, u.Host), nil
}

// Resolver selects a socket endpoint from the process environment.
//
// Both inputs are captured at construction so that resolution is
// deterministic and can be driven by fakes in tests.
type Resolver struct {
	getenv func(string) string
	exists func(string) bool
}

// NewResolver creates a resolver reading variables through getenv and
// checking socket paths through exists. Nil arguments fall back to
// [os.Getenv] and a stat of the path.
func NewResolver(getenv func(string) string, exists func(string) bool) *Resolver {
	if getenv == nil {
		getenv = os.Getenv
	}
	if exists == nil {
		exists = fileExists
	}
	return &Resolver{getenv: getenv, exists: exists}
}

// Resolve returns explicit when it is set. Otherwise it picks, in order:
//  1. the path in LXD_SOCKET, if non-empty
//  2. LXD_DIR/unix.socket, if LXD_DIR is non-empty
//  3. the snap socket, if it exists
//  4. the default socket, unconditionally
//
// Resolve never performs network calls and never fails.
func (r *Resolver) Resolve(explicit Endpoint) Endpoint {
	if !explicit.IsZero() {
		return explicit
	}
	if p := r.getenv(EnvSocket); p != "" {
		return LocalSocket(p)
	}
	if dir := r.getenv(EnvDir); dir != "" {
		return LocalSocket(filepath.Join(dir, socketFilename))
	}
	if r.exists(SnapSocketPath) {
		return LocalSocket(SnapSocketPath)
	}
	return LocalSocket(DefaultSocketPath)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
