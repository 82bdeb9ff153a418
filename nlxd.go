// Package nlxd provides a Go client for the LXD REST API.
//
// LXD manages system containers and virtual machines. Its daemon serves a
// REST API over a local Unix socket and, optionally, over HTTPS. This
// package talks to either transport through the same request path,
// decodes the daemon's response envelopes and follows background
// operations to completion.
//
// # Installation
//
//	go get github.com/tomblancdev/nlxd-go
//
// # Quick Start
//
// Connect to the local daemon and list instances:
//
//	package main
//
//	import (
//	    "context"
//	    "fmt"
//	    "log"
//
//	    "github.com/tomblancdev/nlxd-go"
//	)
//
//	func main() {
//	    client, err := nlxd.Connect()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer client.Close()
//
//	    names, err := client.Instances(context.Background())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    for _, name := range names {
//	        fmt.Println(name)
//	    }
//	}
//
// # Endpoints
//
// [Connect] locates the daemon socket from LXD_SOCKET, then LXD_DIR, then
// the snap socket path, then /var/lib/lxd/unix.socket. To reach a remote
// daemon, set the endpoint explicitly:
//
//	cfg := nlxd.DefaultConfig()
//	cfg.Endpoint = nlxd.Network("https", "lxd.example.com:8443")
//	cfg.InsecureSkipVerify = true
//	client, err := nlxd.NewClient(cfg)
//
// # Response Envelopes
//
// Every daemon reply is an envelope of type sync, async or error. Sync
// replies carry the requested resource, async replies carry a background
// [Operation], and error replies become an [*Error] of kind [KindAPI].
// [DecodeEnvelope] exposes the decoder directly.
//
// # Operations
//
// Methods that start background work, such as [Client.CreateInstance],
// wait for the operation before returning. Lower-level access is available
// through [Client.WaitOperation], [Client.WatchOperation] and
// [Client.CancelOperation]:
//
//	op, err := client.CreateInstance(ctx, nlxd.NewInstanceFromImage("web", "ubuntu/22.04"))
//	switch {
//	case errors.Is(err, nlxd.ErrOperationFailed):
//	    log.Printf("creation failed: %s", op.Err)
//	case err != nil:
//	    log.Fatal(err)
//	}
//
// # Error Handling
//
// All errors are [*Error] values. Transport failures, decode failures and
// operation outcomes are told apart by [Error.Kind]:
//
//	var lxdErr *nlxd.Error
//	if errors.As(err, &lxdErr) {
//	    switch lxdErr.Kind {
//	    case nlxd.KindTransport:
//	        // daemon unreachable, timed out, or reply too large
//	    case nlxd.KindOperation:
//	        // operation failed, was canceled, or the wait timed out
//	    }
//	}
//
// # Thread Safety
//
// The [Client] is safe for concurrent use by multiple goroutines.
// Each method call is independent and does not share state.
package nlxd
