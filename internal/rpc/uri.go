// Package rpc implements the wire protocol between the pool's distributed
// backend and worker daemons: endpoint URIs, the CBOR-over-gRPC codec, the
// ezpool.Worker service shape, and the client handle the backend drives.
package rpc

import (
	"fmt"
	"strconv"
	"strings"
)

// Scheme is the only endpoint protocol currently supported.
const Scheme = "grpc"

// URI identifies a named remote worker object hosted at a network address,
// in "grpc:<name>@<host>:<port>" form.
type URI struct {
	Scheme string
	Name   string
	Host   string
	Port   int
}

// ParseURI decomposes an endpoint URI into its constituents.
func ParseURI(uri string) (URI, error) {
	scheme, rest, ok := strings.Cut(uri, ":")
	if !ok || scheme == "" {
		return URI{}, fmt.Errorf("rpc: malformed endpoint %q: missing scheme", uri)
	}
	if scheme != Scheme {
		return URI{}, fmt.Errorf("rpc: unsupported scheme %q in endpoint %q", scheme, uri)
	}

	name, addr, ok := strings.Cut(rest, "@")
	if !ok || name == "" {
		return URI{}, fmt.Errorf("rpc: malformed endpoint %q: missing worker name", uri)
	}

	host, portStr, ok := strings.Cut(addr, ":")
	if !ok || host == "" {
		return URI{}, fmt.Errorf("rpc: malformed endpoint %q: missing host or port", uri)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return URI{}, fmt.Errorf("rpc: malformed endpoint %q: bad port %q", uri, portStr)
	}

	return URI{Scheme: scheme, Name: name, Host: host, Port: port}, nil
}

// Target returns the dialable "host:port" address.
func (u URI) Target() string {
	return fmt.Sprintf("%s:%d", u.Host, u.Port)
}

func (u URI) String() string {
	return fmt.Sprintf("%s:%s@%s:%d", u.Scheme, u.Name, u.Host, u.Port)
}
