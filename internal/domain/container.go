// Package domain contains pure business types without external dependencies.
// These types are shared by every layer of the controller.
package domain

import (
	"maps"
	"slices"
)

// NetworkAliases maps a network name to the DNS aliases a container carries on it.
type NetworkAliases map[string][]string

// Names returns the network names in sorted order.
func (n NetworkAliases) Names() []string {
	return slices.Sorted(maps.Keys(n))
}

// Clone returns a deep copy.
func (n NetworkAliases) Clone() NetworkAliases {
	if n == nil {
		return nil
	}
	out := make(NetworkAliases, len(n))
	for network, aliases := range n {
		out[network] = slices.Clone(aliases)
	}
	return out
}

// ContainerSnapshot is the live state of one service container at the time it
// was inspected. It is never cached.
type ContainerSnapshot struct {
	Service string
	ID      string
	Name    string
	Running bool
	// Networks is keyed by live network name. Empty, never nil, for a
	// container without attachments.
	Networks NetworkAliases
	// Addresses maps live network name to the container's IPv4 address on it.
	Addresses map[string]string
}

// Attached reports whether the container is attached to the live network.
func (s *ContainerSnapshot) Attached(network string) bool {
	_, ok := s.Networks[network]
	return ok
}

// ShimSpec describes a short-lived helper container that shares the network
// namespace of a target container.
type ShimSpec struct {
	Image             string
	Name              string
	TargetContainerID string
	Entrypoint        []string
	Cmd               []string
	CapAdd            []string
}

// ShimResult is the outcome of a helper container run to completion.
type ShimResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}
