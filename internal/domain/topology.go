package domain

import (
	"maps"
	"slices"
)

// DefaultNetwork is the network compose creates when a file declares none.
const DefaultNetwork = "default"

// Topology is the static declaration of services and their default network
// memberships. It is immutable once loaded.
type Topology struct {
	// Services maps service name to logical network name to aliases.
	Services map[string]NetworkAliases
	// Networks lists the logical networks declared by the document.
	Networks []string
}

// ServiceNames returns the declared services in sorted order.
func (t *Topology) ServiceNames() []string {
	return slices.Sorted(maps.Keys(t.Services))
}

// ServiceNetworks returns a copy of the default memberships of a service.
func (t *Topology) ServiceNetworks(service string) (NetworkAliases, error) {
	networks, ok := t.Services[service]
	if !ok {
		return nil, &NotFoundError{Service: service}
	}
	return networks.Clone(), nil
}

// HasService reports whether the topology declares the service.
func (t *Topology) HasService(service string) bool {
	_, ok := t.Services[service]
	return ok
}

// NetworkNames maps logical network names to their live, project-scoped names.
type NetworkNames map[string]string

// NewNetworkNames builds the logical to live mapping for a project.
func NewNetworkNames(project string, networks []string) NetworkNames {
	names := make(NetworkNames, len(networks))
	for _, network := range networks {
		names[network] = LiveNetworkName(project, network)
	}
	return names
}

// LiveNetworkName returns the project-scoped name of a logical network.
func LiveNetworkName(project, network string) string {
	return project + "_" + network
}

// Resolve returns the live name of a logical network. Names that are already
// live, or unknown to the topology, are returned unchanged.
func (n NetworkNames) Resolve(network string) string {
	if live, ok := n[network]; ok {
		return live
	}
	return network
}
