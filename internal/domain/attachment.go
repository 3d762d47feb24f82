package domain

import (
	"maps"
	"slices"
	"time"
)

// AttachmentMap describes target attachments per service. A nil entry for a
// service selects that service's topology default.
type AttachmentMap map[string]NetworkAliases

// Services returns the services in sorted order.
func (a AttachmentMap) Services() []string {
	return slices.Sorted(maps.Keys(a))
}

// NetworkSelection selects the networks to detach a service from: either every
// current attachment or an explicit list of networks.
type NetworkSelection struct {
	All      bool
	Networks []string
}

// AllNetworks selects every network the service is currently attached to.
func AllNetworks() NetworkSelection {
	return NetworkSelection{All: true}
}

// Networks selects an explicit list of networks.
func Networks(networks ...string) NetworkSelection {
	return NetworkSelection{Networks: networks}
}

// DetachmentMap describes which networks to detach, per service.
type DetachmentMap map[string]NetworkSelection

// Services returns the services in sorted order.
func (d DetachmentMap) Services() []string {
	return slices.Sorted(maps.Keys(d))
}

// DisconnectionRecord captures what a disconnect removed: service to live
// network to the aliases the container carried there. A nil alias list means
// the container was not attached and nothing was removed.
type DisconnectionRecord map[string]NetworkAliases

func (r DisconnectionRecord) add(service, network string, aliases []string) {
	if r[service] == nil {
		r[service] = NetworkAliases{}
	}
	r[service][network] = aliases
}

// Removed records a detached network together with its aliases.
func (r DisconnectionRecord) Removed(service, network string, aliases []string) {
	if aliases == nil {
		aliases = []string{}
	}
	r.add(service, network, aliases)
}

// Skipped records a network the service was not attached to.
func (r DisconnectionRecord) Skipped(service, network string) {
	r.add(service, network, nil)
}

// Attachments returns the attachments needed to undo the disconnect. Services
// with nothing removed are omitted.
func (r DisconnectionRecord) Attachments() AttachmentMap {
	out := AttachmentMap{}
	for service, networks := range r {
		for network, aliases := range networks {
			if aliases == nil {
				continue
			}
			if out[service] == nil {
				out[service] = NetworkAliases{}
			}
			out[service][network] = slices.Clone(aliases)
		}
	}
	return out
}

// Empty reports whether nothing was removed.
func (r DisconnectionRecord) Empty() bool {
	return len(r.Attachments()) == 0
}

// DelayRule identifies a traffic-shaping rule attached to a service's network
// namespace for the duration of a scoped delay.
type DelayRule struct {
	Service     string
	ContainerID string
	Interface   string
	Delay       time.Duration
}

// Millis returns the delay in whole milliseconds.
func (d DelayRule) Millis() int64 {
	return d.Delay.Milliseconds()
}
