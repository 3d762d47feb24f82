package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bnema/composectl/internal/domain"
)

// parseAttach parses --attach values of the form
//
//	service                  topology default of the service
//	service:network          network with the service name as alias
//	service:network=a,b      network with explicit aliases
func parseAttach(values []string) (domain.AttachmentMap, error) {
	attachments := domain.AttachmentMap{}
	for _, value := range values {
		service, spec, hasNetwork := strings.Cut(value, ":")
		if service == "" {
			return nil, fmt.Errorf("invalid --attach %q: missing service", value)
		}
		if !hasNetwork {
			if _, ok := attachments[service]; !ok {
				attachments[service] = nil
			}
			continue
		}

		network, aliasList, hasAliases := strings.Cut(spec, "=")
		if network == "" {
			return nil, fmt.Errorf("invalid --attach %q: missing network", value)
		}
		aliases := []string{service}
		if hasAliases {
			aliases = splitList(aliasList)
		}

		if attachments[service] == nil {
			attachments[service] = domain.NetworkAliases{}
		}
		attachments[service][network] = aliases
	}
	return attachments, nil
}

// parseDetach parses --detach values of the form
//
//	service                  every current network of the service
//	service=all              same
//	service=net-a,net-b      the listed networks
func parseDetach(values []string) (domain.DetachmentMap, error) {
	detachments := domain.DetachmentMap{}
	for _, value := range values {
		service, list, hasList := strings.Cut(value, "=")
		if service == "" {
			return nil, fmt.Errorf("invalid --detach %q: missing service", value)
		}

		if !hasList || list == "all" {
			detachments[service] = domain.AllNetworks()
			continue
		}

		networks := splitList(list)
		if len(networks) == 0 {
			return nil, fmt.Errorf("invalid --detach %q: missing networks", value)
		}

		current, ok := detachments[service]
		if ok && current.All {
			continue
		}
		for _, network := range networks {
			if !slices.Contains(current.Networks, network) {
				current.Networks = append(current.Networks, network)
			}
		}
		detachments[service] = current
	}
	return detachments, nil
}

// splitAtDash separates the positional arguments before `--` from the command after it.
func splitAtDash(cmd *cobra.Command, args []string) (before, command []string, err error) {
	dash := cmd.ArgsLenAtDash()
	if dash < 0 || dash == len(args) {
		return nil, nil, fmt.Errorf("a command is required after --")
	}
	return args[:dash], args[dash:], nil
}

func splitList(list string) []string {
	var items []string
	for _, item := range strings.Split(list, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
