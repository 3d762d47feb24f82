// Package topology parses the compose file into the static service/network topology.
package topology

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"sort"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/bnema/composectl/internal/domain"
)

type document struct {
	Services map[string]*service  `yaml:"services"`
	Networks map[string]yaml.Node `yaml:"networks"`
}

type service struct {
	Networks *serviceNetworks `yaml:"networks"`
}

type networkConfig struct {
	Aliases []string `yaml:"aliases"`
}

// serviceNetworks accepts both compose spellings of a service's networks:
// a list of names, or a mapping of name to optional settings.
type serviceNetworks struct {
	names   []string
	configs map[string]*networkConfig
}

func (s *serviceNetworks) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.SequenceNode:
		return node.Decode(&s.names)
	case yaml.MappingNode:
		s.configs = map[string]*networkConfig{}
		return node.Decode(&s.configs)
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			return nil
		}
	}
	return fmt.Errorf("line %d: networks must be a list or a mapping", node.Line)
}

// Load reads the compose file at path. It never returns a partial topology:
// any problem yields a *domain.ConfigError.
func Load(fsys afero.Fs, path string) (*domain.Topology, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &domain.ConfigError{Path: path, Reason: "compose file not found", Err: err}
		}
		return nil, &domain.ConfigError{Path: path, Reason: "failed to read compose file", Err: err}
	}
	return Parse(path, data)
}

// Parse builds a topology from compose file contents. path is only used in errors.
func Parse(path string, data []byte) (*domain.Topology, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &domain.ConfigError{Path: path, Reason: "malformed compose file", Err: err}
	}
	if doc.Services == nil {
		return nil, &domain.ConfigError{Path: path, Reason: "missing services key"}
	}

	declared := make([]string, 0, len(doc.Networks))
	for name := range doc.Networks {
		declared = append(declared, name)
	}
	sort.Strings(declared)

	topo := &domain.Topology{
		Services: make(map[string]domain.NetworkAliases, len(doc.Services)),
		Networks: declared,
	}

	usesDefault := false
	for name, svc := range doc.Services {
		var networks *serviceNetworks
		if svc != nil {
			networks = svc.Networks
		}

		memberships, err := resolveMemberships(name, networks, declared)
		if err != nil {
			return nil, &domain.ConfigError{Path: path, Reason: fmt.Sprintf("service %s", name), Err: err}
		}
		if _, ok := memberships[domain.DefaultNetwork]; ok {
			usesDefault = true
		}
		topo.Services[name] = memberships
	}

	if usesDefault && !slices.Contains(topo.Networks, domain.DefaultNetwork) {
		topo.Networks = append(topo.Networks, domain.DefaultNetwork)
		sort.Strings(topo.Networks)
	}

	return topo, nil
}

func resolveMemberships(name string, networks *serviceNetworks, declared []string) (domain.NetworkAliases, error) {
	memberships := domain.NetworkAliases{}
	defaultAliases := func() []string { return []string{name} }

	switch {
	case networks == nil || (networks.names == nil && networks.configs == nil):
		// Compose attaches services without explicit networks to every
		// declared network, or to its implicit default network.
		if len(declared) == 0 {
			memberships[domain.DefaultNetwork] = defaultAliases()
		}
		for _, network := range declared {
			memberships[network] = defaultAliases()
		}
	case networks.names != nil:
		for _, network := range networks.names {
			if network == "" {
				return nil, errors.New("empty network name")
			}
			memberships[network] = defaultAliases()
		}
	default:
		for network, cfg := range networks.configs {
			if cfg == nil || len(cfg.Aliases) == 0 {
				memberships[network] = defaultAliases()
				continue
			}
			memberships[network] = slices.Clone(cfg.Aliases)
		}
	}

	return memberships, nil
}
