// Package fakecompose provides an in-memory stand-in for the docker-compose
// and docker command line tools. It answers the argv shapes issued by the
// compose adapter and keeps container state between calls.
package fakecompose

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"sync"

	"github.com/bnema/composectl/internal/boundaries/out"
	"github.com/bnema/composectl/internal/domain"
)

var _ out.CommandRunner = (*Engine)(nil)

// Container is the state of one fake container.
type Container struct {
	ID       string
	Running  bool
	Networks domain.NetworkAliases
}

// Engine is a fake compose project.
type Engine struct {
	mu         sync.Mutex
	containers map[string]*Container
	calls      [][]string
	failures   map[string]error

	// Version is returned by `version --short`.
	Version string
	// Project, when set, is the only project name accepted by `-p`.
	Project string
}

// New creates an empty engine.
func New() *Engine {
	return &Engine{
		containers: map[string]*Container{},
		failures:   map[string]error{},
		Version:    "2.24.6",
	}
}

// AddService registers a running container for the service, attached to the
// given live networks.
func (e *Engine) AddService(service, id string, networks domain.NetworkAliases) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if networks == nil {
		networks = domain.NetworkAliases{}
	}
	e.containers[service] = &Container{ID: id, Running: true, Networks: networks.Clone()}
}

// FailOn makes every command whose argv starts with prefix fail with err.
// A nil err clears the failure.
func (e *Engine) FailOn(err error, prefix ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	key := strings.Join(prefix, " ")
	if err == nil {
		delete(e.failures, key)
		return
	}
	e.failures[key] = err
}

// Networks returns a copy of the service's current attachments.
func (e *Engine) Networks(service string) domain.NetworkAliases {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c, ok := e.containers[service]; ok {
		return c.Networks.Clone()
	}
	return nil
}

// Running reports whether the service's container is running.
func (e *Engine) Running(service string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.containers[service]
	return ok && c.Running
}

// Calls returns every argv received whose leading words match prefix.
func (e *Engine) Calls(prefix ...string) [][]string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var matched [][]string
	for _, argv := range e.calls {
		if hasPrefix(argv, prefix) {
			matched = append(matched, slices.Clone(argv))
		}
	}
	return matched
}

// Stream runs the command and writes its output to stdout.
func (e *Engine) Stream(ctx context.Context, argv []string, _ io.Reader, stdout, _ io.Writer) error {
	output, err := e.Run(ctx, argv)
	if err != nil {
		return err
	}
	if stdout != nil && output != "" {
		_, err = io.WriteString(stdout, output+"\n")
	}
	return err
}

// Run answers a single command.
func (e *Engine) Run(ctx context.Context, argv []string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls = append(e.calls, slices.Clone(argv))

	for prefix, err := range e.failures {
		if hasPrefix(argv, strings.Fields(prefix)) {
			return "", err
		}
	}

	if len(argv) < 2 {
		return "", fail(argv, "unknown command")
	}
	switch argv[0] {
	case "docker-compose":
		return e.compose(argv)
	case "docker":
		return e.docker(argv)
	}
	return "", fail(argv, "unknown command")
}

func (e *Engine) compose(argv []string) (string, error) {
	args := argv[1:]
	for len(args) >= 2 && (args[0] == "-f" || args[0] == "-p") {
		if args[0] == "-p" && e.Project != "" && args[1] != e.Project {
			return "", fail(argv, "no configuration file provided: not found")
		}
		args = args[2:]
	}
	if len(args) == 0 {
		return "", fail(argv, "missing compose verb")
	}
	verb, rest := args[0], args[1:]
	switch verb {
	case "ps":
		if len(rest) != 2 || rest[0] != "-q" {
			return "", fail(argv, "unsupported ps invocation")
		}
		c, ok := e.containers[rest[1]]
		if !ok {
			return "", fail(argv, "ERROR: No such service: "+rest[1])
		}
		if !c.Running {
			return "", nil
		}
		return c.ID, nil
	case "stop", "start", "restart":
		for _, service := range rest {
			if _, ok := e.containers[service]; !ok {
				return "", fail(argv, "ERROR: No such service: "+service)
			}
		}
		for _, service := range rest {
			e.containers[service].Running = verb != "stop"
		}
		return "", nil
	case "exec":
		if len(rest) < 2 || rest[0] != "-T" {
			return "", fail(argv, "unsupported exec invocation")
		}
		c, ok := e.containers[rest[1]]
		if !ok || !c.Running {
			return "", fail(argv, fmt.Sprintf("service %q is not running", rest[1]))
		}
		return strings.Join(rest[2:], " "), nil
	case "version":
		return e.Version, nil
	}
	return "", fail(argv, "unknown compose verb "+verb)
}

func (e *Engine) docker(argv []string) (string, error) {
	switch {
	case argv[1] == "inspect" && len(argv) == 3:
		return e.inspect(argv)
	case hasPrefix(argv, []string{"docker", "network", "connect"}):
		return e.connect(argv)
	case hasPrefix(argv, []string{"docker", "network", "disconnect"}) && len(argv) == 5:
		c := e.byID(argv[4])
		if c == nil {
			return "", fail(argv, "Error response from daemon: No such container: "+argv[4])
		}
		if _, ok := c.Networks[argv[3]]; !ok {
			return "", fail(argv, fmt.Sprintf("Error response from daemon: container %s is not connected to network %s", c.ID, argv[3]))
		}
		delete(c.Networks, argv[3])
		return "", nil
	}
	return "", fail(argv, "unknown docker command")
}

func (e *Engine) connect(argv []string) (string, error) {
	args := argv[3:]
	var aliases []string
	for len(args) > 2 && args[0] == "--alias" {
		aliases = append(aliases, args[1])
		args = args[2:]
	}
	if len(args) != 2 {
		return "", fail(argv, "unsupported network connect invocation")
	}
	network, id := args[0], args[1]

	c := e.byID(id)
	if c == nil {
		return "", fail(argv, "Error response from daemon: No such container: "+id)
	}
	if _, ok := c.Networks[network]; ok {
		return "", fail(argv, fmt.Sprintf("Error response from daemon: endpoint with name %s already exists in network %s", c.ID, network))
	}
	if aliases == nil {
		aliases = []string{}
	}
	c.Networks[network] = aliases
	return "", nil
}

func (e *Engine) inspect(argv []string) (string, error) {
	c := e.byID(argv[2])
	if c == nil {
		return "[]", fail(argv, "Error: No such object: "+argv[2])
	}

	type endpoint struct {
		Aliases   []string `json:"Aliases"`
		IPAddress string   `json:"IPAddress"`
	}
	networks := map[string]endpoint{}
	for i, network := range c.Networks.Names() {
		networks[network] = endpoint{
			Aliases:   c.Networks[network],
			IPAddress: fmt.Sprintf("172.18.0.%d", i+2),
		}
	}

	doc := []map[string]any{{
		"Id":              c.ID,
		"Name":            "/" + c.ID,
		"State":           map[string]any{"Running": c.Running},
		"NetworkSettings": map[string]any{"Networks": networks},
	}}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (e *Engine) byID(id string) *Container {
	for _, c := range e.containers {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func fail(argv []string, stderr string) error {
	return &domain.ExecutionError{Command: slices.Clone(argv), ExitCode: 1, Stderr: stderr}
}

func hasPrefix(argv, prefix []string) bool {
	return len(argv) >= len(prefix) && slices.Equal(argv[:len(prefix)], prefix)
}
