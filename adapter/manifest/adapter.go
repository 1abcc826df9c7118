// Package manifest discovers agents from <root>/*/manifest.yaml files.
package manifest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/RichardKnop/agentrouter"
)

const manifestFileName = "manifest.yaml"

type Adapter struct {
	root   string
	logger *zap.Logger
}

type Option func(*Adapter)

func WithLogger(logger *zap.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

func New(root string, options ...Option) *Adapter {
	a := &Adapter{
		root:   root,
		logger: zap.NewNop(),
	}

	for _, o := range options {
		o(a)
	}

	return a
}

const adapterName = "manifest"

func (a *Adapter) Name() string {
	return adapterName
}

// ListAgents reads every manifest under the root on each call so edits are picked up without
// a restart. Manifests missing a name, entrypoint or io mode are skipped.
func (a *Adapter) ListAgents(ctx context.Context) ([]agentrouter.Agent, error) {
	paths, err := filepath.Glob(filepath.Join(a.root, "*", manifestFileName))
	if err != nil {
		return nil, fmt.Errorf("glob manifests: %w", err)
	}

	agents := make([]agentrouter.Agent, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}

		aManifest, err := readManifest(path)
		if err != nil {
			return nil, err
		}

		anAgent, ok := aManifest.toAgent(path)
		if !ok {
			a.logger.Sugar().With("path", path).Warn("skipping manifest without name, entrypoint or io mode")
			continue
		}
		agents = append(agents, anAgent)
	}

	slices.SortFunc(agents, func(x, y agentrouter.Agent) int {
		return strings.Compare(x.Name, y.Name)
	})

	return agents, nil
}

// FindAgent matches the agent name or its manifest folder, case insensitively.
func (a *Adapter) FindAgent(ctx context.Context, name string) (agentrouter.Agent, error) {
	agents, err := a.ListAgents(ctx)
	if err != nil {
		return agentrouter.Agent{}, err
	}

	for _, anAgent := range agents {
		folder := filepath.Base(filepath.Dir(anAgent.ManifestPath))
		if strings.EqualFold(anAgent.Name, name) || strings.EqualFold(folder, name) {
			return anAgent, nil
		}
	}

	return agentrouter.Agent{}, agentrouter.ErrNotFound
}

func readManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read YAML at %s: %w", path, err)
	}

	aManifest := new(manifest)
	if err := yaml.Unmarshal(data, aManifest); err != nil {
		return nil, fmt.Errorf("failed to read YAML at %s: %w", path, err)
	}

	return aManifest, nil
}
