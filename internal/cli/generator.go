package cli

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/toyz/axon-aot/internal/container"
	"github.com/toyz/axon-aot/internal/errors"
	"github.com/toyz/axon-aot/internal/generator"
	"github.com/toyz/axon-aot/internal/registry"
	"github.com/toyz/axon-aot/internal/templates"
	"github.com/toyz/axon-aot/internal/utils"
)

// Generator coordinates a compile run: load the snapshot, compile it, render
// the units and write them into their packages.
type Generator struct {
	moduleResolver *ModuleResolver
	renderer       *templates.Renderer
	reporter       *DiagnosticReporter
	diagnostics    *utils.DiagnosticSystem
	logger         *zap.Logger
}

// NewGenerator creates a CLI generator. A nil logger disables compiler logs.
func NewGenerator(diagnostics *utils.DiagnosticSystem, reporter *DiagnosticReporter, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{
		moduleResolver: NewModuleResolver(),
		renderer:       templates.NewRenderer(),
		reporter:       reporter,
		diagnostics:    diagnostics,
		logger:         logger,
	}
}

// Run executes one compile run. Nothing is written when a component fails to
// compile; every failure is reported instead.
func (g *Generator) Run(ctx context.Context, config *Config) (*GenerationSummary, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	g.diagnostics.Verbose("Starting compilation at %s", start.Format("15:04:05"))

	g.diagnostics.PhaseHeader("Loading")
	snapshot, err := container.LoadFile(config.Snapshot)
	if err != nil {
		return nil, err
	}
	g.diagnostics.PhaseItem("Loaded %d components from %s", snapshot.Len(), config.Snapshot)

	// an explicit package needs no module until a unit lands outside it
	layout, layoutErr := g.moduleResolver.ResolveLayout(config.OutputDir, config.ModuleName)
	namespace := config.Package
	if namespace == "" {
		if layoutErr != nil {
			return nil, errors.WrapConfigurationError("module", "resolve", layoutErr)
		}
		if namespace, err = layout.PackagePath(config.OutputDir); err != nil {
			return nil, errors.WrapConfigurationError("package", "resolve", err)
		}
	}
	g.diagnostics.Debug("Output package: %s", namespace)

	reg, err := registry.NewDefault()
	if err != nil {
		return nil, err
	}
	if err := reg.Disable(config.Disable...); err != nil {
		return nil, errors.NewValidationError("disable", err.Error())
	}

	opts := reg.Apply(generator.Options{
		Namespace:   namespace,
		BatchSize:   config.BatchSize,
		FailFast:    config.FailFast,
		Parallelism: config.Parallelism,
		Logger:      g.logger,
		Exclusions: []generator.ExclusionRule{
			generator.ExcludeNames(config.Exclude...),
			generator.ExcludeTypes(config.ExcludeTypes...),
		},
	})

	g.diagnostics.PhaseHeader("Compiling")
	result, err := generator.New(opts).Compile(ctx, snapshot)
	if err != nil {
		return nil, err
	}
	for _, f := range result.ContributionFailures {
		g.reporter.ReportWarning(f.Error())
	}
	if err := result.Err(); err != nil {
		return nil, err
	}
	g.diagnostics.PhaseItem("Compiled %d components into %d units", result.Summary.Processed, result.Summary.Units)
	g.diagnostics.Indent()
	for _, ns := range result.Output.Namespaces() {
		g.diagnostics.List("%s: %d units", ns, len(result.Output.UnitsIn(ns)))
	}
	g.diagnostics.Unindent()

	g.diagnostics.PhaseHeader("Writing")
	files, err := g.renderer.Render(result.Output)
	if err != nil {
		return nil, err
	}

	summary := &GenerationSummary{
		RunID:           result.RunID.String(),
		Components:      result.Summary.Total,
		Processed:       result.Summary.Processed,
		Excluded:        result.Summary.Excluded,
		Failed:          result.Summary.Failed,
		Units:           result.Summary.Units,
		ManifestEntries: result.Manifest.Stats().Total(),
	}
	for _, f := range files {
		dir, err := g.packageDir(config, layout, layoutErr, namespace, f.Namespace)
		if err != nil {
			return nil, errors.WrapGenerateError(f.Name, err)
		}
		path, err := writeFile(dir, f.Name, f.Content)
		if err != nil {
			return nil, err
		}
		g.diagnostics.PhaseItem("%s", path)
		summary.GeneratedFiles = append(summary.GeneratedFiles, path)
	}

	if config.Manifest {
		content, err := templates.RenderManifest(result.Manifest.Snapshot())
		if err != nil {
			return nil, err
		}
		path, err := writeFile(config.OutputDir, templates.ManifestFile, content)
		if err != nil {
			return nil, err
		}
		g.diagnostics.PhaseItem("%s", path)
		summary.GeneratedFiles = append(summary.GeneratedFiles, path)
	}

	g.diagnostics.Verbose("Compilation took %s", time.Since(start).Round(time.Millisecond))
	return summary, nil
}

// packageDir locates the directory a namespace renders into. The main
// namespace always goes to the output directory.
func (g *Generator) packageDir(config *Config, layout *Layout, layoutErr error, main, namespace string) (string, error) {
	if namespace == main {
		return config.OutputDir, nil
	}
	if layoutErr != nil {
		return "", layoutErr
	}
	return layout.Dir(namespace)
}

func writeFile(dir, name string, content []byte) (string, error) {
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.WrapFileSystemError("create parent directory of", path, err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", errors.WrapFileSystemError("write", path, err)
	}
	return path, nil
}
