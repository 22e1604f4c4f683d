package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/toyz/axon-aot/internal/utils"
)

// ModuleResolver maps between package directories and import paths
type ModuleResolver struct {
	gomod *utils.GoModParser
}

// NewModuleResolver creates a new module resolver
func NewModuleResolver() *ModuleResolver {
	return &ModuleResolver{gomod: utils.NewGoModParser()}
}

// Layout is a module root directory together with its module path
type Layout struct {
	Root   string
	Module string
}

// ResolveLayout finds the module containing dir. customModule, when set,
// replaces the module path of go.mod; without a go.mod the working directory
// is taken as the module root.
func (r *ModuleResolver) ResolveLayout(dir, customModule string) (*Layout, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory %s: %w", dir, err)
	}

	goModPath, findErr := r.gomod.FindGoModFile(absDir)
	if findErr != nil {
		if customModule == "" {
			return nil, fmt.Errorf("failed to determine module name: %w (consider using --module flag)", findErr)
		}
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		return &Layout{Root: wd, Module: customModule}, nil
	}

	module := customModule
	if module == "" {
		if module, err = r.gomod.ParseModuleName(goModPath); err != nil {
			return nil, err
		}
	}
	return &Layout{Root: filepath.Dir(goModPath), Module: module}, nil
}

// PackagePath returns the import path of dir. Without a custom module the
// go.mod above dir decides.
func (r *ModuleResolver) PackagePath(dir, customModule string) (string, error) {
	if customModule == "" {
		return r.gomod.PackagePath(dir)
	}
	layout, err := r.ResolveLayout(dir, customModule)
	if err != nil {
		return "", err
	}
	return layout.PackagePath(dir)
}

// PackagePath builds the import path of a directory inside the module
func (l *Layout) PackagePath(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve package directory: %w", err)
	}
	rel, err := filepath.Rel(l.Root, absDir)
	if err != nil {
		return "", fmt.Errorf("failed to calculate relative path: %w", err)
	}
	rel = filepath.ToSlash(rel)
	if rel == "." {
		return l.Module, nil
	}
	if strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("directory %s is outside module %s", dir, l.Module)
	}
	return l.Module + "/" + rel, nil
}

// Dir returns the directory of a package of the module
func (l *Layout) Dir(importPath string) (string, error) {
	if importPath == l.Module {
		return l.Root, nil
	}
	rel, ok := strings.CutPrefix(importPath, l.Module+"/")
	if !ok {
		return "", fmt.Errorf("package %s is outside module %s", importPath, l.Module)
	}
	return filepath.Join(l.Root, filepath.FromSlash(rel)), nil
}
