// Package scope resolves a logical installation scope to a concrete root
// directory and the symbolic prefix substituted into text assets.
package scope

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-homedir"
)

// Scope identifies where an installation lives.
type Scope string

const (
	// Global is the user-wide installation under the home directory.
	Global Scope = "global"
	// Local is the project-local installation under the project directory.
	Local Scope = "local"
)

// RootDirName is the namespace directory name used by both scopes.
const RootDirName = ".promptdeck"

// HomeEnv overrides the global root location when set.
const HomeEnv = "PROMPTDECK_HOME"

// Root is a resolved installation root.
type Root struct {
	Scope Scope
	// Path is the absolute root directory.
	Path string
	// SymbolicPrefix replaces the placeholder token inside text assets:
	// absolute for the global scope, a relative dotted path for the local
	// scope.
	SymbolicPrefix string
}

// Resolve maps s to a concrete root. projectDir is only consulted for the
// local scope; empty means the current working directory.
func Resolve(s Scope, projectDir string) (Root, error) {
	switch s {
	case Global:
		if override, ok := os.LookupEnv(HomeEnv); ok && strings.TrimSpace(override) != "" {
			abs, err := filepath.Abs(override)
			if err != nil {
				return Root{}, err
			}
			return Root{Scope: Global, Path: abs, SymbolicPrefix: abs}, nil
		}
		home, err := homedir.Dir()
		if err != nil {
			return Root{}, fmt.Errorf("resolve home directory: %w", err)
		}
		path := filepath.Join(home, RootDirName)
		return Root{Scope: Global, Path: path, SymbolicPrefix: path}, nil
	case Local:
		if projectDir == "" {
			cwd, err := os.Getwd()
			if err != nil {
				return Root{}, err
			}
			projectDir = cwd
		}
		abs, err := filepath.Abs(projectDir)
		if err != nil {
			return Root{}, err
		}
		return Root{
			Scope:          Local,
			Path:           filepath.Join(abs, RootDirName),
			SymbolicPrefix: "./" + RootDirName,
		}, nil
	default:
		return Root{}, fmt.Errorf("unknown scope %q", s)
	}
}

// At returns a Root anchored at an explicit directory, keeping the prefix
// rules of s. Used by tests and by callers that already know the root path.
func At(s Scope, path string) (Root, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Root{}, err
	}
	prefix := abs
	if s == Local {
		prefix = "./" + filepath.Base(abs)
	}
	return Root{Scope: s, Path: abs, SymbolicPrefix: prefix}, nil
}
