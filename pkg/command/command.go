// Package command builds and runs package-manager commands.
//
// Two families are supported. npm takes --save/--save-dev plus an optional
// --save-exact. yarn always pins exact versions on add and takes --dev:
//
//	npm install <name> --save[-dev][ --save-exact]
//	npm uninstall <name> --save[-dev]
//	yarn add <name>[ --dev]
//	yarn remove <name>[ --dev]
package command

import (
	"fmt"
	"strings"

	"github.com/matzehuels/autoinstall/pkg/errors"
	"github.com/matzehuels/autoinstall/pkg/modules"
)

// Manager identifies a package-manager family.
type Manager string

const (
	NPM  Manager = "npm"
	Yarn Manager = "yarn"
)

// DefaultManager is used when none is configured.
const DefaultManager = Yarn

// ParseManager validates a package-manager name. Empty selects the default.
func ParseManager(s string) (Manager, error) {
	switch Manager(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return DefaultManager, nil
	case NPM:
		return NPM, nil
	case Yarn:
		return Yarn, nil
	}
	return "", errors.New(errors.ErrCodeInvalidInput, "unsupported package manager %q (want npm or yarn)", s)
}

// Action is the kind of change a command makes.
type Action string

const (
	ActionInstall Action = "install"
	ActionRemove  Action = "remove"
)

// Command is one package-manager invocation.
type Command struct {
	Action Action
	Module modules.Module
	Name   string
	Args   []string
}

// String renders the command as a shell command line.
func (c Command) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// Install builds the command that adds m to the manifest. The name must be
// a valid npm registry name, since it is about to be fetched.
func Install(m modules.Module, pm Manager, exact bool) (Command, error) {
	if err := errors.ValidateNpmPackageName(m.Name); err != nil {
		return Command{}, err
	}
	cmd := Command{Action: ActionInstall, Module: m}
	switch pm {
	case NPM:
		cmd.Name = "npm"
		cmd.Args = []string{"install", m.Name, saveFlag(m.Dev)}
		if exact {
			cmd.Args = append(cmd.Args, "--save-exact")
		}
	case Yarn, "":
		cmd.Name = "yarn"
		cmd.Args = []string{"add", m.Name}
		if m.Dev {
			cmd.Args = append(cmd.Args, "--dev")
		}
	default:
		return Command{}, errors.New(errors.ErrCodeUnsupported, "package manager %q", pm)
	}
	return cmd, nil
}

// Remove builds the command that drops m from the manifest. Only the
// argument-safety checks apply, because manifests may hold legacy names
// (e.g. JSONStream) that npm no longer accepts for new packages.
func Remove(m modules.Module, pm Manager) (Command, error) {
	if err := errors.ValidatePackageName(m.Name); err != nil {
		return Command{}, err
	}
	cmd := Command{Action: ActionRemove, Module: m}
	switch pm {
	case NPM:
		cmd.Name = "npm"
		cmd.Args = []string{"uninstall", m.Name, saveFlag(m.Dev)}
	case Yarn, "":
		cmd.Name = "yarn"
		cmd.Args = []string{"remove", m.Name}
		if m.Dev {
			cmd.Args = append(cmd.Args, "--dev")
		}
	default:
		return Command{}, errors.New(errors.ErrCodeUnsupported, "package manager %q", pm)
	}
	return cmd, nil
}

func saveFlag(dev bool) string {
	if dev {
		return "--save-dev"
	}
	return "--save"
}

// Describe returns a short human label, e.g. "install react (dev)".
func (c Command) Describe() string {
	return fmt.Sprintf("%s %s", c.Action, c.Module)
}
