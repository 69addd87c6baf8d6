package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/autoinstall/pkg/errors"
	"github.com/matzehuels/autoinstall/pkg/modules"
	"github.com/matzehuels/autoinstall/pkg/observability"
	"github.com/matzehuels/autoinstall/pkg/store"
)

// statusCommand creates the status command, a scan that never runs commands.
func (c *CLI) statusCommand() *cobra.Command {
	var (
		flags       projectFlags
		interactive bool
		asJSON      bool
		only        string
	)

	cmd := &cobra.Command{
		Use:   "status [dir]",
		Short: "Show installed, used, uninstalled and unused packages",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cols, err := parseCollections(only)
			if err != nil {
				return err
			}
			p, err := c.openProject(ctx, cmd, projectDir(args), &flags, projectOptions{})
			if err != nil {
				return err
			}
			defer p.Close()

			label := "Scanning " + p.root
			spinner := newSpinnerWithContext(ctx, label)
			observability.SetScanHooks(newScanProgress(spinner, label))
			defer observability.Reset()
			spinner.Start()
			res, err := p.scanner.Status(ctx)
			spinner.Stop()
			if err != nil {
				return err
			}

			switch {
			case asJSON:
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				if only != "" {
					return enc.Encode(res.State.Get(cols[0]))
				}
				return enc.Encode(res.State)
			case interactive:
				m := newStatusModel(p.root, res.State)
				m.tab = int(cols[0])
				_, err := tea.NewProgram(m, tea.WithContext(ctx)).Run()
				return err
			}

			printState(p.root, res.State, cols)
			if len(res.State.Uninstalled) > 0 || len(res.State.Unused) > 0 {
				printNewline()
				printNextStep("Reconcile", "autoinstall scan "+projectDir(args))
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "browse the collections interactively")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the collections as JSON")
	cmd.Flags().StringVar(&only, "only", "", "show one collection: installed, used, uninstalled or unused")
	_ = cmd.RegisterFlagCompletionFunc("only", completeCollection)
	return cmd
}

// parseCollections resolves the --only flag. Empty selects all four.
func parseCollections(only string) ([]modules.Collection, error) {
	if only == "" {
		return modules.Collections(), nil
	}
	c, ok := modules.ParseCollection(strings.ToLower(strings.TrimSpace(only)))
	if !ok {
		return nil, errors.New(errors.ErrCodeInvalidInput, "unknown collection %q (want installed, used, uninstalled or unused)", only)
	}
	return []modules.Collection{c}, nil
}

// printState prints the selected collections.
func printState(root string, st store.State, cols []modules.Collection) {
	printKeyValue("Project", root)
	for _, c := range cols {
		mods := st.Get(c)
		printNewline()
		fmt.Println(StyleTitle.Render(collectionTitle(c)) + " " + StyleDim.Render(fmt.Sprintf("(%d)", len(mods))))
		for _, m := range mods {
			printModule(root, m)
		}
	}
}

// printModule prints one record with its provenance.
func printModule(root string, m modules.Module) {
	line := "  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(m.Name)
	if m.Dev {
		line += " " + StyleWarning.Render("dev")
	}
	if m.SourceFile != "" {
		line += "  " + StyleDim.Render(relPath(root, m.SourceFile))
	}
	fmt.Println(line)
}

func collectionTitle(c modules.Collection) string {
	switch c {
	case modules.Installed:
		return "Installed"
	case modules.Used:
		return "Used"
	case modules.Uninstalled:
		return "Used but not installed"
	case modules.Unused:
		return "Installed but not used"
	}
	return c.String()
}

func relPath(root, path string) string {
	if rel, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}
