package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/autoinstall/pkg/errors"
	"github.com/matzehuels/autoinstall/pkg/planner"
)

// scanCommand creates the scan command for a one-shot reconcile.
func (c *CLI) scanCommand() *cobra.Command {
	var flags projectFlags

	cmd := &cobra.Command{
		Use:   "scan [dir]",
		Short: "Install missing and remove unused packages",
		Long: `Scan parses every source file of the project, compares the imported packages
with package.json and runs one install command per missing package and one
remove command per unused package.`,
		Example: `  # Reconcile the current directory
  autoinstall scan

  # Show what would run, using npm
  autoinstall scan ./web --dry-run --package-manager npm`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := c.openProject(ctx, cmd, projectDir(args), &flags, projectOptions{})
			if err != nil {
				return err
			}
			defer p.Close()

			prog := newProgress(c.Logger)
			res, err := p.scanner.Scan(ctx)
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Scanned %d files", res.Files))

			return printReport(res.Report)
		},
	}

	flags.register(cmd)
	return cmd
}

// printReport summarizes a planner run and fails when any command failed.
func printReport(r *planner.Report) error {
	if r == nil {
		return nil
	}
	if r.Empty() {
		printInfo("Nothing to do: package.json matches the imports")
		return nil
	}

	if len(r.Planned) > 0 {
		printWarning("Dry run, would execute:")
		for _, line := range r.Planned {
			printFile(line)
		}
	}
	if n := len(r.Installed); n > 0 {
		printSuccess("Installed %s", plural(n, "package"))
	}
	if n := len(r.Removed); n > 0 {
		printSuccess("Removed %s", plural(n, "package"))
	}
	for _, f := range r.Failed {
		printError("%s: %s", f.Command, errors.UserMessage(f.Err))
	}
	if n := len(r.Failed); n > 0 {
		return fmt.Errorf("%s failed", plural(n, "command"))
	}
	return nil
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
