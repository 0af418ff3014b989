package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/tokendeck/pkg/config"
)

// initCommand creates the init command that scaffolds a project folder.
func (c *CLI) initCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a project folder with a starter configuration",
		Long: `Create config/` + config.FileName + ` and config/system_instruction.md in dir
(default: the current directory). Existing files are left untouched.`,
		Args: cobra.MaximumNArgs(1),
		// init must work without a loadable configuration.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			written, err := config.InitProject(dir)
			if err != nil {
				return err
			}
			if len(written) == 0 {
				printInfo("Project already initialized in %s", dir)
				return nil
			}
			printSuccess("Initialized project in %s", dir)
			for _, p := range written {
				printFile(p)
			}
			printNextStep("Set your API key, then run", appName+" run --config "+filepath.Join(dir, "config", config.FileName)+" <images>")
			return nil
		},
	}
}
