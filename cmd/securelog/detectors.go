package securelog

import (
	"fmt"
	"os"

	"github.com/onboardbase/securelog/internal/detectors"
	"github.com/onboardbase/securelog/internal/types"
	"github.com/spf13/cobra"
)

var (
	detCheck   bool
	detCatalog string
)

func init() {
	cmd := &cobra.Command{
		Use:   "detectors",
		Short: "List available detectors",
		RunE: func(_ *cobra.Command, _ []string) error {
			patterns := detectors.Default()
			ver := detectors.Version()
			if detCatalog != "" {
				c, err := detectors.Load(detCatalog)
				if err != nil {
					return err
				}
				patterns, ver = c.Patterns, c.Version
			}
			if !detCheck {
				for _, name := range detectors.Names(patterns) {
					fmt.Println(name)
				}
				return nil
			}
			return lintCatalog(patterns, ver)
		},
	}
	cmd.Flags().BoolVar(&detCheck, "check", false, "validate the catalog instead of listing it")
	cmd.Flags().StringVar(&detCatalog, "catalog", "", "catalog file to use instead of the bundled one")
	rootCmd.AddCommand(cmd)
}

func lintCatalog(patterns []types.SecretPattern, ver string) error {
	problems := detectors.Lint(patterns)
	for _, p := range problems {
		fmt.Fprintln(os.Stderr, p)
	}
	if len(problems) > 0 {
		return fmt.Errorf("catalog %s: %d problems", ver, len(problems))
	}
	fmt.Printf("catalog %s: %d patterns ok\n", ver, len(patterns))
	return nil
}
