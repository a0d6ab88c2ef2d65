package securelog

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/onboardbase/securelog/internal/detectors"
	"github.com/onboardbase/securelog/internal/matcher"
	"github.com/onboardbase/securelog/internal/report"
	"github.com/onboardbase/securelog/internal/types"
	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:   "test-detector [name]",
		Short: "Run detectors against provided text (stdin)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			patterns := detectors.Default()
			if len(args) == 1 {
				patterns = selectPattern(patterns, args[0])
				if patterns == nil {
					fmt.Fprintf(os.Stderr, "unknown detector: %s\n", args[0])
					fmt.Fprintf(os.Stderr, "available: %s\n", strings.Join(detectors.Names(detectors.Default()), ", "))
					os.Exit(2)
				}
			}
			data, err := io.ReadAll(os.Stdin)
			if err != nil {
				return err
			}
			rs := matcher.Match(string(data), patterns, types.OriginText)
			fs := report.Tag("stdin", rs)
			if flagJSON {
				return report.WriteJSON(os.Stdout, fs)
			}
			report.PrintTable(os.Stdout, fs, report.PrintOptions{NoColor: flagNoColor})
			return nil
		},
	}
	cmd.Long = "Available detectors: " + strings.Join(detectors.Names(detectors.Default()), ", ")
	cmd.ValidArgsFunction = completeDetectorNames
	rootCmd.AddCommand(cmd)
}

// completeDetectorNames offers bundled detector names matching the typed prefix.
func completeDetectorNames(_ *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	var out []string
	for _, name := range detectors.Names(detectors.Default()) {
		if strings.HasPrefix(strings.ToLower(name), strings.ToLower(toComplete)) {
			out = append(out, name)
		}
	}
	return out, cobra.ShellCompDirectiveNoFileComp
}

// selectPattern returns the patterns named name, case-insensitively.
func selectPattern(patterns []types.SecretPattern, name string) []types.SecretPattern {
	var out []types.SecretPattern
	for _, p := range patterns {
		if strings.EqualFold(p.Name, name) {
			out = append(out, p)
		}
	}
	return out
}
