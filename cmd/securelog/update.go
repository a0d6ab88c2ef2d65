package securelog

import (
	"fmt"

	"github.com/onboardbase/securelog/internal/detectors"
	"github.com/onboardbase/securelog/internal/update"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "update",
		Short: "Update securelog to the latest release",
		RunE: func(_ *cobra.Command, _ []string) error {
			v, err := selfUpdate()
			if err != nil {
				return fmt.Errorf("update failed: %w", err)
			}
			fmt.Println("securelog is at", v)
			return nil
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Printf("securelog %s (catalog %s)\n", version, detectors.Version())
			if flagNoUpdateCheck || update.Disabled() {
				return
			}
			st, err := update.NewChecker(version, detectors.Version()).Check(cmd.Context())
			if err != nil {
				log.Debug().Err(err).Msg("release check failed")
				return
			}
			if n := st.Notice(); n != "" {
				fmt.Println(n)
			}
		},
	})
}
