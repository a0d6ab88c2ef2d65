package securelog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/onboardbase/securelog/internal/config"
	"github.com/onboardbase/securelog/internal/inspector"
	"github.com/onboardbase/securelog/internal/mask"
	"github.com/onboardbase/securelog/internal/worker"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	cfgOutput string
	cfgForce  bool
)

func init() {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE:  runConfigShow,
	}
	rootCmd.AddCommand(cfgCmd)

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Generate a .securelog.yml with the default options",
		RunE:  runConfigInit,
	}
	cfgCmd.AddCommand(initCmd)
	initCmd.Flags().StringVar(&cfgOutput, "output", ".securelog.yml", "output file path")
	initCmd.Flags().BoolVar(&cfgForce, "force", false, "overwrite an existing file")
}

func runConfigShow(_ *cobra.Command, _ []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	var gcfg, lcfg config.FileConfig
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	}
	if c, err := config.LoadLocal(wd); err == nil {
		lcfg = c
	}
	b, err := yaml.Marshal(config.Merge(gcfg, lcfg))
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(b)
	return err
}

func runConfigInit(_ *cobra.Command, _ []string) error {
	if _, err := os.Stat(cfgOutput); err == nil && !cfgForce {
		return fmt.Errorf("%s already exists (use --force)", cfgOutput)
	}
	fc := defaultFileConfig()
	b, err := yaml.Marshal(&fc)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(cfgOutput); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(cfgOutput, b, 0o644); err != nil {
		return err
	}
	fmt.Println("Wrote", cfgOutput)
	return nil
}

func defaultFileConfig() config.FileConfig {
	return config.FileConfig{
		MaxDepth:      intPtr(inspector.DefaultMaxDepth),
		Mask:          boolPtr(false),
		VisiblePrefix: intPtr(mask.DefaultVisiblePrefix),
		MatchTimeout:  strPtr(worker.DefaultTimeout.String()),
		Threads:       intPtr(0),
	}
}

func strPtr(s string) *string { return &s }
func intPtr(v int) *int       { return &v }
func boolPtr(v bool) *bool    { return &v }
