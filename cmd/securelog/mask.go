package securelog

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/onboardbase/securelog/internal/detectors"
	"github.com/onboardbase/securelog/internal/engine"
	"github.com/onboardbase/securelog/internal/files"
	"github.com/onboardbase/securelog/internal/report"
	"github.com/onboardbase/securelog/internal/tree/htmltree"
	"github.com/onboardbase/securelog/internal/types"
	"github.com/spf13/cobra"
)

var (
	maskOutput   string
	maskSelector string
	maskPrefix   int
)

func init() {
	cmd := &cobra.Command{
		Use:   "mask <file.html>",
		Short: "Mask secrets in an HTML document",
		Args:  cobra.ExactArgs(1),
		RunE:  runMask,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().StringVarP(&maskOutput, "output", "o", "", "write the masked document here instead of stdout")
	cmd.Flags().StringVar(&maskSelector, "selector", "", "CSS selector of the container to mask (default body)")
	cmd.Flags().IntVar(&maskPrefix, "visible-prefix", 5, "characters left readable")
}

func runMask(cmd *cobra.Command, args []string) error {
	path := args[0]
	if files.KindOf(path) != files.KindHTML {
		return fmt.Errorf("%s: mask only supports HTML documents", path)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	doc, err := htmltree.Parse(bytes.NewReader(b), maskSelector)
	if err != nil {
		return err
	}

	var found []types.Result
	cfg := engine.DefaultConfig()
	cfg.Mask = true
	cfg.VisiblePrefix = maskPrefix
	cfg.OnComplete = func(rs []types.Result) { found = rs }
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if _, err := engine.ScanOnce(ctx, detectors.Default(), cfg, doc.Root(), doc.Mirror()); err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(os.Stderr, "masked %d secrets in %s\n", len(found), path)

	if maskOutput != "" {
		return os.WriteFile(maskOutput, buf.Bytes(), 0o644)
	}
	out := buf.String()
	if !flagNoColor && isTerminal(os.Stdout) {
		out = report.Highlight(out, path)
	}
	_, err = fmt.Fprint(os.Stdout, out)
	return err
}
