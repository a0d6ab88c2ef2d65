package securelog

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"time"

	"github.com/onboardbase/securelog/internal/audit"
	"github.com/onboardbase/securelog/internal/config"
	"github.com/onboardbase/securelog/internal/detectors"
	"github.com/onboardbase/securelog/internal/engine"
	"github.com/onboardbase/securelog/internal/files"
	"github.com/onboardbase/securelog/internal/metrics"
	"github.com/onboardbase/securelog/internal/report"
	"github.com/onboardbase/securelog/internal/tree"
	"github.com/onboardbase/securelog/internal/tree/htmltree"
	"github.com/onboardbase/securelog/internal/tui"
	"github.com/onboardbase/securelog/internal/types"
	"github.com/onboardbase/securelog/internal/update"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/wandb/parallel"
)

var (
	flagMask          bool
	flagVisiblePrefix int
	flagMaxDepth      int
	flagExcludeTypes  string
	flagPatterns      string
	flagCatalog       string
	flagSelector      string
	flagTimeout       time.Duration
	flagInclude       string
	flagExclude       string
	flagMaxBytes      int64
	flagInteractive   bool
	flagFail          bool
	flagWrite         bool
	flagText          bool
)

func init() {
	cmd := &cobra.Command{
		Use:   "scan [paths...]",
		Short: "Scan HTML and YAML tree files for secrets",
		Long: "Scan walks .html/.htm documents and .yaml/.yml component trees. Each file is " +
			"scanned as one tree; directories are walked honouring .securelogignore and the " +
			"include/exclude globs.",
		RunE: runScan,
	}
	rootCmd.AddCommand(cmd)

	cmd.Flags().BoolVar(&flagMask, "mask", false, "mask findings in the output structure")
	cmd.Flags().IntVar(&flagVisiblePrefix, "visible-prefix", 0, "characters left readable when masking (default 5)")
	cmd.Flags().IntVar(&flagMaxDepth, "max-depth", 0, "deepest tree level inspected, inclusive (default 10)")
	cmd.Flags().StringVar(&flagExcludeTypes, "exclude-types", "", "comma-separated element types skipped with their subtree")
	cmd.Flags().StringVar(&flagPatterns, "patterns", "", "YAML file of custom patterns appended to the catalog")
	cmd.Flags().StringVar(&flagCatalog, "catalog", "", "YAML catalog replacing the bundled patterns")
	cmd.Flags().StringVar(&flagSelector, "selector", "", "CSS selector of the HTML container to scan (default body)")
	cmd.Flags().DurationVar(&flagTimeout, "timeout", 0, "per match call timeout, negative disables (default 5s)")
	cmd.Flags().StringVar(&flagInclude, "include", "", "comma-separated include globs")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "comma-separated exclude globs")
	cmd.Flags().Int64Var(&flagMaxBytes, "max-bytes", files.DefaultMaxBytes, "skip files larger than this")
	cmd.Flags().BoolVarP(&flagInteractive, "interactive", "i", false, "browse findings in a terminal UI")
	cmd.Flags().BoolVar(&flagFail, "fail", false, "exit 1 when secrets are found")
	cmd.Flags().BoolVar(&flagWrite, "write", false, "write masked HTML back to the scanned files (requires --mask)")
	cmd.Flags().BoolVar(&flagText, "text", false, "output in plain text columnar format")
}

// scanSettings is the resolved configuration of one scan run.
type scanSettings struct {
	engine         engine.Config
	catalog        []types.SecretPattern
	catalogVersion string
	selector       string
	walk           files.Options
	threads        int
	noColor        bool
	auditLog       string
	write          bool
}

// resolveSettings merges CLI flags over the local config found in root and
// the global config.
func resolveSettings(cmd *cobra.Command, root string) (scanSettings, error) {
	var gcfg, lcfg config.FileConfig
	if c, err := config.LoadGlobal(); err == nil {
		gcfg = c
	}
	if c, err := config.LoadLocal(root); err == nil {
		lcfg = c
	}
	merged := config.Merge(gcfg, lcfg)

	s := scanSettings{
		engine:         engine.DefaultConfig(),
		catalog:        detectors.Default(),
		catalogVersion: detectors.Version(),
		selector:       pickString(flagSelector, lcfg.Selector, gcfg.Selector),
		threads:        pickInt(flagThreads, lcfg.Threads, gcfg.Threads),
		noColor:        pickBool(flagNoColor, lcfg.NoColor, gcfg.NoColor),
		auditLog:       pickString(flagAuditLog, lcfg.AuditLog, gcfg.AuditLog),
		write:          flagWrite,
		walk: files.Options{
			Include:         pickString(flagInclude, lcfg.Include, gcfg.Include),
			Exclude:         pickString(flagExclude, lcfg.Exclude, gcfg.Exclude),
			MaxBytes:        flagMaxBytes,
			DefaultExcludes: true,
		},
	}

	if p := pickString(flagCatalog, lcfg.Catalog, gcfg.Catalog); p != "" {
		c, err := detectors.Load(p)
		if err == nil {
			err = detectors.Require(c.Patterns)
		}
		if err != nil {
			return s, fmt.Errorf("catalog: %w", err)
		}
		s.catalog, s.catalogVersion = c.Patterns, c.Version
	}
	if p := pickString(flagPatterns, lcfg.CustomPatterns, gcfg.CustomPatterns); p != "" {
		custom, err := detectors.LoadPatterns(p)
		if err != nil {
			return s, fmt.Errorf("custom patterns: %w", err)
		}
		s.engine.CustomPatterns = custom
	}

	if flagExcludeTypes != "" {
		s.engine.ExcludeTypes = splitList(flagExcludeTypes)
	} else {
		s.engine.ExcludeTypes = merged.ExcludeTypes
	}
	if cmd.Flags().Changed("max-depth") {
		s.engine.MaxDepth = flagMaxDepth
	} else if merged.MaxDepth != nil {
		s.engine.MaxDepth = *merged.MaxDepth
	}
	s.engine.Mask = pickBool(flagMask, lcfg.Mask, gcfg.Mask)
	if cmd.Flags().Changed("visible-prefix") {
		s.engine.VisiblePrefix = flagVisiblePrefix
	} else if merged.VisiblePrefix != nil {
		s.engine.VisiblePrefix = *merged.VisiblePrefix
	}
	if cmd.Flags().Changed("timeout") {
		s.engine.MatchTimeout = flagTimeout
	} else if d, err := merged.Timeout(); err != nil {
		return s, err
	} else if d != 0 {
		s.engine.MatchTimeout = d
	}

	if s.write && !s.engine.Mask {
		return s, fmt.Errorf("--write requires --mask")
	}
	if err := s.engine.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

func runScan(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"."}
	}
	root := configRoot(args[0])
	s, err := resolveSettings(cmd, root)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	machine := flagJSON || flagSARIF
	if !machine && !flagNoUpdateCheck && !update.Disabled() {
		if st, err := update.NewChecker(version, detectors.Version()).Check(ctx); err == nil && st.Notice() != "" {
			_, _ = fmt.Fprintln(os.Stderr, st.Notice())
		}
	}
	targets, err := files.Collect(ctx, args, s.walk)
	if err != nil {
		return err
	}
	if !machine {
		_, _ = fmt.Fprintf(os.Stderr, "Scanning %d files with %d patterns...\n", len(targets), len(s.catalog)+len(s.engine.CustomPatterns))
	}

	start := time.Now()
	findings, failed := scanTargets(ctx, targets, s)
	duration := time.Since(start)
	report.Sort(findings)

	switch {
	case flagSARIF:
		if err := report.WriteSARIF(os.Stdout, findings, s.catalogVersion); err != nil {
			return fmt.Errorf("sarif error: %w", err)
		}
	case flagJSON:
		if err := report.WriteJSON(os.Stdout, findings); err != nil {
			return err
		}
	case flagInteractive:
		rescan := func() ([]report.Finding, error) {
			fs, _ := scanTargets(ctx, targets, s)
			report.Sort(fs)
			return fs, nil
		}
		if err := tui.Run(findings, s.engine.Mask, rescan); err != nil {
			return err
		}
	default:
		opts := report.PrintOptions{NoColor: s.noColor, Duration: duration, FilesScanned: len(targets), Masked: s.engine.Mask}
		if flagText {
			report.PrintText(os.Stdout, findings, opts)
		} else {
			report.PrintTable(os.Stdout, findings, opts)
		}
	}

	if s.auditLog != "" {
		rec := audit.CreateScanRecord(root, s.catalogVersion, findings, len(targets), duration, s.engine.Mask)
		if err := audit.NewAuditLog(root, s.auditLog).LogScan(rec); err != nil {
			log.Warn().Err(err).Msg("audit log not written")
		}
	}
	if flagMetricsFile != "" {
		if err := metrics.WriteTextfile(flagMetricsFile); err != nil {
			log.Warn().Err(err).Str("path", flagMetricsFile).Msg("metrics not written")
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be scanned", failed, len(targets))
	}
	if flagFail && report.ShouldFail(findings) {
		os.Exit(1)
	}
	return nil
}

// configRoot is the directory local configuration is looked up in.
func configRoot(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	if st, err := os.Stat(abs); err == nil && !st.IsDir() {
		return filepath.Dir(abs)
	}
	return abs
}

// scanTargets scans every target concurrently, one coordinator per file, and
// returns the findings together with the number of files that failed.
func scanTargets(ctx context.Context, targets []files.Target, s scanSettings) ([]report.Finding, int) {
	threads := s.threads
	if threads <= 0 {
		threads = runtime.GOMAXPROCS(0)
	}

	var (
		mu       sync.Mutex
		findings []report.Finding
		failed   int
	)
	group := parallel.Limited(ctx, threads)
	for _, t := range targets {
		group.Go(func(ctx context.Context) {
			fs, err := scanFile(ctx, t, s)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				log.Error().Err(err).Str("file", t.Path).Msg("scan failed")
				return
			}
			findings = append(findings, fs...)
		})
	}
	group.Wait()
	return findings, failed
}

// scanFile mounts one scan context over the tree in t and runs a single scan.
func scanFile(ctx context.Context, t files.Target, s scanSettings) ([]report.Finding, error) {
	b, err := os.ReadFile(t.Path)
	if err != nil {
		return nil, err
	}
	if files.LooksBinary(b) {
		log.Debug().Str("file", t.Path).Msg("skipping binary file")
		return nil, nil
	}

	var (
		root   tree.Node
		mirror tree.OutputNode
		doc    *htmltree.Document
	)
	switch t.Kind {
	case files.KindHTML:
		doc, err = htmltree.Parse(bytes.NewReader(b), s.selector)
		if err != nil {
			return nil, err
		}
		root, mirror = doc.Root(), doc.Mirror()
	case files.KindYAML:
		root, err = tree.DecodeYAML(b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", t.Path, err)
		}
		mirror = tree.Mirror(root)
	default:
		return nil, fmt.Errorf("%s: unsupported file type", t.Path)
	}

	var got []types.Result
	cfg := s.engine
	cfg.OnComplete = func(rs []types.Result) { got = rs }
	if _, err := engine.ScanOnce(ctx, s.catalog, cfg, root, mirror); err != nil {
		return nil, err
	}

	if s.write && doc != nil && len(got) > 0 {
		if err := writeDocument(t.Path, doc); err != nil {
			return nil, err
		}
		log.Info().Str("file", t.Path).Int("masked", len(got)).Msg("wrote masked document")
	}
	return report.Tag(displayPath(t.Path), got), nil
}

// writeDocument replaces path with the rendered document, keeping its mode.
func writeDocument(path string, doc *htmltree.Document) error {
	st, err := os.Stat(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), st.Mode().Perm())
}
