package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	semver "github.com/blang/semver/v4"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Repo is the GitHub slug releases are published under.
const Repo = "onboardbase/securelog"

// CatalogPath is where the pattern catalog lives inside a release tree.
const CatalogPath = "internal/detectors/catalog.yaml"

// DefaultTTL is how long a release lookup is reused before asking again.
const DefaultTTL = 24 * time.Hour

const stateFile = "release.json"

// Status describes the running build against the latest published release.
type Status struct {
	Current       string
	Catalog       string
	Latest        string
	LatestCatalog string
	// Newer is set when Latest is a higher release than Current.
	Newer bool
	// NewerCatalog is set when the latest release ships a higher pattern
	// catalog version than the bundled one.
	NewerCatalog bool
}

// Notice is the one-line message shown when an upgrade is available, or ""
// when there is nothing to report.
func (s Status) Notice() string {
	switch {
	case s.Newer && s.NewerCatalog:
		return fmt.Sprintf("securelog v%s is available with pattern catalog %s (running v%s, catalog %s); run 'securelog update'",
			s.Latest, s.LatestCatalog, s.Current, s.Catalog)
	case s.Newer:
		return fmt.Sprintf("securelog v%s is available (running v%s); run 'securelog update'", s.Latest, s.Current)
	case s.NewerCatalog:
		return fmt.Sprintf("pattern catalog %s is published (bundled %s); pass it with --catalog or run 'securelog update'",
			s.LatestCatalog, s.Catalog)
	}
	return ""
}

// Disabled reports whether release checks are switched off for this process.
func Disabled() bool {
	return os.Getenv("CI") != "" || os.Getenv("SECURELOG_NO_UPDATE_CHECK") != ""
}

// Checker looks up the latest release and the catalog it ships, remembering
// the answer on disk for TTL.
type Checker struct {
	Current string
	Catalog string
	// Dir holds the lookup state; empty disables caching.
	Dir    string
	TTL    time.Duration
	Client *http.Client

	releaseURL string
	rawBase    string
}

// NewChecker returns a checker for a build at version current that bundles
// catalog version catalog.
func NewChecker(current, catalog string) *Checker {
	return &Checker{
		Current:    trimVersion(current),
		Catalog:    catalog,
		Dir:        stateDir(),
		TTL:        DefaultTTL,
		Client:     &http.Client{Timeout: 2 * time.Second},
		releaseURL: "https://api.github.com/repos/" + Repo + "/releases/latest",
		rawBase:    "https://raw.githubusercontent.com/" + Repo,
	}
}

// record is the on-disk lookup state. Bundled is the catalog version of the
// build that made the lookup; a different build looks again.
type record struct {
	CheckedAt     time.Time `json:"checked_at"`
	Latest        string    `json:"latest"`
	LatestCatalog string    `json:"latest_catalog,omitempty"`
	Bundled       string    `json:"bundled_catalog"`
}

// Check compares the running build with the latest release. A failed lookup
// falls back to the last stored answer and only errors when there is none.
func (c *Checker) Check(ctx context.Context) (Status, error) {
	st := Status{Current: c.Current, Catalog: c.Catalog}
	rec, ok := c.load()
	if !ok || rec.Bundled != c.Catalog || time.Since(rec.CheckedAt) > c.TTL {
		fresh, err := c.lookup(ctx)
		switch {
		case err == nil:
			rec = fresh
			c.save(rec)
		case !ok:
			return st, err
		default:
			log.Debug().Err(err).Msg("release lookup failed, using stored answer")
		}
	}

	st.Latest, st.LatestCatalog = rec.Latest, rec.LatestCatalog
	if st.Current != "" && st.Latest != "" {
		st.Newer = compare(st.Latest, st.Current) > 0
	}
	if st.Catalog != "" && st.LatestCatalog != "" {
		st.NewerCatalog = compare(st.LatestCatalog, st.Catalog) > 0
	}
	return st, nil
}

func (c *Checker) lookup(ctx context.Context) (record, error) {
	var rel struct {
		TagName string `json:"tag_name"`
		Name    string `json:"name"`
	}
	if err := c.get(ctx, c.releaseURL, func(r *http.Response) error {
		return json.NewDecoder(r.Body).Decode(&rel)
	}); err != nil {
		return record{}, fmt.Errorf("latest release: %w", err)
	}
	tag := rel.TagName
	if tag == "" {
		tag = rel.Name
	}
	if tag == "" {
		return record{}, fmt.Errorf("latest release: no tag")
	}
	rec := record{CheckedAt: time.Now(), Latest: trimVersion(tag), Bundled: c.Catalog}

	var cat struct {
		Version string `yaml:"version"`
	}
	url := c.rawBase + "/" + tag + "/" + CatalogPath
	if err := c.get(ctx, url, func(r *http.Response) error {
		return yaml.NewDecoder(r.Body).Decode(&cat)
	}); err != nil {
		// Older releases may not publish a catalog at this path.
		log.Debug().Err(err).Str("tag", tag).Msg("release catalog not read")
	}
	rec.LatestCatalog = cat.Version
	return rec, nil
}

func (c *Checker) get(ctx context.Context, url string, decode func(*http.Response) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "securelog/"+c.Current)
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return decode(resp)
}

func (c *Checker) load() (record, bool) {
	var rec record
	if c.Dir == "" {
		return rec, false
	}
	b, err := os.ReadFile(filepath.Join(c.Dir, stateFile))
	if err != nil || json.Unmarshal(b, &rec) != nil {
		return record{}, false
	}
	return rec, true
}

func (c *Checker) save(rec record) {
	if c.Dir == "" {
		return
	}
	b, err := json.MarshalIndent(rec, "", "  ")
	if err == nil {
		err = os.MkdirAll(c.Dir, 0o755)
	}
	if err == nil {
		err = os.WriteFile(filepath.Join(c.Dir, stateFile), b, 0o644)
	}
	if err != nil {
		log.Debug().Err(err).Str("dir", c.Dir).Msg("release lookup not stored")
	}
}

func stateDir() string {
	if base, err := os.UserConfigDir(); err == nil {
		return filepath.Join(base, "securelog")
	}
	return ""
}

func trimVersion(v string) string {
	return strings.TrimPrefix(strings.TrimSpace(v), "v")
}

// compare returns 1 if a>b, -1 if a<b, 0 if equal. Versions that do not
// parse sort below any that do.
func compare(a, b string) int {
	av, aerr := semver.ParseTolerant(a)
	bv, berr := semver.ParseTolerant(b)
	switch {
	case aerr != nil && berr != nil:
		return 0
	case aerr != nil:
		return -1
	case berr != nil:
		return 1
	}
	return av.Compare(bv)
}
