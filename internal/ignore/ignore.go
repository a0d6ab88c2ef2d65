// Package ignore reads .securelogignore files: one glob per line, gitignore
// style. A trailing slash matches directories only, a leading slash anchors
// the pattern at the scan root, and a leading "!" re-includes a path.
package ignore

import (
	"bufio"
	"errors"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"

	doublestar "github.com/bmatcuk/doublestar/v4"
)

// FileName is the ignore file looked up at the root of each scanned directory.
const FileName = ".securelogignore"

type rule struct {
	pattern  string
	dir      bool
	negate   bool
	anchored bool
}

// Matcher decides whether a root-relative path is ignored. The zero value
// ignores nothing.
type Matcher struct {
	rules []rule
}

// Load reads the ignore file at p. A missing file yields an empty matcher.
func Load(p string) (Matcher, error) {
	f, err := os.Open(p)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Matcher{}, nil
		}
		return Matcher{}, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads ignore rules from r. Blank lines and lines starting with # are
// skipped.
func Parse(r io.Reader) (Matcher, error) {
	var m Matcher
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var ru rule
		if strings.HasPrefix(line, "!") {
			ru.negate = true
			line = line[1:]
		}
		if strings.HasSuffix(line, "/") {
			ru.dir = true
			line = strings.TrimSuffix(line, "/")
		}
		if strings.HasPrefix(line, "/") || strings.Contains(line, "/") {
			ru.anchored = true
			line = strings.TrimPrefix(line, "/")
		}
		if line == "" || !doublestar.ValidatePattern(line) {
			continue
		}
		ru.pattern = line
		m.rules = append(m.rules, ru)
	}
	return m, sc.Err()
}

// Len reports the number of rules.
func (m Matcher) Len() int { return len(m.rules) }

// Match reports whether the file rel (slash or OS separated, relative to the
// root) is ignored. Later rules override earlier ones.
func (m Matcher) Match(rel string) bool { return m.match(rel, false) }

// MatchDir is Match for a directory, which directory rules also apply to.
func (m Matcher) MatchDir(rel string) bool { return m.match(rel, true) }

func (m Matcher) match(rel string, isDir bool) bool {
	rel = strings.TrimPrefix(strings.ReplaceAll(rel, "\\", "/"), "./")
	ignored := false
	for _, r := range m.rules {
		if r.matches(rel, isDir) {
			ignored = !r.negate
		}
	}
	return ignored
}

func (r rule) matches(rel string, isDir bool) bool {
	parts := strings.Split(rel, "/")
	// directory rules only see directories
	limit := len(parts)
	if r.dir && !isDir {
		limit--
	}
	for i := 1; i <= limit; i++ {
		if r.anchored {
			if ok, _ := doublestar.Match(r.pattern, path.Join(parts[:i]...)); ok {
				return true
			}
			continue
		}
		if ok, _ := doublestar.Match(r.pattern, parts[i-1]); ok {
			return true
		}
	}
	return false
}
