package files

import "strings"

var defaultExcludeDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	"coverage":     true,
}

// exact filenames commonly safe to exclude when default excludes enabled
var defaultExcludeFileNames = map[string]bool{
	// lockfiles and generated manifests that happen to be YAML
	"pnpm-lock.yaml": true,
}

// suffixes of generated or vendored markup
var defaultExcludeFileSuffixes = []string{
	".min.html",
	".gen.yaml", ".gen.yml",
}

func isDefaultDirExcluded(name string) bool {
	return defaultExcludeDirs[name] || strings.HasPrefix(name, ".git")
}

func isDefaultFileExcluded(lowerRel string) bool {
	base := lowerRel
	if i := strings.LastIndex(lowerRel, "/"); i >= 0 {
		base = lowerRel[i+1:]
	}
	if defaultExcludeFileNames[base] {
		return true
	}
	for _, s := range defaultExcludeFileSuffixes {
		if strings.HasSuffix(lowerRel, s) {
			return true
		}
	}
	return false
}

// LooksBinary reports whether b has a NUL byte in its first 800 bytes.
func LooksBinary(b []byte) bool {
	const sniff = 800
	n := sniff
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if b[i] == 0 {
			return true
		}
	}
	return false
}
