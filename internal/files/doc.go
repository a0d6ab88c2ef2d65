// Package files discovers the documents a scan mounts: HTML pages and YAML
// tree files under the given roots, filtered by globs, default excludes and
// .securelogignore.
package files
