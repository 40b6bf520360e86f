package gitops

import (
	"path"
	"strings"
)

// GitAttributes is parsed .gitattributes content, reduced to the LFS
// filter patterns a working copy cares about.
type GitAttributes struct {
	patterns []gitAttributePattern
}

type gitAttributePattern struct {
	pattern string
	isLFS   bool
}

// ParseGitAttributes parses .gitattributes content and extracts LFS-related patterns.
func ParseGitAttributes(content string) *GitAttributes {
	var patterns []gitAttributePattern
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}

		pattern := fields[0]

		isLFS := false
		unsetLFS := false
		for _, attr := range fields[1:] {
			switch attr {
			case "filter=lfs":
				isLFS = true
			case "-filter", "!filter", "filter":
				unsetLFS = true
			}
		}

		if isLFS || unsetLFS {
			patterns = append(patterns, gitAttributePattern{
				pattern: pattern,
				isLFS:   isLFS && !unsetLFS,
			})
		}
	}
	return &GitAttributes{patterns: patterns}
}

// IsLFS returns true if the given file path matches an LFS filter
// pattern. Later patterns override earlier ones, matching git's rule.
func (g *GitAttributes) IsLFS(filePath string) bool {
	if g == nil || len(g.patterns) == 0 {
		return false
	}
	isLFS := false
	for _, p := range g.patterns {
		if matchGitPattern(p.pattern, filePath) {
			isLFS = p.isLFS
		}
	}
	return isLFS
}

// Patterns returns the patterns currently tracked as LFS.
func (g *GitAttributes) Patterns() []string {
	if g == nil {
		return nil
	}
	var tracked []string
	for _, p := range g.patterns {
		if p.isLFS {
			tracked = append(tracked, p.pattern)
		}
	}
	return tracked
}

// matchGitPattern matches a .gitattributes pattern against a file path.
// Patterns without '/' are matched against the filename only.
// Patterns with '/' are matched against the full path.
// The '**/' prefix matches any directory level.
func matchGitPattern(pattern, filePath string) bool {
	if strings.HasPrefix(pattern, "**/") {
		subPattern := pattern[3:]
		if matchSimple(subPattern, filePath) {
			return true
		}
		for i := 0; i < len(filePath); i++ {
			if filePath[i] == '/' {
				if matchSimple(subPattern, filePath[i+1:]) {
					return true
				}
			}
		}
		return false
	}

	if !strings.Contains(pattern, "/") {
		return matchSimple(pattern, path.Base(filePath))
	}

	return matchSimple(pattern, filePath)
}

// matchSimple wraps path.Match, returning false on error.
func matchSimple(pattern, name string) bool {
	matched, _ := path.Match(pattern, name)
	return matched
}
