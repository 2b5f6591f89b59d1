package domain

import (
	"strings"

	"golang.org/x/mod/semver"
)

// NormalizeVersion ensures the "v" prefix that x/mod/semver requires.
func NormalizeVersion(version string) string {
	if version == "" || strings.HasPrefix(version, "v") {
		return version
	}
	return "v" + version
}

// IsNewerVersion reports whether candidate is strictly newer than current.
// Falls back to inequality when either side is not valid semver, so git
// hashes and date tags still register as "different means newer".
func IsNewerVersion(candidate, current string) bool {
	c := NormalizeVersion(candidate)
	cur := NormalizeVersion(current)
	if semver.IsValid(c) && semver.IsValid(cur) {
		return semver.Compare(c, cur) > 0
	}
	return candidate != current
}

// CompareVersions orders two version strings, semver-aware with a lexical
// fallback for non-semver tags.
func CompareVersions(a, b string) int {
	na, nb := NormalizeVersion(a), NormalizeVersion(b)
	if semver.IsValid(na) && semver.IsValid(nb) {
		return semver.Compare(na, nb)
	}
	return strings.Compare(a, b)
}

// CleanTag strips common release-tag decorations so tags compare against
// manifest versions: "version-1.2.3", "release-1.2.3" and "v1.2.3" all
// become "1.2.3".
func CleanTag(tag string) string {
	cleaned := strings.TrimPrefix(tag, "version-")
	cleaned = strings.TrimPrefix(cleaned, "release-")
	return strings.TrimPrefix(cleaned, "v")
}

// IsPreRelease reports whether a version string looks like a pre-release.
func IsPreRelease(version string) bool {
	if strings.Contains(version, "-") {
		return true
	}
	lower := strings.ToLower(version)
	for _, marker := range []string{"alpha", "beta", "rc"} {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
