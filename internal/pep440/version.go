// Package pep440 wraps PEP 440 version parsing/comparison and derives
// version-constraint strings for the pinning strategies of spec.md §6.
package pep440

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	goversion "github.com/aquasecurity/go-version/pkg/version"
	pep440 "github.com/aquasecurity/go-pep440-version"
)

// Version is a parsed PEP 440 version.
type Version = pep440.Version

// Parse parses a PEP 440 version string.
func Parse(s string) (Version, error) {
	return pep440.Parse(s)
}

// MatchesAll checks whether versionStr satisfies every given specifier
// string (each parsed independently and ANDed together).
func MatchesAll(versionStr string, specifiers []string) (bool, error) {
	v, err := pep440.Parse(versionStr)
	if err != nil {
		return false, fmt.Errorf("parsing version %q: %w", versionStr, err)
	}

	for _, spec := range specifiers {
		if spec == "" {
			continue
		}

		ss, err := pep440.NewSpecifiers(spec)
		if err != nil {
			return false, fmt.Errorf("parsing specifier %q: %w", spec, err)
		}

		if !ss.Check(v) {
			return false, nil
		}
	}

	return true, nil
}

// Matches checks a single specifier string against a version string.
func Matches(versionStr, specifier string) (bool, error) {
	return MatchesAll(versionStr, []string{specifier})
}

// SortVersionsDesc sorts version strings in descending order (highest
// first). Unparseable entries are dropped.
func SortVersionsDesc(versions []string) []string {
	type parsed struct {
		raw string
		ver Version
	}

	valid := make([]parsed, 0, len(versions))

	for _, raw := range versions {
		v, err := pep440.Parse(raw)
		if err != nil {
			continue
		}

		valid = append(valid, parsed{raw: raw, ver: v})
	}

	sort.SliceStable(valid, func(i, j int) bool {
		return valid[i].ver.GreaterThan(valid[j].ver)
	})

	result := make([]string, len(valid))
	for i, v := range valid {
		result[i] = v.raw
	}

	return result
}

// FindBestVersion returns the highest version from candidates that
// satisfies all specifiers, excluding pre-releases unless no stable
// version matches. Returns "" if nothing matches.
func FindBestVersion(candidates []string, specifiers []string) (string, error) {
	sorted := SortVersionsDesc(candidates)

	var bestPrerelease string

	for _, v := range sorted {
		parsed, _ := pep440.Parse(v)

		matches, err := MatchesAll(v, specifiers)
		if err != nil {
			return "", err
		}

		if !matches {
			continue
		}

		if parsed.IsPreRelease() {
			if bestPrerelease == "" {
				bestPrerelease = v
			}

			continue
		}

		return v, nil
	}

	return bestPrerelease, nil
}

// releaseSegments extracts the dotted numeric release segments from a PEP
// 440 version string (ignoring epoch, pre/post/dev/local qualifiers), e.g.
// "1.2.3rc1" -> [1,2,3], "2!4.5" -> [4,5].
func releaseSegments(raw string) []int64 {
	// Strip a leading epoch marker "N!" if present.
	s := raw
	if idx := strings.Index(s, "!"); idx >= 0 {
		s = s[idx+1:]
	}

	m := regexp.MustCompile(`^[0-9]+(?:\.[0-9]+)*`).FindString(s)
	if m == "" {
		return []int64{0}
	}

	parts := strings.Split(m, ".")
	segs := make([]int64, 0, len(parts))

	for _, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			n = 0
		}

		segs = append(segs, n)
	}

	return segs
}

// goVersionOf builds an aquasecurity/go-version from the release segments
// of a PEP 440 version and returns it together with those segments; the bump
// arithmetic itself is done on the integer segments by bumpSegment.
func goVersionOf(raw string) (*goversion.Version, []int64, error) {
	segs := releaseSegments(raw)

	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = strconv.FormatInt(s, 10)
	}

	v, err := goversion.Parse(strings.Join(parts, "."))

	return v, segs, err
}

// PinningStrategy determines how a resolved version (or set of versions) is
// turned into a version-range constraint when adding a dependency.
type PinningStrategy string

const (
	Semver      PinningStrategy = "semver"
	Minor       PinningStrategy = "minor"
	Major       PinningStrategy = "major"
	LatestUp    PinningStrategy = "latest-up"
	ExactVer    PinningStrategy = "exact-version"
	NoPin       PinningStrategy = "no-pin"
	DefaultPin                  = Semver
)

// DetermineVersionConstraint derives a PEP 440 specifier string that
// captures every version in versions, per the pinning table of spec.md §6.
// Returns "" if versions is empty.
func (s PinningStrategy) DetermineVersionConstraint(versions []string) (string, error) {
	sorted := SortVersionsDesc(versions)
	if len(sorted) == 0 {
		return "", nil
	}

	minVersion := sorted[len(sorted)-1]
	maxVersion := sorted[0]

	switch s {
	case ExactVer:
		uniq := make([]string, 0, len(sorted))
		seen := map[string]bool{}

		for _, v := range sorted {
			if !seen[v] {
				seen[v] = true
				uniq = append(uniq, v)
			}
		}

		parts := make([]string, len(uniq))
		for i, v := range uniq {
			parts[i] = "==" + v
		}

		return strings.Join(parts, " | "), nil

	case LatestUp:
		return ">=" + minVersion, nil

	case NoPin:
		return "*", nil

	case Major:
		upper, err := bumpSegment(maxVersion, 0)
		if err != nil {
			return "", err
		}

		return fmt.Sprintf(">=%s,<%s", minVersion, upper), nil

	case Minor:
		upper, err := bumpSegment(maxVersion, 1)
		if err != nil {
			return "", err
		}

		return fmt.Sprintf(">=%s,<%s", minVersion, upper), nil

	case Semver, "":
		_, segs, err := goVersionOf(maxVersion)
		if err != nil {
			return "", fmt.Errorf("parsing %q for semver pin: %w", maxVersion, err)
		}

		offset := 0

		for i, seg := range segs {
			if seg != 0 {
				offset = i

				break
			}
		}

		upper, err := bumpSegment(maxVersion, offset)
		if err != nil {
			return "", err
		}

		return fmt.Sprintf(">=%s,<%s", minVersion, upper), nil

	default:
		return "", fmt.Errorf("unknown pinning strategy %q", s)
	}
}

// bumpSegment bumps the release segment at the given zero-based index by
// one and truncates everything after it, e.g. bumpSegment("1.2.3", 1) ->
// "1.3" (bump minor, drop patch). bumpSegment("1.2.3", 0) -> "2" (bump
// major).
func bumpSegment(raw string, index int) (string, error) {
	segs := releaseSegments(raw)

	if index >= len(segs) {
		// Pad with zeros up to the requested index.
		padded := make([]int64, index+1)
		copy(padded, segs)
		segs = padded
	}

	segs[index]++
	segs = segs[:index+1]

	parts := make([]string, len(segs))
	for i, s := range segs {
		parts[i] = strconv.FormatInt(s, 10)
	}

	return strings.Join(parts, "."), nil
}
