// Package matchspec parses and evaluates conda match-specs: the
// name[version][build][channel] selectors used both in a manifest's
// BinarySpec and in a locked record's depends list.
package matchspec

import (
	"fmt"
	"strings"

	"github.com/prefix-dev/pixi-sub001/internal/names"
	"github.com/prefix-dev/pixi-sub001/internal/pep440"
	"github.com/prefix-dev/pixi-sub001/internal/record"
)

// MatchSpec is a parsed conda match-spec: a name plus optional version
// range, build-string glob, and channel constraint.
type MatchSpec struct {
	Name         names.CondaName
	VersionRange string
	Build        string
	Channel      string
}

// Parse parses a match-spec string of the form
// "[channel::]name[ version][ build]" such as "numpy >=1.20,<2" or
// "pytorch::pytorch ==2.1.0 cuda*". The channel is only recognized as a
// prefix before "::".
func Parse(raw string) (MatchSpec, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return MatchSpec{}, fmt.Errorf("empty match-spec")
	}

	var channel string

	if idx := strings.Index(s, "::"); idx >= 0 {
		channel = s[:idx]
		s = s[idx+2:]
	}

	fields := strings.Fields(s)
	if len(fields) == 0 {
		return MatchSpec{}, fmt.Errorf("match-spec %q has no name", raw)
	}

	ms := MatchSpec{
		Name:    names.NewCondaName(fields[0]),
		Channel: channel,
	}

	if len(fields) > 1 {
		ms.VersionRange = fields[1]
	}

	if len(fields) > 2 {
		ms.Build = fields[2]
	}

	return ms, nil
}

// Matches reports whether a BinaryCondaRecord satisfies this match-spec.
// Name must match exactly (case-insensitively); version range, if present,
// is checked via PEP-440-style specifiers translated from conda's looser
// syntax (a bare "1.2.3" means "==1.2.3.*" in conda but here is treated as
// an exact "==1.2.3" match); build, if present, is matched as a glob with
// only a trailing "*" supported.
func (m MatchSpec) Matches(rec *record.BinaryCondaRecord) (bool, error) {
	if !m.Name.Equal(rec.Name) {
		return false, nil
	}

	if m.Channel != "" && !channelMatches(m.Channel, rec.Channel) {
		return false, nil
	}

	if m.VersionRange != "" {
		ok, err := versionMatches(rec.Version, m.VersionRange)
		if err != nil {
			return false, fmt.Errorf("matching version for %q: %w", m.Name.Source(), err)
		}

		if !ok {
			return false, nil
		}
	}

	if m.Build != "" && !globMatch(m.Build, rec.Build) {
		return false, nil
	}

	return true, nil
}

func channelMatches(want, have string) bool {
	want = strings.TrimSuffix(want, "/")
	have = strings.TrimSuffix(have, "/")

	return strings.HasSuffix(have, want)
}

// versionMatches splits a comma-separated conda version range (e.g.
// ">=1.20,<2") into independent PEP 440-style specifiers and ANDs them,
// also accepting a bare version as an exact match.
func versionMatches(version, rangeExpr string) (bool, error) {
	if rangeExpr == "*" {
		return true, nil
	}

	parts := strings.Split(rangeExpr, ",")

	specs := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if p[0] != '=' && p[0] != '<' && p[0] != '>' && p[0] != '!' && p[0] != '~' {
			p = "==" + p
		}

		specs = append(specs, p)
	}

	return pep440.MatchesAll(version, specs)
}

// globMatch implements the small subset of glob used by conda build
// strings: a trailing "*" matches any suffix, otherwise exact match.
func globMatch(pattern, value string) bool {
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(value, strings.TrimSuffix(pattern, "*"))
	}

	return pattern == value
}
