package satisfiability

import (
	"fmt"
	"strings"

	"github.com/prefix-dev/pixi-sub001/internal/names"
)

// RequirementSourceKind is the form a PyPI requirement's source takes,
// mirroring the six rows of spec.md §4.4's requirement-check table.
type RequirementSourceKind int

const (
	SourceRegistry RequirementSourceKind = iota
	SourceURL
	SourceGit
	SourcePath
	SourceDirectory
	SourceDirectoryEditable
)

// Requirement is a parsed PEP 508 requirement, as found in a PyPI
// dependency table entry or in a locked record's requires_dist list.
type Requirement struct {
	Name   names.PyPiName
	Extras []string
	Marker string

	Source RequirementSourceKind

	Specifier string // SourceRegistry

	URL string // SourceURL / SourceGit (git+ prefix retained)
	Ref string // SourceGit: branch/tag/rev, "" for default branch
	Subdir string

	Path string // SourcePath / SourceDirectory(Editable)

	Raw string
}

func (r Requirement) String() string {
	if r.Raw != "" {
		return r.Raw
	}

	return r.Name.String()
}

// ParseRequirement parses a PEP 508 requirement string:
// "name[extra1,extra2]specifier; marker" or "name @ url ; marker".
func ParseRequirement(raw string) (Requirement, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Requirement{}, fmt.Errorf("empty requirement")
	}

	req := Requirement{Raw: raw}

	if idx := strings.Index(s, ";"); idx >= 0 {
		req.Marker = strings.TrimSpace(s[idx+1:])
		s = strings.TrimSpace(s[:idx])
	}

	var url string

	if idx := strings.Index(s, "@"); idx >= 0 {
		url = strings.TrimSpace(s[idx+1:])
		s = strings.TrimSpace(s[:idx])
	}

	name := s
	var extras []string

	if idx := strings.Index(s, "["); idx >= 0 {
		end := strings.Index(s, "]")
		if end < 0 || end < idx {
			return Requirement{}, fmt.Errorf("requirement %q has unterminated extras", raw)
		}

		name = strings.TrimSpace(s[:idx])
		extras = splitAndTrim(s[idx+1:end])
		s = strings.TrimSpace(s[end+1:])
	} else {
		j := nameEnd(s)
		name = strings.TrimSpace(s[:j])
		s = strings.TrimSpace(s[j:])
	}

	if name == "" {
		return Requirement{}, fmt.Errorf("requirement %q has no package name", raw)
	}

	req.Name = names.NewPyPiName(name)
	req.Extras = extras

	if url != "" {
		switch {
		case strings.HasPrefix(url, "git+"):
			req.Source = SourceGit

			base := url
			if at := strings.LastIndex(url, "@"); at >= 0 && at > len("git+") {
				base = url[:at]
				req.Ref = url[at+1:]
			}

			if hash := strings.Index(base, "#subdirectory="); hash >= 0 {
				req.Subdir = base[hash+len("#subdirectory="):]
				base = base[:hash]
			}

			req.URL = base

		case strings.HasPrefix(url, "file://"):
			req.Source = SourceDirectory
			req.Path = strings.TrimPrefix(url, "file://")

		default:
			req.Source = SourceURL
			req.URL = url
		}

		return req, nil
	}

	req.Source = SourceRegistry
	req.Specifier = s

	return req, nil
}

// nameEnd finds the index where a bare (non-url, non-extras) requirement's
// name ends and its version specifier begins: the first character that is
// not a letter, digit, '-', '_', or '.'.
func nameEnd(s string) int {
	for i := 0; i < len(s); i++ {
		c := s[i]

		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_', c == '.':
			continue
		default:
			return i
		}
	}

	return len(s)
}

func splitAndTrim(s string) []string {
	var out []string

	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}

	return out
}
