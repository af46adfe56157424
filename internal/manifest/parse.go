package manifest

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/prefix-dev/pixi-sub001/internal/manifestspec"
)

type rawWorkspaceSection struct {
	Name      string   `toml:"name"`
	Version   string   `toml:"version"`
	Channels  []any    `toml:"channels"`
	Platforms []string `toml:"platforms"`
}

type rawActivation struct {
	Scripts []string          `toml:"scripts"`
	Env     map[string]string `toml:"env"`
}

type rawPyPIOptions struct {
	IndexURL         string   `toml:"index-url"`
	ExtraIndexURLs   []string `toml:"extra-index-urls"`
	NoBuild          bool     `toml:"no-build"`
	NoBuildIsolation []string `toml:"no-build-isolation"`
	IndexStrategy    string   `toml:"index-strategy"`
	ExcludeNewer     string   `toml:"exclude-newer"`
}

type rawTargetSection struct {
	Dependencies      map[string]any `toml:"dependencies"`
	HostDependencies  map[string]any `toml:"host-dependencies"`
	BuildDependencies map[string]any `toml:"build-dependencies"`
	PypiDependencies  map[string]any `toml:"pypi-dependencies"`
}

type rawFeatureSection struct {
	Dependencies      map[string]any              `toml:"dependencies"`
	HostDependencies  map[string]any               `toml:"host-dependencies"`
	BuildDependencies map[string]any                `toml:"build-dependencies"`
	PypiDependencies  map[string]any                `toml:"pypi-dependencies"`
	Channels          []any                         `toml:"channels"`
	Platforms         []string                      `toml:"platforms"`
	Activation        rawActivation                 `toml:"activation"`
	PyPIOptions       rawPyPIOptions                `toml:"pypi-options"`
	Target            map[string]rawTargetSection   `toml:"target"`
}

type rawEnvironmentEntry struct {
	Features         []string `toml:"features"`
	SolveGroup       string   `toml:"solve-group"`
	NoDefaultFeature bool     `toml:"no-default-feature"`
}

type rawManifest struct {
	Workspace rawWorkspaceSection `toml:"workspace"`
	Project   rawWorkspaceSection `toml:"project"`

	Dependencies      map[string]any `toml:"dependencies"`
	HostDependencies  map[string]any `toml:"host-dependencies"`
	BuildDependencies map[string]any `toml:"build-dependencies"`
	PypiDependencies  map[string]any `toml:"pypi-dependencies"`

	Activation rawActivation `toml:"activation"`

	Feature      map[string]rawFeatureSection   `toml:"feature"`
	Environments map[string]rawEnvironmentEntry `toml:"environments"`
	Target       map[string]rawTargetSection    `toml:"target"`
}

const defaultFeatureName = "default"

// Parse decodes a workspace manifest from TOML bytes. Snake_case aliases
// for kebab-case keys are accepted, with a warning logged once per key
// normalized (spec.md §6).
func Parse(data []byte, logger *slog.Logger) (*Workspace, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var generic map[string]any
	if err := toml.Unmarshal(data, &generic); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	normalized, changed := normalizeKeys(generic)
	for _, key := range changed {
		logger.Warn("deprecated snake_case manifest key normalized", "key", key)
	}

	reencoded, err := toml.Marshal(normalized)
	if err != nil {
		return nil, fmt.Errorf("normalizing manifest: %w", err)
	}

	var raw rawManifest
	if err := toml.Unmarshal(reencoded, &raw); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}

	return buildWorkspace(raw)
}

func buildWorkspace(raw rawManifest) (*Workspace, error) {
	ws := raw.Workspace
	if ws.Name == "" {
		ws = raw.Project // legacy [project] table
	}

	w := &Workspace{Name: ws.Name, Version: ws.Version}

	defaultFeature, err := newFeature(defaultFeatureName, featureInputs{
		Dependencies:      raw.Dependencies,
		HostDependencies:  raw.HostDependencies,
		BuildDependencies: raw.BuildDependencies,
		PypiDependencies:  raw.PypiDependencies,
		Channels:          ws.Channels,
		Platforms:         ws.Platforms,
		Activation:        raw.Activation,
		Target:            raw.Target,
	})
	if err != nil {
		return nil, fmt.Errorf("default feature: %w", err)
	}

	w.Features = append(w.Features, defaultFeature)
	w.DefaultFeatureIndex = 0

	featureNames := make([]string, 0, len(raw.Feature))
	for name := range raw.Feature {
		featureNames = append(featureNames, name)
	}

	sortStrings(featureNames)

	for _, name := range featureNames {
		rf := raw.Feature[name]

		f, err := newFeature(name, featureInputs{
			Dependencies:      rf.Dependencies,
			HostDependencies:  rf.HostDependencies,
			BuildDependencies: rf.BuildDependencies,
			PypiDependencies:  rf.PypiDependencies,
			Channels:          rf.Channels,
			Platforms:         rf.Platforms,
			Activation:        rf.Activation,
			PyPIOptions:       rf.PyPIOptions,
			Target:            rf.Target,
		})
		if err != nil {
			return nil, fmt.Errorf("feature %q: %w", name, err)
		}

		w.Features = append(w.Features, f)
	}

	envNames := make([]string, 0, len(raw.Environments))
	for name := range raw.Environments {
		envNames = append(envNames, name)
	}

	sortStrings(envNames)

	solveGroupIndex := map[string]int{}

	for _, name := range envNames {
		re := raw.Environments[name]

		featureIdx := make([]int, 0, len(re.Features))

		for _, fname := range re.Features {
			idx := w.FeatureIndexByName(fname)
			if idx < 0 {
				return nil, fmt.Errorf("environment %q references unknown feature %q", name, fname)
			}

			featureIdx = append(featureIdx, idx)
		}

		env := Environment{
			Name:             name,
			FeatureIndices:   featureIdx,
			NoDefaultFeature: re.NoDefaultFeature,
		}

		if re.SolveGroup != "" {
			idx, ok := solveGroupIndex[re.SolveGroup]
			if !ok {
				idx = len(w.SolveGroups)
				w.SolveGroups = append(w.SolveGroups, SolveGroup{Name: re.SolveGroup})
				solveGroupIndex[re.SolveGroup] = idx
			}

			env.SolveGroupIndex = &idx
		}

		w.Environments = append(w.Environments, env)
	}

	// Back-fill each solve group's environment index list now that every
	// environment has a stable index (spec.md §9 "Back-references").
	for envIdx, env := range w.Environments {
		if env.SolveGroupIndex == nil {
			continue
		}

		g := &w.SolveGroups[*env.SolveGroupIndex]
		g.EnvironmentIndices = append(g.EnvironmentIndices, envIdx)
	}

	if len(w.Environments) == 0 {
		w.Environments = append(w.Environments, Environment{Name: "default"})
	}

	return w, nil
}

type featureInputs struct {
	Dependencies      map[string]any
	HostDependencies  map[string]any
	BuildDependencies map[string]any
	PypiDependencies  map[string]any
	Channels          []any
	Platforms         []string
	Activation        rawActivation
	PyPIOptions       rawPyPIOptions
	Target            map[string]rawTargetSection
}

func newFeature(name string, in featureInputs) (Feature, error) {
	f := Feature{
		Name:              name,
		CondaDeps:         map[SpecType]map[string]manifestspec.PixiSpec{},
		PyPiDeps:          map[string]manifestspec.PyPiSpec{},
		Platforms:         make([]Platform, 0, len(in.Platforms)),
		ActivationScripts: in.Activation.Scripts,
		ActivationEnv:     in.Activation.Env,
		PyPIOptions: PyPIOptions{
			IndexURL:         in.PyPIOptions.IndexURL,
			ExtraIndexURLs:   in.PyPIOptions.ExtraIndexURLs,
			NoBuild:          in.PyPIOptions.NoBuild,
			NoBuildIsolation: in.PyPIOptions.NoBuildIsolation,
			IndexStrategy:    in.PyPIOptions.IndexStrategy,
			ExcludeNewer:     in.PyPIOptions.ExcludeNewer,
		},
	}

	var err error

	if f.CondaDeps[Run], err = parseCondaDeps(in.Dependencies); err != nil {
		return Feature{}, err
	}

	if f.CondaDeps[Host], err = parseCondaDeps(in.HostDependencies); err != nil {
		return Feature{}, err
	}

	if f.CondaDeps[Build], err = parseCondaDeps(in.BuildDependencies); err != nil {
		return Feature{}, err
	}

	if f.PyPiDeps, err = parsePyPiDeps(in.PypiDependencies); err != nil {
		return Feature{}, err
	}

	for _, p := range in.Platforms {
		f.Platforms = append(f.Platforms, Platform(p))
	}

	for _, raw := range in.Channels {
		c, err := parseChannel(raw)
		if err != nil {
			return Feature{}, err
		}

		f.Channels = append(f.Channels, c)
	}

	return f, nil
}

func parseChannel(raw any) (Channel, error) {
	switch v := raw.(type) {
	case string:
		return Channel{Name: v}, nil
	case map[string]any:
		c := Channel{}

		if name, ok := v["channel"].(string); ok {
			c.Name = name
		}

		if prio, ok := v["priority"].(int64); ok {
			c.Priority = int(prio)
		}

		return c, nil
	default:
		return Channel{}, fmt.Errorf("unrecognized channel entry %v", raw)
	}
}

func parseCondaDeps(raw map[string]any) (map[string]manifestspec.PixiSpec, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	out := make(map[string]manifestspec.PixiSpec, len(raw))

	for name, v := range raw {
		spec, err := parseCondaSpecValue(v)
		if err != nil {
			return nil, fmt.Errorf("dependency %q: %w", name, err)
		}

		out[name] = spec
	}

	return out, nil
}

func parseCondaSpecValue(raw any) (manifestspec.PixiSpec, error) {
	switch v := raw.(type) {
	case string:
		versionRange := v
		if versionRange == "*" {
			versionRange = ""
		}

		return manifestspec.PixiSpec{Binary: &manifestspec.BinarySpec{VersionRange: versionRange}}, nil

	case map[string]any:
		if path, ok := v["path"].(string); ok {
			return manifestspec.PixiSpec{Source: &manifestspec.SourceSpec{
				Kind: manifestspec.SourceSpecPath,
				Path: path,
			}}, nil
		}

		if gitURL, ok := v["git"].(string); ok {
			return manifestspec.PixiSpec{Source: &manifestspec.SourceSpec{
				Kind:   manifestspec.SourceSpecGit,
				GitURL: gitURL,
				GitRef: parseGitRef(v),
				Subdir: stringField(v, "subdir"),
			}}, nil
		}

		if url, ok := v["url"].(string); ok {
			return manifestspec.PixiSpec{Source: &manifestspec.SourceSpec{
				Kind: manifestspec.SourceSpecURL,
				URL:  url,
			}}, nil
		}

		return manifestspec.PixiSpec{Binary: &manifestspec.BinarySpec{
			VersionRange: stringField(v, "version"),
			Build:        stringField(v, "build"),
			Channel:      stringField(v, "channel"),
		}}, nil

	default:
		return manifestspec.PixiSpec{}, fmt.Errorf("unrecognized dependency value %v", raw)
	}
}

func parsePyPiDeps(raw map[string]any) (map[string]manifestspec.PyPiSpec, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	out := make(map[string]manifestspec.PyPiSpec, len(raw))

	for name, v := range raw {
		spec, err := parsePyPiSpecValue(v)
		if err != nil {
			return nil, fmt.Errorf("pypi dependency %q: %w", name, err)
		}

		out[name] = spec
	}

	return out, nil
}

func parsePyPiSpecValue(raw any) (manifestspec.PyPiSpec, error) {
	switch v := raw.(type) {
	case string:
		versionRange := v
		if versionRange == "*" {
			versionRange = ""
		}

		return manifestspec.PyPiSpec{Kind: manifestspec.PyPiSpecVersion, VersionRange: versionRange}, nil

	case map[string]any:
		extras := stringSliceField(v, "extras")
		editable, _ := v["editable"].(bool)

		if gitURL, ok := v["git"].(string); ok {
			return manifestspec.PyPiSpec{
				Kind:     manifestspec.PyPiSpecGit,
				GitURL:   gitURL,
				GitRef:   parseGitRef(v),
				Subdir:   stringField(v, "subdir"),
				Extras:   extras,
				Editable: editable,
			}, nil
		}

		if url, ok := v["url"].(string); ok {
			return manifestspec.PyPiSpec{Kind: manifestspec.PyPiSpecURL, URL: url, Extras: extras, Editable: editable}, nil
		}

		if path, ok := v["path"].(string); ok {
			kind := manifestspec.PyPiSpecPath
			if editable {
				kind = manifestspec.PyPiSpecDirectory
			}

			return manifestspec.PyPiSpec{Kind: kind, Path: path, Extras: extras, Editable: editable}, nil
		}

		return manifestspec.PyPiSpec{
			Kind:         manifestspec.PyPiSpecVersion,
			VersionRange: stringField(v, "version"),
			Extras:       extras,
			Editable:     editable,
		}, nil

	default:
		return manifestspec.PyPiSpec{}, fmt.Errorf("unrecognized pypi dependency value %v", raw)
	}
}

func parseGitRef(v map[string]any) manifestspec.GitRef {
	if branch, ok := v["branch"].(string); ok {
		return manifestspec.GitRef{Kind: manifestspec.GitRefBranch, Value: branch}
	}

	if tag, ok := v["tag"].(string); ok {
		return manifestspec.GitRef{Kind: manifestspec.GitRefTag, Value: tag}
	}

	if rev, ok := v["rev"].(string); ok {
		return manifestspec.GitRef{Kind: manifestspec.GitRefRev, Value: rev}
	}

	if commit, ok := v["commit"].(string); ok {
		return manifestspec.GitRef{Kind: manifestspec.GitRefCommit, Value: commit}
	}

	return manifestspec.GitRef{Kind: manifestspec.GitRefDefaultBranch}
}

func stringField(v map[string]any, key string) string {
	s, _ := v[key].(string)

	return s
}

func stringSliceField(v map[string]any, key string) []string {
	raw, ok := v[key].([]any)
	if !ok {
		return nil
	}

	out := make([]string, 0, len(raw))

	for _, r := range raw {
		if s, ok := r.(string); ok {
			out = append(out, s)
		}
	}

	return out
}

// normalizeKeys recursively rewrites snake_case map keys to kebab-case,
// returning the (possibly copied) structure plus the list of keys that
// were changed, for the caller to log as deprecation warnings.
func normalizeKeys(v any) (any, []string) {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))

		var changed []string

		for k, child := range val {
			newChild, childChanged := normalizeKeys(child)
			changed = append(changed, childChanged...)

			newKey := strings.ReplaceAll(k, "_", "-")
			if newKey != k {
				changed = append(changed, k)
			}

			out[newKey] = newChild
		}

		return out, changed

	case []any:
		out := make([]any, len(val))

		var changed []string

		for i, child := range val {
			newChild, childChanged := normalizeKeys(child)
			out[i] = newChild
			changed = append(changed, childChanged...)
		}

		return out, changed

	default:
		return v, nil
	}
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
