package config_test

import (
	"testing"

	"github.com/prefix-dev/pixi-sub001/internal/config"
)

func ptr[T any](v T) *T { return &v }

func TestMergeDefaultChannels(t *testing.T) {
	left := config.Config{DefaultChannels: []string{"conda-forge"}}
	right := config.Config{}

	merged := left.Merge(right)
	if len(merged.DefaultChannels) != 1 || merged.DefaultChannels[0] != "conda-forge" {
		t.Errorf("expected left kept when right empty, got %v", merged.DefaultChannels)
	}

	right = config.Config{DefaultChannels: []string{"bioconda"}}
	merged = left.Merge(right)

	if len(merged.DefaultChannels) != 1 || merged.DefaultChannels[0] != "bioconda" {
		t.Errorf("expected right to win wholesale, got %v", merged.DefaultChannels)
	}
}

func TestMergeMirrorsUnion(t *testing.T) {
	left := config.Config{Mirrors: map[string][]string{
		"https://conda.anaconda.org/conda-forge": {"https://mirror1"},
		"https://conda.anaconda.org/bioconda":    {"https://bmirror"},
	}}
	right := config.Config{Mirrors: map[string][]string{
		"https://conda.anaconda.org/conda-forge": {"https://mirror2"},
	}}

	merged := left.Merge(right)

	if got := merged.Mirrors["https://conda.anaconda.org/conda-forge"]; len(got) != 1 || got[0] != "https://mirror2" {
		t.Errorf("expected right entry to shadow left for overlapping key, got %v", got)
	}

	if got := merged.Mirrors["https://conda.anaconda.org/bioconda"]; len(got) != 1 || got[0] != "https://bmirror" {
		t.Errorf("expected left-only key preserved, got %v", got)
	}
}

func TestMergeRepodataConfigPerChannel(t *testing.T) {
	left := config.Config{RepodataConfig: config.RepodataConfig{
		PerChannel: map[string]config.RepodataChannelConfig{
			"conda-forge": {DisableJLAP: ptr(true), DisableBzip2: ptr(false)},
		},
	}}
	right := config.Config{RepodataConfig: config.RepodataConfig{
		PerChannel: map[string]config.RepodataChannelConfig{
			"conda-forge": {DisableZstd: ptr(true)},
		},
	}}

	merged := left.Merge(right)
	cf := merged.RepodataConfig.PerChannel["conda-forge"]

	if cf.DisableJLAP == nil || !*cf.DisableJLAP {
		t.Error("expected left DisableJLAP preserved when right leaves it unset")
	}

	if cf.DisableZstd == nil || !*cf.DisableZstd {
		t.Error("expected right DisableZstd to win")
	}
}

func TestMergeConcurrencyKeepsNonDefault(t *testing.T) {
	def := config.DefaultConcurrency()

	left := config.Config{Concurrency: config.ConcurrencyConfig{Solves: 8, Downloads: 2}}
	right := config.Config{Concurrency: def} // CLI didn't actually set anything

	merged := left.Merge(right)

	if merged.Concurrency.Solves != 8 || merged.Concurrency.Downloads != 2 {
		t.Errorf("expected left concurrency preserved when right is all-default, got %+v", merged.Concurrency)
	}

	right = config.Config{Concurrency: config.ConcurrencyConfig{Solves: 16, Downloads: def.Downloads}}
	merged = left.Merge(right)

	if merged.Concurrency.Solves != 16 {
		t.Errorf("expected explicit right Solves to win, got %d", merged.Concurrency.Solves)
	}

	if merged.Concurrency.Downloads != 2 {
		t.Errorf("expected left Downloads preserved since right matched default, got %d", merged.Concurrency.Downloads)
	}
}

func TestMergeProxyConfig(t *testing.T) {
	left := config.Config{ProxyConfig: config.ProxyConfig{NonProxyHosts: []string{"localhost"}}}
	right := config.Config{}

	merged := left.Merge(right)
	if len(merged.ProxyConfig.NonProxyHosts) != 1 || merged.ProxyConfig.NonProxyHosts[0] != "localhost" {
		t.Errorf("expected left non_proxy_hosts kept when right entirely default, got %v", merged.ProxyConfig.NonProxyHosts)
	}

	right = config.Config{ProxyConfig: config.ProxyConfig{HTTP: ptr("http://proxy:8080")}}
	merged = left.Merge(right)

	if len(merged.ProxyConfig.NonProxyHosts) != 0 {
		t.Errorf("expected right non_proxy_hosts (empty) to win wholesale, got %v", merged.ProxyConfig.NonProxyHosts)
	}

	if merged.ProxyConfig.HTTP == nil || *merged.ProxyConfig.HTTP != "http://proxy:8080" {
		t.Error("expected right http to win")
	}
}

func TestMergePyPIConfig(t *testing.T) {
	left := config.Config{PyPIConfig: config.PyPIConfig{
		ExtraIndexURLs:    []string{"https://a"},
		AllowInsecureHost: []string{"host-a"},
	}}
	right := config.Config{PyPIConfig: config.PyPIConfig{
		IndexURL:          ptr("https://pypi.example"),
		ExtraIndexURLs:    []string{"https://b"},
		AllowInsecureHost: []string{"host-b"},
	}}

	merged := left.Merge(right)

	if len(merged.PyPIConfig.ExtraIndexURLs) != 2 || merged.PyPIConfig.ExtraIndexURLs[0] != "https://a" || merged.PyPIConfig.ExtraIndexURLs[1] != "https://b" {
		t.Errorf("expected concatenated extra_index_urls, got %v", merged.PyPIConfig.ExtraIndexURLs)
	}

	if merged.PyPIConfig.IndexURL == nil || *merged.PyPIConfig.IndexURL != "https://pypi.example" {
		t.Error("expected right index_url to win")
	}
}

func TestMergeIdempotent(t *testing.T) {
	a := config.Config{DefaultChannels: []string{"conda-forge"}, Concurrency: config.DefaultConcurrency()}
	b := config.Config{Mirrors: map[string][]string{"x": {"y"}}, Concurrency: config.ConcurrencyConfig{Solves: 9, Downloads: 9}}

	once := a.Merge(b)
	twice := a.Merge(once)

	if len(once.DefaultChannels) != len(twice.DefaultChannels) || once.Concurrency != twice.Concurrency {
		t.Errorf("expected merge(a, merge(a, b)) == merge(a, b); got %+v vs %+v", once, twice)
	}
}

func TestFromTOMLMigratesDeprecatedKeys(t *testing.T) {
	data := []byte("change_ps1 = false\n")

	cfg, err := config.FromTOML(data, "test.toml", nil)
	if err != nil {
		t.Fatalf("FromTOML error: %v", err)
	}

	if cfg.Shell.ChangePs1 == nil || *cfg.Shell.ChangePs1 {
		t.Error("expected change_ps1 migrated into shell.change-ps1 as false")
	}
}
