package matchspec_test

import (
	"testing"

	"github.com/prefix-dev/pixi-sub001/internal/matchspec"
	"github.com/prefix-dev/pixi-sub001/internal/names"
	"github.com/prefix-dev/pixi-sub001/internal/record"
)

func TestParse(t *testing.T) {
	ms, err := matchspec.Parse("numpy >=1.20,<2 py311*")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if ms.Name.Normalized() != "numpy" || ms.VersionRange != ">=1.20,<2" || ms.Build != "py311*" {
		t.Errorf("Parse() = %+v, unexpected fields", ms)
	}
}

func TestParseWithChannel(t *testing.T) {
	ms, err := matchspec.Parse("pytorch::pytorch ==2.1.0")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if ms.Channel != "pytorch" || ms.Name.Normalized() != "pytorch" || ms.VersionRange != "==2.1.0" {
		t.Errorf("Parse() = %+v, unexpected fields", ms)
	}
}

func TestMatches(t *testing.T) {
	rec := &record.BinaryCondaRecord{
		Name:    names.NewCondaName("numpy"),
		Version: "1.25.0",
		Build:   "py311h1234_0",
		Channel: "https://conda.anaconda.org/conda-forge",
	}

	cases := []struct {
		spec string
		want bool
	}{
		{"numpy", true},
		{"scipy", false},
		{"numpy >=1.20,<2", true},
		{"numpy >=2.0", false},
		{"numpy * py311*", true},
		{"numpy * py310*", false},
		{"conda-forge::numpy", true},
		{"bioconda::numpy", false},
	}

	for _, c := range cases {
		ms, err := matchspec.Parse(c.spec)
		if err != nil {
			t.Fatalf("Parse(%q) error: %v", c.spec, err)
		}

		got, err := ms.Matches(rec)
		if err != nil {
			t.Fatalf("Matches(%q) error: %v", c.spec, err)
		}

		if got != c.want {
			t.Errorf("Matches(%q) = %v, want %v", c.spec, got, c.want)
		}
	}
}
