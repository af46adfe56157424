package marker_test

import (
	"testing"

	"github.com/prefix-dev/pixi-sub001/internal/marker"
	"github.com/prefix-dev/pixi-sub001/internal/names"
)

func testEnv() marker.Env {
	return marker.Env{
		PythonVersion:       "3.11",
		PythonFullVersion:   "3.11.4",
		OSName:              "posix",
		SysPlatform:         "linux",
		PlatformMachine:     "x86_64",
		ImplementationName:  "cpython",
		PlatformSystem:      "Linux",
	}
}

func TestEvaluateEmpty(t *testing.T) {
	ok, err := marker.Evaluate("", testEnv(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !ok {
		t.Error("expected empty marker to evaluate true")
	}
}

func TestEvaluateComparisons(t *testing.T) {
	cases := []struct {
		expr string
		want bool
	}{
		{`sys_platform == "linux"`, true},
		{`sys_platform == "win32"`, false},
		{`sys_platform != "win32"`, true},
		{`python_version >= "3.8"`, true},
		{`python_version < "3.8"`, false},
		{`python_version >= "3.8" and sys_platform == "linux"`, true},
		{`python_version >= "3.8" and sys_platform == "win32"`, false},
		{`python_version < "3.0" or sys_platform == "linux"`, true},
		{`(python_version >= "3.8" and sys_platform == "linux") or python_version < "2"`, true},
	}

	for _, c := range cases {
		got, err := marker.Evaluate(c.expr, testEnv(), nil)
		if err != nil {
			t.Fatalf("Evaluate(%q) error: %v", c.expr, err)
		}

		if got != c.want {
			t.Errorf("Evaluate(%q) = %v, want %v", c.expr, got, c.want)
		}
	}
}

func TestEvaluateExtra(t *testing.T) {
	extras := names.NewExtras([]string{"security"})

	ok, err := marker.Evaluate(`extra == "security"`, testEnv(), extras)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !ok {
		t.Error("expected extra == \"security\" to be true with 'security' active")
	}

	ok, err = marker.Evaluate(`extra == "dev"`, testEnv(), extras)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ok {
		t.Error("expected extra == \"dev\" to be false with only 'security' active")
	}
}

func TestEvaluateUnknownVariable(t *testing.T) {
	_, err := marker.Evaluate(`bogus_marker == "x"`, testEnv(), nil)
	if err == nil {
		t.Error("expected error for unknown marker variable")
	}
}
