package satisfiability

import "sort"

// VerifySolveGroup applies the cross-environment check of spec.md §4.4
// "Solve-group cross-check": after every member environment of a solve
// group has been individually verified, every conda package used-by-pypi in
// some member must also be an expected conda package in some member.
func VerifySolveGroup(members []VerifiedIndividualEnvironment) error {
	expected := map[string]bool{}

	for _, m := range members {
		for _, name := range m.ExpectedCondaPackages {
			expected[name] = true
		}
	}

	var missing []string

	seen := map[string]bool{}

	for _, m := range members {
		for _, name := range m.CondaPackagesUsedByPyPI {
			if !expected[name] && !seen[name] {
				seen[name] = true
				missing = append(missing, name)
			}
		}
	}

	if len(missing) == 0 {
		return nil
	}

	sort.Strings(missing)

	return GroupCondaPackageShouldBePypi{Name: missing[0]}
}
