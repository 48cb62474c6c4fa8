package mediatype

import "github.com/Masterminds/semver/v3"

// versionSatisfies evaluates a declared version parameter as a semver
// constraint ("^2.1", ">=1.0, <2") against the observed one. Values that are
// not valid constraints or versions are compared literally.
func versionSatisfies(constraint, actual string) bool {
	if constraint == actual {
		return true
	}

	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return false
	}
	v, err := semver.NewVersion(actual)
	if err != nil {
		return false
	}
	return c.Check(v)
}
