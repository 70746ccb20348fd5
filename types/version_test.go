package types //nolint:revive // types is a valid package name

import (
	"regexp"
	"testing"
)

func TestVersions(t *testing.T) {
	semver := regexp.MustCompile(`^\d+\.\d+\.\d+(-[0-9A-Za-z.]+)?$`)
	for name, v := range map[string]string{"Version": Version, "RecordVersion": RecordVersion} {
		if !semver.MatchString(v) {
			t.Errorf("%s %q is not semver", name, v)
		}
	}
}
