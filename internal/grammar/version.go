// Package grammar manages the versioned OPTIMADE filter grammars.
package grammar

import (
	"fmt"
	"strconv"
	"strings"
)

// Version identifies a filter grammar release (major.minor.patch).
type Version struct {
	Major int
	Minor int
	Patch int
}

// DefaultVariant is the variant tag used when none is requested.
const DefaultVariant = "default"

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0, or 1 if v is lower than, equal to, or higher
// than other.
func (v Version) Compare(other Version) int {
	for _, d := range [][2]int{
		{v.Major, other.Major},
		{v.Minor, other.Minor},
		{v.Patch, other.Patch},
	} {
		if d[0] < d[1] {
			return -1
		}
		if d[0] > d[1] {
			return 1
		}
	}
	return 0
}

// ParseVersion parses "major.minor.patch" into a Version.
func ParseVersion(s string) (Version, error) {
	parts := strings.Split(strings.TrimPrefix(s, "v"), ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("invalid grammar version %q (want major.minor.patch)", s)
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return Version{}, fmt.Errorf("invalid grammar version %q (want major.minor.patch)", s)
		}
		nums[i] = n
	}
	return Version{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}
