package occupation

import (
	_ "embed"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// UnknownGroup is the label for codes missing from the major-group table.
const UnknownGroup = "Unknown"

//go:embed major_groups.yaml
var majorGroupsYAML []byte

var loadMajorGroups = sync.OnceValue(func() map[string]string {
	groups := make(map[string]string)
	if err := yaml.Unmarshal(majorGroupsYAML, &groups); err != nil {
		panic("occupation: embedded major group table: " + err.Error())
	}
	return groups
})

// MajorGroupName resolves a two-digit major group to its name.
func MajorGroupName(code string) string {
	if name, ok := loadMajorGroups()[code]; ok {
		return name
	}
	return UnknownGroup
}

// majorGroups returns the known major-group codes in ascending order.
func majorGroups() []string {
	groups := loadMajorGroups()
	codes := make([]string, 0, len(groups))
	for c := range groups {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
