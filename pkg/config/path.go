package config

import "strconv"

// InstancePath appends one segment to a parent's instance path. index is the
// position the widget takes in its parent's child list, or -1 for a root.
//
//	InstancePath("", "Shell", -1)              // "/Shell/-1"
//	InstancePath("/Shell/-1", "Composite", 1)  // "/Shell/-1/Composite/1"
func InstancePath(parentPath, class string, index int) string {
	return parentPath + "/" + class + "/" + strconv.Itoa(index)
}
