package ident

import "strconv"

// InstanceHandle locally identifies one instance (distinct key) of a topic.
type InstanceHandle int32

// HandleNil is the handle of no instance.
const HandleNil InstanceHandle = 0

// IsNil returns true for HandleNil.
func (h InstanceHandle) IsNil() bool {
	return h == HandleNil
}

// String returns the handle number.
func (h InstanceHandle) String() string {
	return strconv.FormatInt(int64(h), 10)
}
