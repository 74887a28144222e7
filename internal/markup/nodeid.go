package markup

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// NodeIDFunc generates element ids that are unique within a page.
type NodeIDFunc func() string

// UniqueNodeID returns a fresh id such as "UQ3f9c0a6e21b4".
func UniqueNodeID() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "UQ" + id[:12]
}

// SequentialNodeIDs returns a generator yielding prefix0, prefix1, ...
// It is meant for tests and other single-goroutine callers.
func SequentialNodeIDs(prefix string) NodeIDFunc {
	n := 0
	return func() string {
		id := prefix + strconv.Itoa(n)
		n++
		return id
	}
}
