package badger

import (
	"fmt"

	"github.com/poiesic/driftlens/core"
)

// Key prefixes for different data types
const (
	conditionRecordPrefix = "condrec"
	conditionSourcePrefix = "condsrc"
)

// makeConditionKey generates a key for a condition by ID.
func makeConditionKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", conditionRecordPrefix, id))
}

// conditionKeyPrefix matches every condition record key.
func conditionKeyPrefix() []byte {
	return []byte(conditionRecordPrefix + ":")
}

// makeConditionSourceKey generates a composite key for lookup by (label, source).
// Format: prefix:source:label
func makeConditionSourceKey(label, sourceID string) []byte {
	prefix := conditionSourcePrefix + ":"
	totalSize := len(prefix) + len(sourceID) + 1 + len(label)
	buf := make([]byte, totalSize)
	offset := copy(buf, prefix)
	offset += copy(buf[offset:], sourceID)
	buf[offset] = ':'
	copy(buf[offset+1:], label)
	return buf
}

// conditionSourceKeyPrefix matches every (label, source) index key.
func conditionSourceKeyPrefix() []byte {
	return []byte(conditionSourcePrefix + ":")
}
