package output

import (
	"encoding/json"
	"fmt"

	"github.com/jbweber/lvmpool/internal/lvm"
)

// JSONFormatter formats resources as JSON.
type JSONFormatter struct{}

// FormatPool formats a single pool as JSON.
func (f *JSONFormatter) FormatPool(pool *lvm.Pool) (string, error) {
	return marshalJSON(pool, "pool")
}

// FormatPoolList formats a list of pools as a JSON array.
func (f *JSONFormatter) FormatPoolList(pools []*lvm.Pool) (string, error) {
	if len(pools) == 0 {
		return "[]\n", nil
	}
	return marshalJSON(pools, "pools")
}

// FormatReplica formats a single replica as JSON.
func (f *JSONFormatter) FormatReplica(replica *lvm.Replica) (string, error) {
	return marshalJSON(replica, "volume")
}

// FormatReplicaList formats a list of replicas as a JSON array.
func (f *JSONFormatter) FormatReplicaList(replicas []*lvm.Replica) (string, error) {
	if len(replicas) == 0 {
		return "[]\n", nil
	}
	return marshalJSON(replicas, "volumes")
}

func marshalJSON(v any, what string) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal %s to JSON: %w", what, err)
	}
	return string(data) + "\n", nil
}
