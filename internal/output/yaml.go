package output

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/jbweber/lvmpool/internal/lvm"
)

// YAMLFormatter formats resources as YAML.
type YAMLFormatter struct{}

// FormatPool formats a single pool as YAML.
func (f *YAMLFormatter) FormatPool(pool *lvm.Pool) (string, error) {
	data, err := yaml.Marshal(pool)
	if err != nil {
		return "", fmt.Errorf("failed to marshal pool to YAML: %w", err)
	}
	return string(data), nil
}

// FormatPoolList formats a list of pools as a YAML stream
// (multiple documents separated by ---).
func (f *YAMLFormatter) FormatPoolList(pools []*lvm.Pool) (string, error) {
	var buf bytes.Buffer
	for i, p := range pools {
		data, err := yaml.Marshal(p)
		if err != nil {
			return "", fmt.Errorf("failed to marshal pool %s to YAML: %w", p.Name, err)
		}
		// Add document separator between pools (but not before the first one)
		if i > 0 {
			buf.WriteString("---\n")
		}
		buf.Write(data)
	}
	return buf.String(), nil
}

// FormatReplica formats a single replica as YAML.
func (f *YAMLFormatter) FormatReplica(replica *lvm.Replica) (string, error) {
	data, err := yaml.Marshal(replica)
	if err != nil {
		return "", fmt.Errorf("failed to marshal volume to YAML: %w", err)
	}
	return string(data), nil
}

// FormatReplicaList formats a list of replicas as a YAML stream.
func (f *YAMLFormatter) FormatReplicaList(replicas []*lvm.Replica) (string, error) {
	var buf bytes.Buffer
	for i, r := range replicas {
		data, err := yaml.Marshal(r)
		if err != nil {
			return "", fmt.Errorf("failed to marshal volume %s to YAML: %w", r.UUID, err)
		}
		if i > 0 {
			buf.WriteString("---\n")
		}
		buf.Write(data)
	}
	return buf.String(), nil
}
