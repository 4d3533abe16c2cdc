// Package output provides formatters for displaying pools and replicas
// in various formats (table, YAML, JSON).
package output

import (
	"fmt"

	"github.com/jbweber/lvmpool/internal/lvm"
)

// Format represents an output format type.
type Format string

const (
	// FormatTable is a human-readable table format.
	FormatTable Format = "table"
	// FormatYAML is a YAML format.
	FormatYAML Format = "yaml"
	// FormatJSON is a JSON format for machine consumption.
	FormatJSON Format = "json"
)

// Formatter formats pools and replicas for output.
type Formatter interface {
	// FormatPool formats a single pool.
	FormatPool(pool *lvm.Pool) (string, error)

	// FormatPoolList formats a list of pools.
	FormatPoolList(pools []*lvm.Pool) (string, error)

	// FormatReplica formats a single replica.
	FormatReplica(replica *lvm.Replica) (string, error)

	// FormatReplicaList formats a list of replicas.
	FormatReplicaList(replicas []*lvm.Replica) (string, error)
}

// Options contains options for formatting output.
type Options struct {
	// Format specifies the output format.
	Format Format
	// NoHeaders omits headers in table format.
	NoHeaders bool
	// Bytes prints exact byte counts instead of human sizes in table format.
	Bytes bool
}

// NewFormatter creates a new Formatter based on the specified format.
func NewFormatter(opts Options) (Formatter, error) {
	switch opts.Format {
	case FormatTable:
		return &TableFormatter{NoHeaders: opts.NoHeaders, Bytes: opts.Bytes}, nil
	case FormatYAML:
		return &YAMLFormatter{}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s (supported: table, yaml, json)", opts.Format)
	}
}

// ValidateFormat checks if a format string is valid.
func ValidateFormat(format string) error {
	f := Format(format)
	switch f {
	case FormatTable, FormatYAML, FormatJSON:
		return nil
	default:
		return fmt.Errorf("invalid format: %s (valid formats: table, yaml, json)", format)
	}
}
