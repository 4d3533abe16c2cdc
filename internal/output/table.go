package output

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/c2h5oh/datasize"

	"github.com/jbweber/lvmpool/internal/lvm"
)

// TableFormatter formats resources as human-readable tables.
type TableFormatter struct {
	// NoHeaders omits the header row.
	NoHeaders bool
	// Bytes prints sizes as exact byte counts.
	Bytes bool
}

// FormatPool formats a single pool as a table row.
func (f *TableFormatter) FormatPool(pool *lvm.Pool) (string, error) {
	return f.FormatPoolList([]*lvm.Pool{pool})
}

// FormatPoolList formats a list of pools as a table.
func (f *TableFormatter) FormatPoolList(pools []*lvm.Pool) (string, error) {
	if len(pools) == 0 {
		return "No pools found\n", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "NAME\tCAPACITY\tUSED\tFREE\tUSE%\tDEVICES")
	}

	for _, p := range pools {
		devices := "-"
		if len(p.Devices) > 0 {
			devices = strings.Join(p.Devices, ",")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Name, f.size(p.Capacity), f.size(p.Used), f.size(p.Free()),
			usePercent(p.Used, p.Capacity), devices)
	}

	_ = w.Flush()
	return buf.String(), nil
}

// FormatReplica formats a single replica as a table row.
func (f *TableFormatter) FormatReplica(replica *lvm.Replica) (string, error) {
	return f.FormatReplicaList([]*lvm.Replica{replica})
}

// FormatReplicaList formats a list of replicas as a table.
func (f *TableFormatter) FormatReplicaList(replicas []*lvm.Replica) (string, error) {
	if len(replicas) == 0 {
		return "No volumes found\n", nil
	}

	var buf bytes.Buffer
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	if !f.NoHeaders {
		_, _ = fmt.Fprintln(w, "UUID\tPOOL\tSIZE\tTHIN\tSHARE\tURI")
	}

	for _, r := range replicas {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%t\t%s\t%s\n",
			r.UUID, r.Pool, f.size(r.Size), r.Thin, r.Share, r.URI)
	}

	_ = w.Flush()
	return buf.String(), nil
}

func (f *TableFormatter) size(n uint64) string {
	if f.Bytes {
		return strconv.FormatUint(n, 10)
	}
	return datasize.ByteSize(n).HumanReadable()
}

// usePercent formats used/capacity as a whole percentage.
// Examples: "0%", "42%", "100%", "-" for an empty pool
func usePercent(used, capacity uint64) string {
	if capacity == 0 {
		return "-"
	}
	return fmt.Sprintf("%d%%", used*100/capacity)
}
