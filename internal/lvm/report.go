package lvm

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Report families, used in ParseError.Report.
const (
	reportPoolList  = "pool-list"
	reportPoolSize  = "pool-size"
	reportDeviceMap = "device-map"
	reportVolumes   = "volume-list"
)

// LVM's JSON report layout is
//
//	{"report": [{"vg": [{"vg_name": "tank1", ...}]}]}
//
// with one top-level entry per report section. Field values are always
// strings. Each command family gets its own row type so that a shape
// change fails here instead of as a zero value further up.

type vgRow struct {
	Name string `json:"vg_name"`
	Size string `json:"vg_size"`
	Free string `json:"vg_free"`
}

type pvRow struct {
	Name   string `json:"pv_name"`
	VGName string `json:"vg_name"`
}

type lvRow struct {
	Name   string `json:"lv_name"`
	VGName string `json:"vg_name"`
	Size   string `json:"lv_size"`
}

type vgReport struct {
	Report []struct {
		VG *[]vgRow `json:"vg"`
	} `json:"report"`
}

type pvReport struct {
	Report []struct {
		PV *[]pvRow `json:"pv"`
	} `json:"report"`
}

type lvReport struct {
	Report []struct {
		LV *[]lvRow `json:"lv"`
	} `json:"report"`
}

// deviceMapping is one physical volume and the pool it belongs to.
// Pool is empty for an initialized device that is in no pool.
type deviceMapping struct {
	Device string
	Pool   string
}

// volumeRecord is one decoded lvs row.
type volumeRecord struct {
	Name string
	Pool string
	Size uint64
}

func decodeVGRows(report string, data []byte) ([]vgRow, error) {
	var r vgReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, &ParseError{Report: report, Reason: "invalid JSON", Err: err}
	}
	if len(r.Report) == 0 {
		return nil, &ParseError{Report: report, Reason: "missing report section"}
	}
	var rows []vgRow
	for _, section := range r.Report {
		if section.VG == nil {
			return nil, &ParseError{Report: report, Reason: `missing "vg" section`}
		}
		rows = append(rows, *section.VG...)
	}
	return rows, nil
}

// decodePoolNames decodes `vgs -o vg_name` output.
func decodePoolNames(data []byte) ([]string, error) {
	rows, err := decodeVGRows(reportPoolList, data)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(rows))
	for i, row := range rows {
		if row.Name == "" {
			return nil, &ParseError{Report: reportPoolList, Reason: fmt.Sprintf("row %d has no vg_name", i)}
		}
		names = append(names, row.Name)
	}
	return names, nil
}

// decodePoolSize decodes `vgs -o vg_name,vg_size,vg_free <name>` output.
// Exactly the first row is used; a report without rows is an error.
func decodePoolSize(name string, data []byte) (capacity, free uint64, err error) {
	rows, err := decodeVGRows(reportPoolSize, data)
	if err != nil {
		return 0, 0, err
	}
	if len(rows) == 0 {
		return 0, 0, &ParseError{Report: reportPoolSize, Reason: fmt.Sprintf("no row for pool %q", name)}
	}
	row := rows[0]
	if row.Name != "" && row.Name != name {
		return 0, 0, &ParseError{Report: reportPoolSize, Reason: fmt.Sprintf("row is for pool %q, want %q", row.Name, name)}
	}

	capacity, err = parseBytes(reportPoolSize, "vg_size", row.Size)
	if err != nil {
		return 0, 0, err
	}
	free, err = parseBytes(reportPoolSize, "vg_free", row.Free)
	if err != nil {
		return 0, 0, err
	}
	if free > capacity {
		return 0, 0, &ParseError{
			Report: reportPoolSize,
			Reason: fmt.Sprintf("free bytes %d exceed capacity %d for pool %q", free, capacity, name),
		}
	}
	return capacity, free, nil
}

// decodeDeviceMap decodes `pvs -o pv_name,vg_name` output.
func decodeDeviceMap(data []byte) ([]deviceMapping, error) {
	var r pvReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, &ParseError{Report: reportDeviceMap, Reason: "invalid JSON", Err: err}
	}
	if len(r.Report) == 0 {
		return nil, &ParseError{Report: reportDeviceMap, Reason: "missing report section"}
	}

	var out []deviceMapping
	for _, section := range r.Report {
		if section.PV == nil {
			return nil, &ParseError{Report: reportDeviceMap, Reason: `missing "pv" section`}
		}
		for i, row := range *section.PV {
			if row.Name == "" {
				return nil, &ParseError{Report: reportDeviceMap, Reason: fmt.Sprintf("row %d has no pv_name", i)}
			}
			out = append(out, deviceMapping{Device: row.Name, Pool: row.VGName})
		}
	}
	return out, nil
}

// decodeVolumes decodes `lvs -o lv_name,vg_name,lv_size` output.
func decodeVolumes(data []byte) ([]volumeRecord, error) {
	var r lvReport
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, &ParseError{Report: reportVolumes, Reason: "invalid JSON", Err: err}
	}
	if len(r.Report) == 0 {
		return nil, &ParseError{Report: reportVolumes, Reason: "missing report section"}
	}

	var out []volumeRecord
	for _, section := range r.Report {
		if section.LV == nil {
			return nil, &ParseError{Report: reportVolumes, Reason: `missing "lv" section`}
		}
		for i, row := range *section.LV {
			if row.Name == "" || row.VGName == "" {
				return nil, &ParseError{Report: reportVolumes, Reason: fmt.Sprintf("row %d has no lv_name or vg_name", i)}
			}
			size, err := parseBytes(reportVolumes, "lv_size", row.Size)
			if err != nil {
				return nil, err
			}
			out = append(out, volumeRecord{Name: row.Name, Pool: row.VGName, Size: size})
		}
	}
	return out, nil
}

// parseBytes parses a byte count reported with --units b. The unit suffix
// is normally suppressed with --nosuffix; a trailing "B" is tolerated.
func parseBytes(report, field, value string) (uint64, error) {
	s := strings.TrimSuffix(strings.TrimSpace(value), "B")
	if s == "" {
		return 0, &ParseError{Report: report, Reason: fmt.Sprintf("%s is empty", field)}
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, &ParseError{Report: report, Reason: fmt.Sprintf("%s %q is not a byte count", field, value), Err: err}
	}
	return n, nil
}
