package lvm

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/jbweber/lvmpool/internal/shell"
)

// defaultDeviceSize is the size of every fake block device unless set.
const defaultDeviceSize = 10 * 1024 * 1024 * 1024 // 10 GiB

// fakeLVM is an in-memory implementation of Runner that simulates the LVM
// command surface used by this package.
type fakeLVM struct {
	mu sync.Mutex

	deviceSizes map[string]uint64
	pvs         []*fakePV
	vgs         []string
	lvs         []*fakeLV

	// failures makes a subcommand exit nonzero with the given stderr.
	failures map[string]string
	// errs makes a subcommand return a runner error.
	errs map[string]error
	// stdout replaces the stdout of a successful subcommand.
	stdout map[string]string

	calls []string
}

type fakePV struct {
	device string
	vg     string
}

type fakeLV struct {
	name string
	vg   string
	size uint64
}

func newFakeLVM() *fakeLVM {
	return &fakeLVM{
		deviceSizes: make(map[string]uint64),
		failures:    make(map[string]string),
		errs:        make(map[string]error),
		stdout:      make(map[string]string),
	}
}

// fail makes every later call of command exit with status 5 and stderr.
func (f *fakeLVM) fail(command, stderr string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[command] = stderr
}

// override replaces the stdout of every later call of command.
func (f *fakeLVM) override(command, stdout string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stdout[command] = stdout
}

// called returns the recorded invocations of command.
func (f *fakeLVM) called(command string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if c == command || strings.HasPrefix(c, command+" ") {
			out = append(out, c)
		}
	}
	return out
}

func (f *fakeLVM) Run(ctx context.Context, name string, args ...string) (shell.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if name == "lvm" && len(args) > 0 {
		name, args = args[0], args[1:]
	}
	f.calls = append(f.calls, strings.TrimSpace(name+" "+strings.Join(args, " ")))

	if err, ok := f.errs[name]; ok {
		return shell.Result{Code: -1}, err
	}
	if stderr, ok := f.failures[name]; ok {
		return exitWith(stderr), nil
	}

	var res shell.Result
	switch name {
	case "pvcreate":
		res = f.pvcreate(args)
	case "vgcreate":
		res = f.vgcreate(args)
	case "vgs":
		res = f.vgsReport(args)
	case "pvs":
		res = f.pvsReport()
	case "vgremove":
		res = f.vgremove(args)
	case "pvremove":
		res = f.pvremove(args)
	case "lvcreate":
		res = f.lvcreate(args)
	case "lvs":
		res = f.lvsReport()
	case "lvremove":
		res = f.lvremove(args)
	default:
		return shell.Result{Code: -1}, fmt.Errorf("%w: %s: executable file not found in $PATH", shell.ErrStart, name)
	}

	if out, ok := f.stdout[name]; ok && res.Succeeded() {
		res.Stdout = []byte(out)
	}
	return res, nil
}

func exitWith(stderr string) shell.Result {
	return shell.Result{Stderr: []byte(stderr), Code: 5}
}

func (f *fakeLVM) pv(device string) *fakePV {
	for _, pv := range f.pvs {
		if pv.device == device {
			return pv
		}
	}
	return nil
}

func (f *fakeLVM) hasVG(name string) bool {
	for _, vg := range f.vgs {
		if vg == name {
			return true
		}
	}
	return false
}

func (f *fakeLVM) deviceSize(device string) uint64 {
	if size, ok := f.deviceSizes[device]; ok {
		return size
	}
	return defaultDeviceSize
}

func (f *fakeLVM) vgSize(name string) (capacity, free uint64) {
	for _, pv := range f.pvs {
		if pv.vg == name {
			capacity += f.deviceSize(pv.device)
		}
	}
	free = capacity
	for _, lv := range f.lvs {
		if lv.vg == name {
			free -= lv.size
		}
	}
	return capacity, free
}

func (f *fakeLVM) pvcreate(devices []string) shell.Result {
	for _, dev := range devices {
		if pv := f.pv(dev); pv != nil && pv.vg != "" {
			return exitWith(fmt.Sprintf("  Can't initialize physical volume %q of volume group %q without -ff", dev, pv.vg))
		}
	}
	for _, dev := range devices {
		if f.pv(dev) == nil {
			f.pvs = append(f.pvs, &fakePV{device: dev})
		}
	}
	return shell.Result{}
}

func (f *fakeLVM) vgcreate(args []string) shell.Result {
	name, devices := args[0], args[1:]
	if f.hasVG(name) {
		return exitWith(fmt.Sprintf("  A volume group called %s already exists.", name))
	}
	for _, dev := range devices {
		pv := f.pv(dev)
		if pv == nil {
			return exitWith(fmt.Sprintf("  Physical volume %q not found", dev))
		}
		if pv.vg != "" {
			return exitWith(fmt.Sprintf("  Physical volume %q is already in volume group %q", dev, pv.vg))
		}
	}
	for _, dev := range devices {
		f.pv(dev).vg = name
	}
	f.vgs = append(f.vgs, name)
	return shell.Result{}
}

func (f *fakeLVM) vgsReport(args []string) shell.Result {
	fields := optionValue(args, "-o")
	if fields == "vg_name" {
		rows := make([]map[string]string, 0, len(f.vgs))
		for _, vg := range f.vgs {
			rows = append(rows, map[string]string{"vg_name": vg})
		}
		return reportResult("vg", rows)
	}

	name := args[len(args)-1]
	if !f.hasVG(name) {
		return exitWith(fmt.Sprintf("  Volume group %q not found\n  Cannot process volume group %s", name, name))
	}
	capacity, free := f.vgSize(name)
	return reportResult("vg", []map[string]string{{
		"vg_name": name,
		"vg_size": strconv.FormatUint(capacity, 10),
		"vg_free": strconv.FormatUint(free, 10),
	}})
}

func (f *fakeLVM) pvsReport() shell.Result {
	rows := make([]map[string]string, 0, len(f.pvs))
	for _, pv := range f.pvs {
		rows = append(rows, map[string]string{"pv_name": pv.device, "vg_name": pv.vg})
	}
	return reportResult("pv", rows)
}

func (f *fakeLVM) vgremove(args []string) shell.Result {
	name := args[0]
	if !f.hasVG(name) {
		return exitWith(fmt.Sprintf("  Volume group %q not found", name))
	}
	for _, lv := range f.lvs {
		if lv.vg == name {
			return exitWith(fmt.Sprintf("  Volume group %q still contains logical volumes", name))
		}
	}
	vgs := f.vgs[:0]
	for _, vg := range f.vgs {
		if vg != name {
			vgs = append(vgs, vg)
		}
	}
	f.vgs = vgs
	for _, pv := range f.pvs {
		if pv.vg == name {
			pv.vg = ""
		}
	}
	return shell.Result{}
}

func (f *fakeLVM) pvremove(devices []string) shell.Result {
	for _, dev := range devices {
		pv := f.pv(dev)
		if pv == nil {
			return exitWith(fmt.Sprintf("  No PV found on device %s.", dev))
		}
		if pv.vg != "" {
			return exitWith(fmt.Sprintf("  PV %s is used by VG %s so please use vgreduce first.", dev, pv.vg))
		}
	}
	pvs := f.pvs[:0]
	for _, pv := range f.pvs {
		if !contains(devices, pv.device) {
			pvs = append(pvs, pv)
		}
	}
	f.pvs = pvs
	return shell.Result{}
}

func (f *fakeLVM) lvcreate(args []string) shell.Result {
	sizeArg := optionValue(args, "-L")
	name := optionValue(args, "-n")
	vg := args[len(args)-1]

	size, err := strconv.ParseUint(strings.TrimSuffix(sizeArg, "b"), 10, 64)
	if err != nil {
		return exitWith(fmt.Sprintf("  Invalid argument for --size: %s", sizeArg))
	}
	if !f.hasVG(vg) {
		return exitWith(fmt.Sprintf("  Volume group %q not found", vg))
	}
	for _, lv := range f.lvs {
		if lv.vg == vg && lv.name == name {
			return exitWith(fmt.Sprintf("  Logical Volume %q already exists in volume group %q", name, vg))
		}
	}
	if _, free := f.vgSize(vg); size > free {
		return exitWith(fmt.Sprintf("  Volume group %q has insufficient free space", vg))
	}
	f.lvs = append(f.lvs, &fakeLV{name: name, vg: vg, size: size})
	return shell.Result{}
}

func (f *fakeLVM) lvsReport() shell.Result {
	rows := make([]map[string]string, 0, len(f.lvs))
	for _, lv := range f.lvs {
		rows = append(rows, map[string]string{
			"lv_name": lv.name,
			"vg_name": lv.vg,
			"lv_size": strconv.FormatUint(lv.size, 10),
		})
	}
	return reportResult("lv", rows)
}

func (f *fakeLVM) lvremove(args []string) shell.Result {
	path := args[len(args)-1]
	parts := strings.Split(strings.TrimPrefix(path, "/dev/"), "/")
	if len(parts) != 2 {
		return exitWith(fmt.Sprintf("  %q: Invalid path for Logical Volume.", path))
	}
	vg, name := parts[0], parts[1]
	for i, lv := range f.lvs {
		if lv.vg == vg && lv.name == name {
			f.lvs = append(f.lvs[:i], f.lvs[i+1:]...)
			return shell.Result{}
		}
	}
	return exitWith(fmt.Sprintf("  Failed to find logical volume \"%s/%s\"", vg, name))
}

func optionValue(args []string, option string) string {
	for i := 0; i < len(args)-1; i++ {
		if args[i] == option {
			return args[i+1]
		}
	}
	return ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func reportResult(key string, rows []map[string]string) shell.Result {
	report := map[string][]map[string][]map[string]string{
		"report": {{key: rows}},
	}
	out, err := json.Marshal(report)
	if err != nil {
		panic(err)
	}
	return shell.Result{Stdout: out}
}

// mockPublisher records publisher calls.
type mockPublisher struct {
	mu          sync.Mutex
	published   []Pool
	unpublished []string
	refreshed   []string
	err         error
}

func (p *mockPublisher) PublishPool(ctx context.Context, pool Pool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, pool)
	return p.err
}

func (p *mockPublisher) UnpublishPool(ctx context.Context, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.unpublished = append(p.unpublished, name)
	return p.err
}

func (p *mockPublisher) RefreshPool(ctx context.Context, name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshed = append(p.refreshed, name)
	return p.err
}

// ctxRecorder wraps fakeLVM and records the context error each
// subcommand saw when it was started.
type ctxRecorder struct {
	fake *fakeLVM
	seen map[string]error
	// after runs once a subcommand returns.
	after func(command string, args []string)
}

func (r *ctxRecorder) Run(ctx context.Context, name string, args ...string) (shell.Result, error) {
	if r.seen == nil {
		r.seen = make(map[string]error)
	}
	r.seen[name] = ctx.Err()
	res, err := r.fake.Run(ctx, name, args...)
	if r.after != nil {
		r.after(name, args)
	}
	return res, err
}
