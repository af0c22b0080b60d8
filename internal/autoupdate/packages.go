package autoupdate

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"sort"
	"strings"
)

// PackageUpgrade is one upgradable OS package of an image
type PackageUpgrade struct {
	Package string
	Current string
	New     string
}

// PackageManager is the closed set of supported OS package managers.
type PackageManager interface {
	// Name identifies the manager in messages
	Name() string
	// ListCommand is the shell command printing upgradable packages
	ListCommand() string
	// ParseLine extracts an upgrade from one output line
	ParseLine(line string) (PackageUpgrade, bool)
}

// Alpine parses `apk list -u` output
type Alpine struct{}

// Debian parses `apt-get -s upgrade` output
type Debian struct{}

// managerProbes maps a binary path to its manager, probed in order
var managerProbes = []struct {
	path    string
	manager PackageManager
}{
	{"/sbin/apk", Alpine{}},
	{"/usr/bin/apt-get", Debian{}},
}

func (Alpine) Name() string        { return "apk" }
func (Alpine) ListCommand() string { return "apk update -q >/dev/null && apk list -u" }

// apkUpgradable matches "<pkg>-<new> <arch> {<origin>} (<license>) [upgradable from: <pkg>-<cur>]"
var apkUpgradable = regexp.MustCompile(`^(\S+)\s.*\[upgradable from: (\S+)\]`)

// ParseLine reads one `apk list -u` line
func (Alpine) ParseLine(line string) (PackageUpgrade, bool) {
	m := apkUpgradable.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return PackageUpgrade{}, false
	}
	name, next, ok := SplitAlpinePackage(m[1])
	if !ok {
		return PackageUpgrade{}, false
	}
	curName, current, ok := SplitAlpinePackage(m[2])
	if !ok || curName != name {
		return PackageUpgrade{}, false
	}
	return PackageUpgrade{Package: name, Current: current, New: next}, true
}

func (Debian) Name() string        { return "apt-get" }
func (Debian) ListCommand() string { return "apt-get update -qq >/dev/null && apt-get -s upgrade" }

// aptInst matches "Inst <pkg> [<cur>] (<new> <suite> [<arch>])"
var aptInst = regexp.MustCompile(`^Inst (\S+) \[([^\]]+)\] \((\S+)`)

// ParseLine reads one simulated upgrade line; fresh installs have no current version and are skipped
func (Debian) ParseLine(line string) (PackageUpgrade, bool) {
	m := aptInst.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return PackageUpgrade{}, false
	}
	return PackageUpgrade{Package: m[1], Current: m[2], New: m[3]}, true
}

// alpineRelease matches the trailing package release, e.g. "-r3"
var alpineRelease = regexp.MustCompile(`-r\d+$`)

// SplitAlpinePackage splits "py3-foo-2.0-r1" into "py3-foo" and "2.0-r1".
// The version starts after the last '-' followed by a digit, ignoring the
// "-rN" release suffix.
func SplitAlpinePackage(s string) (name, version string, ok bool) {
	base := alpineRelease.ReplaceAllString(s, "")
	for i := len(base) - 2; i > 0; i-- {
		if base[i] == '-' && base[i+1] >= '0' && base[i+1] <= '9' {
			return s[:i], s[i+1:], true
		}
	}
	return "", "", false
}

// ContainerRunner runs shell scripts in ephemeral containers
type ContainerRunner interface {
	// Ping fails with ErrEngineUnavailable when the engine cannot be reached
	Ping(ctx context.Context) error
	// Run executes script with sh in a --rm container of image and returns stdout
	Run(ctx context.Context, image, script string) (string, error)
}

// EngineRunner drives a docker compatible CLI
type EngineRunner struct {
	// Engine is the binary, e.g. docker or podman
	Engine string
}

// NewEngineRunner creates a runner for engine, docker when empty
func NewEngineRunner(engine string) *EngineRunner {
	if engine == "" {
		engine = "docker"
	}
	return &EngineRunner{Engine: engine}
}

// Ping checks that the engine binary exists and its daemon answers
func (e *EngineRunner) Ping(ctx context.Context) error {
	if _, err := exec.LookPath(e.Engine); err != nil {
		return fmt.Errorf("%w: %s not found", ErrEngineUnavailable, e.Engine)
	}
	if _, err := e.exec(ctx, "version"); err != nil {
		return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
	}
	return nil
}

// Run starts a throwaway container as root with the image entrypoint
// cleared, so package indexes can be refreshed whatever the image USER is.
// An image without sh fails with errNoShell.
func (e *EngineRunner) Run(ctx context.Context, image, script string) (string, error) {
	return e.exec(ctx, "run", "--rm", "--user", "root", "--entrypoint", "", image, "sh", "-c", script)
}

// errNoShell marks a container that could not start sh
var errNoShell = errors.New("sh not found in image")

// missingShell matches the engine diagnostics for an absent sh binary
var missingShell = regexp.MustCompile(`"sh": executable file not found|executable file .sh. not found`)

// isMissingShell reports whether a failed run never started sh. Engines
// exit 127 when the container command cannot be found.
func isMissingShell(exitCode int, stderr string) bool {
	return exitCode == 127 || missingShell.MatchString(stderr)
}

func (e *EngineRunner) exec(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, e.Engine, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		runErr := errors.New(e.Engine + " " + args[0] + ": " + detail)

		var exitErr *exec.ExitError
		code := -1
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		}
		if args[0] == "run" && isMissingShell(code, stderr.String()) {
			runErr = fmt.Errorf("%w: %v", errNoShell, runErr)
		}
		return stdout.String(), runErr
	}
	return stdout.String(), nil
}

// probeScript prints the first package manager binary found in the image
var probeScript = func() string {
	var parts []string
	for _, p := range managerProbes {
		parts = append(parts, fmt.Sprintf("if [ -x %s ]; then echo %s; exit 0; fi", p.path, p.path))
	}
	return strings.Join(parts, "; ")
}()

// PackagesResolver lists the upgradable OS packages of an image.
type PackagesResolver struct {
	runner ContainerRunner
}

// NewPackagesResolver creates a resolver using runner
func NewPackagesResolver(runner ContainerRunner) *PackagesResolver {
	return &PackagesResolver{runner: runner}
}

// Detect resolves the package manager of image once
func (r *PackagesResolver) Detect(ctx context.Context, image string) (PackageManager, error) {
	out, err := r.runner.Run(ctx, image, probeScript)
	if errors.Is(err, errNoShell) {
		return nil, fmt.Errorf("%w: %s has no shell: %v", ErrUnsupportedPackageManager, image, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: probing %s: %v", ErrScrapeFailed, image, err)
	}
	found := strings.TrimSpace(out)
	for _, p := range managerProbes {
		if found == p.path {
			return p.manager, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedPackageManager, image)
}

// Upgrades returns one entry per upgradable package of image, sorted by name
func (r *PackagesResolver) Upgrades(ctx context.Context, image string) ([]PackageUpgrade, error) {
	manager, err := r.Detect(ctx, image)
	if err != nil {
		return nil, err
	}

	out, err := r.runner.Run(ctx, image, manager.ListCommand())
	if err != nil {
		return nil, fmt.Errorf("%w: %s list on %s: %v", ErrScrapeFailed, manager.Name(), image, err)
	}

	var upgrades []PackageUpgrade
	for _, line := range strings.Split(out, "\n") {
		if u, ok := manager.ParseLine(line); ok {
			upgrades = append(upgrades, u)
		}
	}
	sort.Slice(upgrades, func(i, j int) bool { return upgrades[i].Package < upgrades[j].Package })
	return upgrades, nil
}

// UpgradeDigest is a short stable digest of the pkg=new upgrade list, used
// as the value of the hidden rebuild trigger
func UpgradeDigest(upgrades []PackageUpgrade) string {
	lines := make([]string, 0, len(upgrades))
	for _, u := range upgrades {
		lines = append(lines, u.Package+"="+u.New)
	}
	sort.Strings(lines)
	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])[:12]
}
