package autoupdate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// fakeRunner answers Run by script: the probe gets probe, anything else gets list
type fakeRunner struct {
	probe   string
	list    string
	pingErr error
	runErr  error
	images  []string
	scripts []string
}

func (f *fakeRunner) Ping(context.Context) error { return f.pingErr }

func (f *fakeRunner) Run(_ context.Context, image, script string) (string, error) {
	f.images = append(f.images, image)
	f.scripts = append(f.scripts, script)
	if f.runErr != nil {
		return "", f.runErr
	}
	if script == probeScript {
		return f.probe, nil
	}
	return f.list, nil
}

const apkListOutput = `fetch https://dl-cdn.alpinelinux.org/alpine/v3.18/main/x86_64/APKINDEX.tar.gz
ssl_client-1.36.1-r5 x86_64 {busybox} (GPL-2.0-only) [upgradable from: ssl_client-1.36.1-r4]
busybox-1.36.1-r5 x86_64 {busybox} (GPL-2.0-only) [upgradable from: busybox-1.36.1-r4]
py3-setuptools-68.0.0-r1 noarch {py3-setuptools} (MIT) [upgradable from: py3-setuptools-67.8.0-r0]
`

const aptUpgradeOutput = `Reading package lists...
Inst libssl3 [3.0.11-1~deb12u1] (3.0.11-1~deb12u2 Debian-Security:12/stable-security [amd64])
Inst tzdata [2023c-5] (2024a-0+deb12u1 Debian:12.5/stable [all])
Inst newpkg (1.0 Debian:12/stable [amd64])
Conf libssl3 (3.0.11-1~deb12u2 Debian-Security:12/stable-security [amd64])
`

func TestAlpineParseLine(t *testing.T) {
	u, ok := Alpine{}.ParseLine("busybox-1.36.1-r5 x86_64 {busybox} (GPL-2.0-only) [upgradable from: busybox-1.36.1-r4]")
	if !ok {
		t.Fatal("expected line to parse")
	}
	expected := PackageUpgrade{Package: "busybox", Current: "1.36.1-r4", New: "1.36.1-r5"}
	if u != expected {
		t.Errorf("ParseLine() = %+v, want %+v", u, expected)
	}

	for _, line := range []string{
		"",
		"fetch https://dl-cdn.alpinelinux.org/alpine/v3.18/main/x86_64/APKINDEX.tar.gz",
		"busybox-1.36.1-r5 x86_64 {busybox} (GPL-2.0-only) [installed]",
		"foo-1.0-r1 x86_64 {foo} (MIT) [upgradable from: bar-0.9-r0]",
	} {
		if _, ok := (Alpine{}).ParseLine(line); ok {
			t.Errorf("line %q should not parse", line)
		}
	}
}

func TestDebianParseLine(t *testing.T) {
	u, ok := Debian{}.ParseLine("Inst tzdata [2023c-5] (2024a-0+deb12u1 Debian:12.5/stable [all])")
	if !ok {
		t.Fatal("expected line to parse")
	}
	expected := PackageUpgrade{Package: "tzdata", Current: "2023c-5", New: "2024a-0+deb12u1"}
	if u != expected {
		t.Errorf("ParseLine() = %+v, want %+v", u, expected)
	}

	for _, line := range []string{
		"Inst newpkg (1.0 Debian:12/stable [amd64])",
		"Conf libssl3 (3.0.11-1~deb12u2 Debian-Security:12/stable-security [amd64])",
		"Reading package lists...",
	} {
		if _, ok := (Debian{}).ParseLine(line); ok {
			t.Errorf("line %q should not parse", line)
		}
	}
}

func TestSplitAlpinePackage(t *testing.T) {
	tests := []struct {
		input, name, version string
		ok                   bool
	}{
		{"busybox-1.36.1-r4", "busybox", "1.36.1-r4", true},
		{"py3-setuptools-68.0.0-r1", "py3-setuptools", "68.0.0-r1", true},
		{"libcrypto3-3.1.4-r5", "libcrypto3", "3.1.4-r5", true},
		{"musl-1.2.4", "musl", "1.2.4", true},
		{"noversion", "", "", false},
		{"-1.0", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			name, version, ok := SplitAlpinePackage(tt.input)
			if name != tt.name || version != tt.version || ok != tt.ok {
				t.Errorf("SplitAlpinePackage(%q) = %q, %q, %v", tt.input, name, version, ok)
			}
		})
	}
}

func TestPackagesResolverAlpine(t *testing.T) {
	runner := &fakeRunner{probe: "/sbin/apk\n", list: apkListOutput}
	resolver := NewPackagesResolver(runner)

	upgrades, err := resolver.Upgrades(context.Background(), "alpine:3.18")
	if err != nil {
		t.Fatalf("Upgrades() error = %v", err)
	}

	var names []string
	for _, u := range upgrades {
		names = append(names, u.Package)
	}
	if !reflect.DeepEqual(names, []string{"busybox", "py3-setuptools", "ssl_client"}) {
		t.Errorf("upgrades not sorted by name: %v", names)
	}
	if len(runner.scripts) != 2 || runner.scripts[1] != (Alpine{}).ListCommand() {
		t.Errorf("unexpected scripts: %q", runner.scripts)
	}
	for _, image := range runner.images {
		if image != "alpine:3.18" {
			t.Errorf("ran against unexpected image %q", image)
		}
	}
}

func TestPackagesResolverDebian(t *testing.T) {
	resolver := NewPackagesResolver(&fakeRunner{probe: "/usr/bin/apt-get", list: aptUpgradeOutput})

	upgrades, err := resolver.Upgrades(context.Background(), "debian:12")
	if err != nil {
		t.Fatalf("Upgrades() error = %v", err)
	}
	if len(upgrades) != 2 || upgrades[0].Package != "libssl3" || upgrades[1].Package != "tzdata" {
		t.Errorf("unexpected upgrades: %+v", upgrades)
	}
}

func TestPackagesResolverErrors(t *testing.T) {
	t.Run("unsupported manager", func(t *testing.T) {
		_, err := NewPackagesResolver(&fakeRunner{probe: ""}).Upgrades(context.Background(), "scratch")
		if !errors.Is(err, ErrUnsupportedPackageManager) {
			t.Fatalf("expected ErrUnsupportedPackageManager, got %v", err)
		}
		if ExitCode(err) != ExitUnsupportedPackageManager {
			t.Errorf("ExitCode() = %d", ExitCode(err))
		}
	})

	t.Run("image without a shell", func(t *testing.T) {
		runErr := fmt.Errorf("%w: docker run: exec: \"sh\": executable file not found in $PATH", errNoShell)
		_, err := NewPackagesResolver(&fakeRunner{runErr: runErr}).Upgrades(context.Background(), "gcr.io/distroless/static")
		if !errors.Is(err, ErrUnsupportedPackageManager) || ExitCode(err) != ExitUnsupportedPackageManager {
			t.Errorf("expected ErrUnsupportedPackageManager, got %v", err)
		}
	})

	t.Run("container failure", func(t *testing.T) {
		_, err := NewPackagesResolver(&fakeRunner{runErr: errors.New("pull access denied")}).Detect(context.Background(), "private/image:1")
		if !errors.Is(err, ErrScrapeFailed) || !strings.Contains(err.Error(), "pull access denied") {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestIsMissingShell(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		stderr   string
		expected bool
	}{
		{"docker", 127, `docker: Error response from daemon: failed to create task for container: exec: "sh": executable file not found in $PATH: unknown.`, true},
		{"podman", 127, "Error: crun: executable file `sh` not found in $PATH: No such file or directory", true},
		{"message only", 1, `exec: "sh": executable file not found in $PATH`, true},
		{"pull failure", 125, "Unable to find image 'nope:1' locally", false},
		{"script failure", 1, "ERROR: unable to select packages", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isMissingShell(tt.code, tt.stderr); got != tt.expected {
				t.Errorf("isMissingShell(%d, %q) = %v, want %v", tt.code, tt.stderr, got, tt.expected)
			}
		})
	}
}

func TestListCommandsStopOnIndexFailure(t *testing.T) {
	for _, manager := range []PackageManager{Alpine{}, Debian{}} {
		cmd := manager.ListCommand()
		if !strings.Contains(cmd, " && ") || strings.Contains(cmd, ";") {
			t.Errorf("%s list command should chain the index update with &&: %q", manager.Name(), cmd)
		}
	}
}

func TestUpgradeDigest(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	upgradeGen := gen.SliceOfN(4, gen.Identifier()).Map(func(names []string) []PackageUpgrade {
		upgrades := make([]PackageUpgrade, len(names))
		for i, n := range names {
			upgrades[i] = PackageUpgrade{Package: n, Current: "1.0", New: "1.1"}
		}
		return upgrades
	})

	properties.Property("digest ignores upgrade order", prop.ForAll(
		func(upgrades []PackageUpgrade) bool {
			reversed := make([]PackageUpgrade, len(upgrades))
			for i, u := range upgrades {
				reversed[len(upgrades)-1-i] = u
			}
			return UpgradeDigest(upgrades) == UpgradeDigest(reversed)
		},
		upgradeGen,
	))

	properties.Property("digest is 12 hex characters", prop.ForAll(
		func(upgrades []PackageUpgrade) bool {
			d := UpgradeDigest(upgrades)
			return len(d) == 12 && strings.Trim(d, "0123456789abcdef") == ""
		},
		upgradeGen,
	))

	properties.TestingRun(t)

	a := []PackageUpgrade{{Package: "busybox", New: "1.36.1-r5"}}
	b := []PackageUpgrade{{Package: "busybox", New: "1.36.1-r6"}}
	if UpgradeDigest(a) == UpgradeDigest(b) {
		t.Error("digest should change with the new version")
	}
}

func TestEngineRunnerDefaults(t *testing.T) {
	if NewEngineRunner("").Engine != "docker" {
		t.Error("default engine should be docker")
	}

	err := NewEngineRunner("imagebump-no-such-engine").Ping(context.Background())
	if !errors.Is(err, ErrEngineUnavailable) {
		t.Fatalf("expected ErrEngineUnavailable, got %v", err)
	}
	if ExitCode(err) != ExitEngineUnavailable {
		t.Errorf("ExitCode() = %d", ExitCode(err))
	}
}

// fakeEngine writes a docker lookalike that echoes its arguments and fails
// like a real engine for the image "distroless"
func fakeEngine(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(t.TempDir(), "engine")
	script := `#!/bin/sh
for arg in "$@"; do
	if [ "$arg" = distroless ]; then
		echo 'exec: "sh": executable file not found in $PATH' >&2
		exit 127
	fi
done
echo "$@"
`
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEngineRunnerRun(t *testing.T) {
	runner := NewEngineRunner(fakeEngine(t))

	out, err := runner.Run(context.Background(), "debian:12", "id -u")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if want := "run --rm --user root --entrypoint  debian:12 sh -c id -u"; strings.TrimSpace(out) != want {
		t.Errorf("engine args = %q, want %q", strings.TrimSpace(out), want)
	}

	_, err = runner.Run(context.Background(), "distroless", probeScript)
	if !errors.Is(err, errNoShell) {
		t.Errorf("expected errNoShell, got %v", err)
	}
}
