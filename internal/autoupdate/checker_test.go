package autoupdate

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const scanDockerfile = `FROM alpine:3.18 AS build
ARG FOO=1.2.3
RUN apk add --no-cache busybox=1.36.1-r4 curl
ARG PKG_TRIGGER=none
`

const scanApkOutput = `busybox-1.36.1-r5 x86_64 {busybox} (GPL-2.0-only) [upgradable from: busybox-1.36.1-r4]
ssl_client-1.36.1-r5 x86_64 {busybox} (GPL-2.0-only) [upgradable from: ssl_client-1.36.1-r4]
`

func fakeTags(tags map[string][]string) TagLister {
	return func(_ context.Context, url string) ([]string, error) {
		list, ok := tags[url]
		if !ok {
			return nil, fmt.Errorf("no such remote %s", url)
		}
		return list, nil
	}
}

func TestCheckerScanAllKinds(t *testing.T) {
	registry, _ := registryServer(t, "library/alpine", []string{"3.17", "3.18", "3.19", "edge"})
	runner := &fakeRunner{probe: "/sbin/apk", list: scanApkOutput}

	project := &Project{
		Manifest: "Dockerfile", MainItem: "FROM", Release: "3.18-4",
		Checks: []Check{
			{Kind: KindRegistry, Item: "FROM", Name: "alpine", Separator: " ", Filter: `^3\.\d+$`},
			{Kind: KindPackages, Item: "FROM", Separator: " ", Trigger: "PKG_TRIGGER"},
			{Kind: KindGit, Item: "FOO", URL: "https://example.com/foo.git", Filter: `^v(.+)$`},
			{Kind: KindWeb, Item: "MISSING", URL: "https://example.invalid", Filter: "x", Optional: true},
		},
	}
	checker, err := NewChecker(project, NewManifest("Dockerfile", scanDockerfile),
		WithHTTPClient(newTestClient(registry, nil)),
		WithRegistry(registry.URL, 2),
		WithContainerRunner(runner),
		WithTagLister(fakeTags(map[string][]string{"https://example.com/foo.git": {"v1.2.3", "v1.3.0", "nightly"}})),
	)
	if err != nil {
		t.Fatalf("NewChecker() error = %v", err)
	}

	ledger, err := checker.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	expected := []struct {
		item           string
		newValue       string
		classification Classification
	}{
		{"FROM", "alpine:3.19", Explicit},
		{"busybox", "1.36.1-r5", Explicit},
		{"ssl_client", "1.36.1-r5", Implicit},
		{"PKG_TRIGGER", UpgradeDigest([]PackageUpgrade{
			{Package: "busybox", New: "1.36.1-r5"}, {Package: "ssl_client", New: "1.36.1-r5"},
		}), Hidden},
		{"FOO", "1.3.0", Explicit},
	}
	updates := ledger.Updates()
	if len(updates) != len(expected) {
		t.Fatalf("expected %d updates, got %d: %+v", len(expected), len(updates), updates)
	}
	for i, e := range expected {
		u := updates[i]
		if u.Item != e.item || u.NewValue != e.newValue || u.Classification != e.classification {
			t.Errorf("update %d = %+v, want %s=%s (%v)", i, u, e.item, e.newValue, e.classification)
		}
	}

	changelog := "alpine 3.18 -> 3.19, busybox 1.36.1-r4 -> 1.36.1-r5, ssl_client 1.36.1-r4 -> 1.36.1-r5, FOO 1.2.3 -> 1.3.0"
	if got := ledger.Changelog(); got != changelog {
		t.Errorf("Changelog() = %q\nwant %q", got, changelog)
	}
}

func TestCheckerPingsEngineFirst(t *testing.T) {
	runner := &fakeRunner{pingErr: fmt.Errorf("%w: daemon not running", ErrEngineUnavailable)}
	project := &Project{Checks: []Check{
		{Kind: KindGit, Item: "FOO", URL: "u"},
		{Kind: KindPackages, Image: "alpine:3.18"},
	}}
	listed := false
	checker, err := NewChecker(project, NewManifest("Dockerfile", scanDockerfile),
		WithContainerRunner(runner),
		WithTagLister(func(context.Context, string) ([]string, error) {
			listed = true
			return []string{"9.9"}, nil
		}),
	)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := checker.Scan(context.Background()); !errors.Is(err, ErrEngineUnavailable) {
		t.Fatalf("expected ErrEngineUnavailable, got %v", err)
	}
	if listed || len(runner.scripts) != 0 {
		t.Error("no check should run when the engine is unavailable")
	}
}

func TestCheckerExtractionFailures(t *testing.T) {
	lister := WithTagLister(fakeTags(map[string][]string{"u": {"2.0"}}))

	t.Run("required check aborts", func(t *testing.T) {
		project := &Project{Checks: []Check{{Kind: KindGit, Item: "NOPE", URL: "u"}}}
		checker, _ := NewChecker(project, NewManifest("Dockerfile", scanDockerfile), lister)
		_, err := checker.Scan(context.Background())
		if !errors.Is(err, ErrExtractionFailed) {
			t.Fatalf("expected ErrExtractionFailed, got %v", err)
		}
		if !strings.Contains(err.Error(), "NOPE") || !strings.Contains(err.Error(), "Dockerfile") {
			t.Errorf("error should name key and manifest: %v", err)
		}
	})

	t.Run("optional check is skipped", func(t *testing.T) {
		project := &Project{Checks: []Check{
			{Kind: KindGit, Item: "NOPE", URL: "u", Optional: true},
			{Kind: KindGit, Item: "FOO", URL: "u"},
		}}
		checker, _ := NewChecker(project, NewManifest("Dockerfile", scanDockerfile), lister)
		ledger, err := checker.Scan(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if ledger.Len() != 1 {
			t.Errorf("expected only FOO, got %+v", ledger.Updates())
		}
	})

	t.Run("literal current value", func(t *testing.T) {
		project := &Project{Checks: []Check{{Kind: KindGit, Item: "UPSTREAM", URL: "u", Current: "1.0"}}}
		checker, _ := NewChecker(project, NewManifest("Dockerfile", scanDockerfile), lister)
		ledger, err := checker.Scan(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		u, ok := ledger.Find("UPSTREAM")
		if !ok || u.Classification != Implicit || u.NewValue != "2.0" {
			t.Errorf("unexpected update: %+v", u)
		}
	})

	t.Run("resolver failure aborts", func(t *testing.T) {
		project := &Project{Checks: []Check{{Kind: KindGit, Item: "FOO", URL: "elsewhere"}}}
		checker, _ := NewChecker(project, NewManifest("Dockerfile", scanDockerfile), lister)
		if _, err := checker.Scan(context.Background()); !errors.Is(err, ErrRequestFailed) {
			t.Errorf("expected ErrRequestFailed, got %v", err)
		}
	})
}

func TestCheckerHTTPKinds(t *testing.T) {
	server := serve(t, map[string]string{
		"/repos/acme/tool/releases/latest": `{"tag_name": "v1.3.0"}`,
		"/pypi/tool/json":                  `{"info": {"version": "1.2.4"}}`,
	})
	project := &Project{Checks: []Check{
		{Kind: KindGitHub, Item: "FOO", Repo: "acme/tool"},
		{Kind: KindPyPI, Item: "FOO", Name: "tool", Package: "tool"},
	}}
	checker, err := NewChecker(project, NewManifest("Dockerfile", scanDockerfile),
		WithHTTPClient(newTestClient(server, nil)),
		WithGitHub(server.URL, ""),
		WithPyPI(server.URL),
	)
	if err != nil {
		t.Fatal(err)
	}

	ledger, err := checker.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if got := ledger.Changelog(); got != "FOO 1.2.3 -> 1.3.0, tool 1.2.3 -> 1.2.4" {
		t.Errorf("Changelog() = %q", got)
	}
}

func TestCheckerDefaultClientSendsUserAgent(t *testing.T) {
	var agent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		agent = r.Header.Get("User-Agent")
		fmt.Fprint(w, `{"info": {"version": "1.2.4"}}`)
	}))
	defer server.Close()

	project := &Project{Checks: []Check{{Kind: KindPyPI, Item: "FOO", Name: "tool", Package: "tool"}}}
	checker, err := NewChecker(project, NewManifest("Dockerfile", scanDockerfile), WithPyPI(server.URL))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := checker.Scan(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(agent, "imagebump/") {
		t.Errorf("User-Agent = %q", agent)
	}
}

func TestCheckerUnchangedValues(t *testing.T) {
	project := &Project{Checks: []Check{{Kind: KindGit, Item: "FOO", URL: "u"}}}
	checker, _ := NewChecker(project, NewManifest("Dockerfile", scanDockerfile),
		WithTagLister(fakeTags(map[string][]string{"u": {"1.2.3", "1.0"}})))

	ledger, err := checker.Scan(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if ledger.Len() != 0 {
		t.Errorf("expected empty ledger, got %+v", ledger.Updates())
	}
}

func TestVersionLabel(t *testing.T) {
	if got := versionLabel(KindRegistry, "alpine:3.19"); got != "3.19" {
		t.Errorf("registry label = %q", got)
	}
	if got := versionLabel(KindGit, "alpine:3.19"); got != "alpine:3.19" {
		t.Errorf("git label = %q", got)
	}
}
