// Package autoupdate detects upstream version drift for the items pinned in
// a container build manifest and turns it into a release.
//
// A run has two phases. The scan phase extracts every tracked item's current
// value from the manifest, asks the matching upstream resolver for the latest
// value and records each drift in a Ledger. Nothing is written until every
// check has completed. The mutation phase patches the explicit and hidden
// updates back into the manifest, computes the next release version and
// commits, tags and pushes it.
//
// Checks are declared in the project file (.imagebump.toml):
//
//	manifest = "Dockerfile"
//	main_item = "NGINX_VERSION"
//	release = "1.25.3-2"
//
//	[[check]]
//	kind = "github"
//	item = "NGINX_VERSION"
//	repo = "nginx/nginx"
//	prefix = "release-"
//
// Usage:
//
//	checker, err := autoupdate.NewChecker(project, manifest)
//	if err != nil {
//	    return err
//	}
//	ledger, err := checker.Scan(ctx)
package autoupdate
