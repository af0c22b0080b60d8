package autoupdate

import (
	"errors"

	"github.com/obentoo/imagebump/internal/common/git"
)

// Error taxonomy of an update run. Every failure surfaced to the CLI wraps
// exactly one of these so ExitCode can map it.
var (
	// ErrNoUpdates is returned when no check reported drift and the caller asked to fail on it
	ErrNoUpdates = errors.New("no updates available")
	// ErrScrapeFailed is returned when a resolver produced empty or missing data
	ErrScrapeFailed = errors.New("scrape failed")
	// ErrExtractionFailed is returned when a key has no value in the manifest
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrPatternNotFound is returned when a patch anchor is absent from the manifest
	ErrPatternNotFound = errors.New("pattern not found")
	// ErrPatternMalformed is returned for invalid regexes and release strings
	ErrPatternMalformed = errors.New("pattern malformed")
	// ErrPatternAmbiguous is returned when a patch anchor matches more than once
	ErrPatternAmbiguous = errors.New("pattern matches more than one location")
	// ErrVariableNotSet is returned when required configuration is missing
	ErrVariableNotSet = errors.New("required variable not set")
	// ErrActionDenied is returned when the user declines the confirmation prompt
	ErrActionDenied = errors.New("action denied")
	// ErrUnsupportedPackageManager is returned when an image has neither apk nor apt-get
	ErrUnsupportedPackageManager = errors.New("unsupported package manager")
	// ErrRequestFailed is returned on transport errors and non-2xx HTTP responses
	ErrRequestFailed = errors.New("request failed")
	// ErrEngineUnavailable is returned when the container engine cannot be reached
	ErrEngineUnavailable = errors.New("container engine unavailable")
)

// Process exit codes
const (
	ExitSuccess                   = 0
	ExitGeneric                   = 1
	ExitNoUpdates                 = 2
	ExitScrapeFailed              = 3
	ExitExtractionFailed          = 4
	ExitPatternNotFound           = 5
	ExitPatternMalformed          = 6
	ExitVariableNotSet            = 7
	ExitActionDenied              = 8
	ExitUnsupportedPackageManager = 9
	ExitRequestFailed             = 10
	ExitPatternAmbiguous          = 11
	ExitGitFailure                = 12
	ExitEngineUnavailable         = 13
)

var exitCodes = []struct {
	err  error
	code int
}{
	{ErrNoUpdates, ExitNoUpdates},
	{ErrScrapeFailed, ExitScrapeFailed},
	{ErrExtractionFailed, ExitExtractionFailed},
	{ErrPatternNotFound, ExitPatternNotFound},
	{ErrPatternMalformed, ExitPatternMalformed},
	{ErrVariableNotSet, ExitVariableNotSet},
	{ErrActionDenied, ExitActionDenied},
	{ErrUnsupportedPackageManager, ExitUnsupportedPackageManager},
	{ErrRequestFailed, ExitRequestFailed},
	{ErrPatternAmbiguous, ExitPatternAmbiguous},
	{git.ErrGitCommand, ExitGitFailure},
	{ErrEngineUnavailable, ExitEngineUnavailable},
}

// ExitCode maps an error to its process exit code. nil is success and
// anything outside the taxonomy is generic.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	for _, ec := range exitCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return ExitGeneric
}
