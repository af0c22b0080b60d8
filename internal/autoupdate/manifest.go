package autoupdate

import (
	"fmt"
	"os"
)

// Manifest is a line-oriented build manifest held in memory
type Manifest struct {
	// Path is where the manifest was loaded from and is saved to
	Path string

	text string
	mode os.FileMode
}

// LoadManifest reads the manifest at path
func LoadManifest(path string) (*Manifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return &Manifest{Path: path, text: string(data), mode: info.Mode().Perm()}, nil
}

// NewManifest wraps text that has no backing file yet
func NewManifest(path, text string) *Manifest {
	return &Manifest{Path: path, text: text, mode: 0644}
}

// Text returns the current manifest content
func (m *Manifest) Text() string {
	return m.text
}

// Extract returns the value declared for key, see Extract
func (m *Manifest) Extract(key, pattern, separator string) (string, error) {
	value, err := Extract(key, pattern, separator, m.text)
	if err != nil {
		return "", fmt.Errorf("%w (manifest %s)", err, m.Path)
	}
	return value, nil
}

// Pinned reports whether the manifest declares item<separator>value literally
func (m *Manifest) Pinned(item, separator, value string) bool {
	if item == "" || value == "" {
		return false
	}
	return anchorRegexp(item, separator, value).MatchString(m.text)
}

// Replace substitutes value with newValue in the single declaration of
// item<separator>value. The separator and the rest of the line are kept.
func (m *Manifest) Replace(item, separator, value, newValue string) error {
	matches := anchorRegexp(item, separator, value).FindAllStringSubmatchIndex(m.text, -1)
	switch {
	case len(matches) == 0:
		return fmt.Errorf("%w: %s%s%s in %s", ErrPatternNotFound, item, separator, value, m.Path)
	case len(matches) > 1:
		return fmt.Errorf("%w: %s%s%s appears %d times in %s", ErrPatternAmbiguous, item, separator, value, len(matches), m.Path)
	}

	start, end := matches[0][2], matches[0][3]
	m.text = m.text[:start] + newValue + m.text[end:]
	return nil
}

// Save writes the manifest back to Path
func (m *Manifest) Save() error {
	if err := os.WriteFile(m.Path, []byte(m.text), m.mode); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// Apply writes every non-implicit update of the ledger into the manifest at
// path. The file is saved after each substitution; the first missing or
// ambiguous anchor aborts the run and leaves later entries untouched.
// It returns the number of substitutions written.
func Apply(ledger *Ledger, path string) (int, error) {
	manifest, err := LoadManifest(path)
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, update := range ledger.Updates() {
		if update.Classification == Implicit {
			continue
		}
		if err := manifest.Replace(update.Item, update.Separator, update.CurrentValue, update.NewValue); err != nil {
			return applied, err
		}
		if err := manifest.Save(); err != nil {
			return applied, err
		}
		applied++
	}
	return applied, nil
}
