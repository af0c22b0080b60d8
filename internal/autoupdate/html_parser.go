package autoupdate

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
)

// Error variables for HTML narrowing errors
var (
	// ErrInvalidXPath is returned when the XPath expression syntax is invalid
	ErrInvalidXPath = errors.New("invalid XPath expression")
	// ErrNoElementFound is returned when no element matches the selector/xpath
	ErrNoElementFound = errors.New("no element found matching selector")
)

// HTMLNarrower reduces an HTML page to the text of the elements matched by
// a CSS selector or an XPath expression. Selector wins when both are set.
type HTMLNarrower struct {
	Selector string
	XPath    string
}

// Narrow returns the text of every matching element, one per line.
// Without an expression the content is returned unchanged.
func (n HTMLNarrower) Narrow(content []byte) (string, error) {
	switch {
	case n.Selector != "":
		return n.narrowCSS(content)
	case n.XPath != "":
		return n.narrowXPath(content)
	default:
		return string(content), nil
	}
}

func (n HTMLNarrower) narrowCSS(content []byte) (string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	selection := doc.Find(n.Selector)
	if selection.Length() == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoElementFound, n.Selector)
	}

	texts := selection.Map(func(_ int, s *goquery.Selection) string {
		return strings.TrimSpace(s.Text())
	})
	return strings.Join(texts, "\n"), nil
}

func (n HTMLNarrower) narrowXPath(content []byte) (string, error) {
	doc, err := htmlquery.Parse(bytes.NewReader(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	nodes, err := htmlquery.QueryAll(doc, n.XPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidXPath, err)
	}
	if len(nodes) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNoElementFound, n.XPath)
	}

	texts := make([]string, 0, len(nodes))
	for _, node := range nodes {
		texts = append(texts, strings.TrimSpace(htmlquery.InnerText(node)))
	}
	return strings.Join(texts, "\n"), nil
}
