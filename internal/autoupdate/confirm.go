package autoupdate

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Confirmer asks whether to proceed with a mutation
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// PromptConfirmer asks on a terminal. An empty answer accepts.
type PromptConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

// NewPromptConfirmer reads answers from in and writes prompts to out
func NewPromptConfirmer(in io.Reader, out io.Writer) *PromptConfirmer {
	return &PromptConfirmer{in: bufio.NewReader(in), out: out}
}

// Confirm prints prompt and reads a yes/no answer, asking again on
// anything else. At end of input only an explicit yes accepts.
func (p *PromptConfirmer) Confirm(prompt string) (bool, error) {
	for {
		fmt.Fprintf(p.out, "%s [Y/n]: ", prompt)

		input, err := p.in.ReadString('\n')
		answer := strings.TrimSpace(strings.ToLower(input))
		if err != nil {
			if err != io.EOF {
				return false, fmt.Errorf("reading input: %w", err)
			}
			fmt.Fprintln(p.out)
			return answer == "y" || answer == "yes", nil
		}

		switch answer {
		case "y", "yes", "":
			return true, nil
		case "n", "no":
			return false, nil
		}
	}
}

// NoConfirm accepts every prompt, for --noconfirm
type NoConfirm struct{}

// Confirm always returns true
func (NoConfirm) Confirm(string) (bool, error) {
	return true, nil
}
