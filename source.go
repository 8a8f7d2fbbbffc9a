package dirorg

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/atotto/clipboard"
)

// ManualProvider sources a plan from content the user produced
// elsewhere, for example by pasting the tree listing into a chat UI and
// copying the answer. The plan still goes through the Validator like any
// other proposal.
type ManualProvider struct {
	FromClipboard bool
	Stdin         io.Reader // defaults to os.Stdin
}

func (p *ManualProvider) Propose(_ context.Context, _ *ProposalRequest) (*Plan, error) {
	content, err := p.readContent()
	if err != nil {
		return nil, &ProviderError{Kind: ProviderNetwork, Err: err}
	}
	if strings.TrimSpace(content) == "" {
		return nil, &ProviderError{Kind: ProviderNetwork, Err: fmt.Errorf("empty plan content")}
	}
	return ParsePlan(content)
}

func (p *ManualProvider) readContent() (string, error) {
	if p.FromClipboard {
		c, err := clipboard.ReadAll()
		if err != nil {
			return "", err
		}
		return strings.TrimSpace(c), nil
	}

	in := p.Stdin
	if in == nil {
		in = os.Stdin
	}
	c, err := io.ReadAll(in)
	if err != nil {
		return "", err
	}
	return string(c), nil
}
