package ai

import (
	"context"
	"errors"
	"fmt"
)

// ChainCompleter asks each completer in turn until one answers.
type ChainCompleter struct {
	completers []Completer
}

func NewChainCompleter(completers ...Completer) *ChainCompleter {
	var list []Completer
	for _, c := range completers {
		if c != nil {
			list = append(list, c)
		}
	}
	return &ChainCompleter{completers: list}
}

func (c *ChainCompleter) Len() int {
	return len(c.completers)
}

func (c *ChainCompleter) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	var errs []error
	for _, next := range c.completers {
		out, err := next.Complete(ctx, req)
		if err == nil {
			return out, nil
		}
		errs = append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	if len(errs) == 0 {
		return nil, ErrNoCompletion
	}
	return nil, fmt.Errorf("%w: %v", ErrNoCompletion, errors.Join(errs...))
}
