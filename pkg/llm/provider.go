package llm

import (
	"context"
	"errors"
	"fmt"
)

// Attachment is an inlined binary payload (an image) sent alongside a prompt.
type Attachment struct {
	Data     []byte
	MIMEType string
}

// Image is a synthesized image payload.
type Image struct {
	Data     []byte
	MIMEType string
}

// IncrementFunc receives the cumulative text produced so far.
type IncrementFunc func(cumulative string)

// ChatSession is a stateful chat context. One session is reused across a
// conversation until it is explicitly dropped.
type ChatSession interface {
	// StreamCompletion sends one user turn and blocks until the stream ends,
	// calling onIncrement with the cumulative text after every delta.
	StreamCompletion(ctx context.Context, text string, attachment *Attachment, onIncrement IncrementFunc) (string, error)
}

// Gateway defines the contract for any model backend.
type Gateway interface {
	// NewSession creates a chat context with the fixed system prompt and temperature.
	NewSession(ctx context.Context) (ChatSession, error)

	// SynthesizeImage returns the first image in the response, or (nil, nil)
	// when the provider returned none. A non-nil attachment is treated as the
	// image to edit.
	SynthesizeImage(ctx context.Context, prompt string, attachment *Attachment) (*Image, error)
}

// ErrEmptySynthesis marks an image request that produced no payload.
var ErrEmptySynthesis = errors.New("image synthesis returned no payload")

// ProviderError is the single error kind for transport, auth and provider failures.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Wrap returns err as a *ProviderError unless it already is one.
func Wrap(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return err
	}
	return &ProviderError{Provider: provider, Op: op, Err: err}
}

// Option allows for optional parameters like Temperature.
type Option func(*Options)

type Options struct {
	Temperature       float64
	SystemInstruction string
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithSystemInstruction(text string) Option {
	return func(o *Options) {
		o.SystemInstruction = text
	}
}

// ApplyOptions folds opts over defaults.
func ApplyOptions(defaults Options, opts ...Option) Options {
	for _, opt := range opts {
		opt(&defaults)
	}
	return defaults
}
