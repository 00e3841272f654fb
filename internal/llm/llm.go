package llm

import (
	"context"
	"errors"
	"strings"
)

// ErrNoResult reports that the backend produced nothing usable. Callers treat
// it as "nothing to report yet" rather than as a failure.
var ErrNoResult = errors.New("llm: no result")

// Client is a structured chat-completion backend.
type Client interface {
	// Prime sends system instruction groups with no response schema. The
	// reply is discarded.
	Prime(ctx context.Context, system ...[]string) error
	// Generate sends prompt and decodes the first completion choice into out,
	// which must match prompt.Schema.
	Generate(ctx context.Context, prompt Prompt, out any) error
}

// Prompt is one request. Each System group becomes its own system message, in
// order, followed by a single user message.
type Prompt struct {
	System [][]string
	User   []string
	Schema Schema
}

// Join concatenates instruction parts with a single space and no other
// separator.
func Join(parts []string) string {
	return strings.Join(parts, " ")
}

// Message is a role/content pair after joining.
type Message struct {
	Role    string
	Content string
}

// Messages flattens the prompt into wire order.
func (p Prompt) Messages() []Message {
	out := make([]Message, 0, len(p.System)+1)
	for _, group := range p.System {
		out = append(out, Message{Role: "system", Content: Join(group)})
	}
	out = append(out, Message{Role: "user", Content: Join(p.User)})
	return out
}

// SystemMessages joins each group into a system message.
func SystemMessages(system [][]string) []Message {
	out := make([]Message, 0, len(system))
	for _, group := range system {
		out = append(out, Message{Role: "system", Content: Join(group)})
	}
	return out
}

// Disconnected is used when a provider could not be constructed. Every call
// returns ErrNoResult without any I/O.
type Disconnected struct {
	Reason error
}

func (Disconnected) Prime(context.Context, ...[]string) error { return ErrNoResult }

func (Disconnected) Generate(context.Context, Prompt, any) error { return ErrNoResult }

var _ Client = Disconnected{}
