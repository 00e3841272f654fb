package intents

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"warranty-copilot/internal/shared/storage/object"
)

// ErrUnknownCopilot is returned when the catalog has no section for a copilot.
var ErrUnknownCopilot = errors.New("unknown copilot")

// Intent is one platform topic a confidence category can map to.
type Intent struct {
	DisplayName            string   `yaml:"DisplayName"`
	TriggerID              string   `yaml:"TriggerId"`
	TopicID                string   `yaml:"TopicId"`
	ExternalIntentID       string   `yaml:"ExternalIntentId"`
	ShowInUncertainOptions *bool    `yaml:"ShowInUncertainOptions"`
	SubTopics              []string `yaml:"SubTopics"`
}

// Visible reports whether the intent may be offered as an uncertain option.
// A missing flag means visible.
func (i Intent) Visible() bool {
	return i.ShowInUncertainOptions == nil || *i.ShowInUncertainOptions
}

func (i Intent) hasSubtopic(subtopic string) bool {
	for _, s := range i.SubTopics {
		if s == subtopic {
			return true
		}
	}
	return false
}

// Section groups the intents of one copilot.
type Section struct {
	Topics []Intent `yaml:"Topics"`
}

// Catalog maps copilot name to its intents.
type Catalog map[string]Section

// Decode parses a YAML catalog.
func Decode(raw []byte) (Catalog, error) {
	var c Catalog
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("decode intents: %w", err)
	}
	if c == nil {
		c = Catalog{}
	}
	return c, nil
}

// Loader reads the catalog from an object store on every call.
type Loader struct {
	Store object.Store
	Key   string
}

// Load fetches and decodes the catalog.
func (l Loader) Load(ctx context.Context) (Catalog, error) {
	raw, err := object.ReadAll(ctx, l.Store, l.Key)
	if err != nil {
		return nil, fmt.Errorf("read intents %s: %w", l.Key, err)
	}
	return Decode(raw)
}
