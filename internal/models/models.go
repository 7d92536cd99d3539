package models

import "time"

// FallbackTag is the reserved tag of the intent answered when nothing else matches.
const FallbackTag = "fallback"

// Intent is a named cluster of example phrases sharing a set of responses.
type Intent struct {
	Tag       string   `json:"tag" yaml:"tag"`
	Patterns  []string `json:"patterns" yaml:"patterns"`
	Responses []string `json:"responses" yaml:"responses"`
}

// IsFallback reports whether the intent carries the reserved fallback tag.
func (i Intent) IsFallback() bool {
	return i.Tag == FallbackTag
}

// KnowledgeFile is the on-disk layout of an intent catalog.
type KnowledgeFile struct {
	Intents []Intent `json:"intents" yaml:"intents"`
}

// Turn is one user message and the reply the bot gave to it.
type Turn struct {
	User string    `json:"user"`
	Bot  string    `json:"bot"`
	At   time.Time `json:"at"`
}
