// Package model defines the memory service data types.
package model

import "time"

// Kind classifies a memory as a fact about the world or about an interaction.
type Kind string

const (
	KindWorld      Kind = "world"
	KindExperience Kind = "experience"
)

// Memory is a transient copy of a memory owned by the remote service.
type Memory struct {
	ID            string     `json:"id" yaml:"id"`
	Text          string     `json:"text" yaml:"text"`
	Kind          Kind       `json:"type" yaml:"type"`
	Entities      []string   `json:"entities,omitempty" yaml:"entities,omitempty"`
	Context       string     `json:"context,omitempty" yaml:"context,omitempty"`
	OccurredStart *time.Time `json:"occurred_start,omitempty" yaml:"occurred_start,omitempty"`
	OccurredEnd   *time.Time `json:"occurred_end,omitempty" yaml:"occurred_end,omitempty"`
	MentionedAt   *time.Time `json:"mentioned_at,omitempty" yaml:"mentioned_at,omitempty"`
	DocumentID    string     `json:"document_id,omitempty" yaml:"document_id,omitempty"`
	Score         *float64   `json:"score,omitempty" yaml:"score,omitempty"`
}

// BankInfo describes a memory bank after an ensure call.
type BankInfo struct {
	BankID  string `json:"bank_id" yaml:"bank_id"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
	Mission string `json:"mission,omitempty" yaml:"mission,omitempty"`
}

// CaptureItem is the unit submitted to the retain operation.
type CaptureItem struct {
	Content    string `json:"content" yaml:"content"`
	Context    string `json:"context,omitempty" yaml:"context,omitempty"`
	DocumentID string `json:"document_id,omitempty" yaml:"document_id,omitempty"`
	Timestamp  string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

// RetainResult reports how many items the service accepted.
type RetainResult struct {
	Success    bool   `json:"success" yaml:"success"`
	BankID     string `json:"bank_id" yaml:"bank_id"`
	ItemsCount int    `json:"items_count" yaml:"items_count"`
}

// RecallResult holds memories in service relevance order.
type RecallResult struct {
	Results []Memory `json:"results" yaml:"results"`
}

// ReflectResult is a free-form answer over stored memories.
type ReflectResult struct {
	Answer  string   `json:"answer" yaml:"answer"`
	Sources []Memory `json:"sources,omitempty" yaml:"sources,omitempty"`
}

// ListResult is a page of memories from the list endpoint.
type ListResult struct {
	Items []Memory `json:"items" yaml:"items"`
	Total int      `json:"total,omitempty" yaml:"total,omitempty"`
}

// DeleteResult reports whether a delete succeeded.
type DeleteResult struct {
	Success bool `json:"success" yaml:"success"`
}

// Entity is a resolved entity known to a bank.
type Entity struct {
	ID            string `json:"id" yaml:"id"`
	CanonicalName string `json:"canonical_name" yaml:"canonical_name"`
	MentionCount  int    `json:"mention_count,omitempty" yaml:"mention_count,omitempty"`
}

// EntityList is the response of the entities endpoint.
type EntityList struct {
	Items []Entity `json:"items" yaml:"items"`
}
