package domain

import (
	"fmt"
	"strings"
	"time"
)

// ProcessingStatus tracks a document through the ingestion pipeline.
type ProcessingStatus string

const (
	ProcessingStatusPending    ProcessingStatus = "pending"
	ProcessingStatusProcessing ProcessingStatus = "processing"
	ProcessingStatusIndexed    ProcessingStatus = "indexed"
	ProcessingStatusFailed     ProcessingStatus = "failed"
)

// DocumentMetadata carries the structured fields attached to a knowledge
// document. Optional fields are empty strings rather than an open map so
// callers get compile-time checks on what they read.
type DocumentMetadata struct {
	Chapter   string
	Section   string
	Type      string
	SourceURL string
}

// KnowledgeDocument is a raw procedures document supplied by the ingestion
// collaborator. Immutable once ingested.
type KnowledgeDocument struct {
	ID          string
	DisplayName string
	Content     string
	Summary     string
	Tags        []string
	Metadata    DocumentMetadata
	Status      ProcessingStatus
	IngestedAt  time.Time
	UpdatedAt   time.Time
}

// Size returns the content length in characters.
func (d *KnowledgeDocument) Size() int {
	return len(d.Content)
}

// HasTag reports whether the document carries the given tag (case-insensitive).
func (d *KnowledgeDocument) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// ValidateDocument validates a KnowledgeDocument before ingestion.
func ValidateDocument(d *KnowledgeDocument) error {
	if d == nil {
		return fmt.Errorf("document cannot be nil")
	}
	if d.ID == "" {
		return ErrMissingRequiredField
	}
	if strings.TrimSpace(d.Content) == "" {
		return NewDomainError(ErrCodeValidation, "document content is empty")
	}
	if !isValidProcessingStatus(d.Status) {
		return NewDomainError(ErrCodeValidation, fmt.Sprintf("invalid processing status: %s", d.Status))
	}
	return nil
}

func isValidProcessingStatus(s ProcessingStatus) bool {
	switch s {
	case ProcessingStatusPending, ProcessingStatusProcessing,
		ProcessingStatusIndexed, ProcessingStatusFailed:
		return true
	}
	return false
}
