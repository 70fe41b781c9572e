// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package review stores the moderation state of stories and chapters.

# Lifecycle

	draft ──submit──▶ pending ──approve──▶ published ──archive──▶ archived
	  ▲                  │
	  │               reject
	  │                  ▼
	  └──(edit)───── rejected ──submit──▶ pending

Every transition bumps [Record.Revision]. Updates are compare-and-swap on the
revision, and the revision doubles as the notification transition version.
*/
package review

import (
	"maps"
	"time"

	"github.com/taibuivan/plume/internal/platform/validate"
	"github.com/taibuivan/plume/pkg/locale"
)

// # Enums

// Kind distinguishes stories from chapters.
type Kind string

const (
	KindStory   Kind = "story"
	KindChapter Kind = "chapter"
)

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	return k == KindStory || k == KindChapter
}

// Label is the human name used in messages.
func (k Kind) Label() string {
	if k == KindChapter {
		return "Chapter"
	}
	return "Story"
}

// Status is the moderation state of a content item.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusPublished Status = "published"
	StatusRejected  Status = "rejected"
	StatusArchived  Status = "archived"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusPublished, StatusRejected, StatusArchived:
		return true
	}
	return false
}

// IsEditable reports whether the author may still change the content.
func (s Status) IsEditable() bool {
	return s == StatusDraft || s == StatusRejected
}

// # Domain Entities

// Edits are the fields an admin may overwrite while approving.
type Edits struct {
	Title    locale.Text       `json:"title,omitempty"`
	Body     locale.Text       `json:"body,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// IsEmpty reports whether the edits change nothing.
func (edits *Edits) IsEmpty() bool {
	return edits == nil || (edits.Title.IsEmpty() && edits.Body.IsEmpty() && len(edits.Metadata) == 0)
}

// Record is the moderation view of a story or chapter.
type Record struct {
	ContentID       string            `json:"content_id"`
	Kind            Kind              `json:"kind"`
	ParentID        string            `json:"parent_id,omitempty"`
	AuthorID        string            `json:"author_id"`
	Status          Status            `json:"status"`
	Title           locale.Text       `json:"title"`
	Body            locale.Text       `json:"body"`
	Metadata        map[string]string `json:"metadata,omitempty"`
	RejectionReason string            `json:"rejection_reason,omitempty"`
	SubmittedAt     *time.Time        `json:"submitted_at,omitempty"`
	ReviewedAt      *time.Time        `json:"reviewed_at,omitempty"`
	ReviewedBy      string            `json:"reviewed_by,omitempty"`
	AdminEdits      *Edits            `json:"admin_edits,omitempty"`
	Revision        int               `json:"revision"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// ApplyEdits overlays non-empty edit fields onto the record and keeps a snapshot of them.
func (record *Record) ApplyEdits(edits *Edits) {
	if edits.IsEmpty() {
		return
	}
	record.Title = record.Title.Merge(edits.Title)
	record.Body = record.Body.Merge(edits.Body)
	if len(edits.Metadata) > 0 {
		metadata := maps.Clone(record.Metadata)
		if metadata == nil {
			metadata = make(map[string]string, len(edits.Metadata))
		}
		maps.Copy(metadata, edits.Metadata)
		record.Metadata = metadata
	}
	record.AdminEdits = edits.clone()
}

func (edits *Edits) clone() *Edits {
	if edits == nil {
		return nil
	}
	return &Edits{
		Title:    maps.Clone(edits.Title),
		Body:     maps.Clone(edits.Body),
		Metadata: maps.Clone(edits.Metadata),
	}
}

// Clone returns a deep copy safe to mutate.
func (record *Record) Clone() *Record {
	copied := *record
	copied.Title = maps.Clone(record.Title)
	copied.Body = maps.Clone(record.Body)
	copied.Metadata = maps.Clone(record.Metadata)
	copied.AdminEdits = record.AdminEdits.clone()
	if record.SubmittedAt != nil {
		submittedAt := *record.SubmittedAt
		copied.SubmittedAt = &submittedAt
	}
	if record.ReviewedAt != nil {
		reviewedAt := *record.ReviewedAt
		copied.ReviewedAt = &reviewedAt
	}
	return &copied
}

// # Field Identifiers

const (
	FieldKind     = "kind"
	FieldParentID = "parent_id"
	FieldTitle    = "title"
	FieldBody     = "body"
	FieldMetadata = "metadata"
	FieldDecision = "decision"
	FieldReason   = "reason"
)

const (
	TitleMaxLength = 200
	MetadataMax    = 32
)

// ValidateDraft checks the author-editable fields of a story or chapter.
func ValidateDraft(validator *validate.Validator, kind Kind, parentID string, title, body locale.Text, metadata map[string]string) {
	validator.Custom(FieldKind, !kind.IsValid(), "Must be one of: story, chapter").
		Custom(FieldTitle, title.IsEmpty(), "At least one localized title is required").
		Custom(FieldMetadata, len(metadata) > MetadataMax, "Too many metadata entries")

	for key, value := range title {
		validator.MaxLen(FieldTitle+"."+key, value, TitleMaxLength)
	}

	switch kind {
	case KindChapter:
		validator.Required(FieldParentID, parentID).
			Custom(FieldBody, body.IsEmpty(), "At least one localized body is required")
		if parentID != "" {
			validator.UUID(FieldParentID, parentID)
		}
	case KindStory:
		validator.Custom(FieldParentID, parentID != "", "Stories cannot have a parent")
	}
}

// ValidateEdits checks admin edits against the same limits as an author draft.
func ValidateEdits(validator *validate.Validator, edits *Edits) {
	if edits == nil {
		return
	}
	validator.Custom(FieldMetadata, len(edits.Metadata) > MetadataMax, "Too many metadata entries")
	for key, value := range edits.Title {
		validator.MaxLen(FieldTitle+"."+key, value, TitleMaxLength)
	}
}
