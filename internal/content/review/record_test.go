// Copyright (c) 2026 Plume. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package review_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/plume/internal/content/review"
	"github.com/taibuivan/plume/internal/platform/apperr"
	"github.com/taibuivan/plume/internal/platform/validate"
	"github.com/taibuivan/plume/pkg/locale"
)

var createdAt = time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

func story(id string) *review.Record {
	return &review.Record{
		ContentID: id,
		Kind:      review.KindStory,
		AuthorID:  "author-1",
		Status:    review.StatusDraft,
		Title:     locale.Text{"fr": "Le Phare", "en": "The Lighthouse"},
		Metadata:  map[string]string{"genre": "drama"},
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

/*
TestRecord_ApplyEdits checks that edits overlay only non-empty fields and are snapshotted.
*/
func TestRecord_ApplyEdits(t *testing.T) {
	record := story("c1")
	edits := &review.Edits{
		Title:    locale.Text{"fr": "Le Grand Phare", "en": ""},
		Metadata: map[string]string{"rating": "teen"},
	}

	record.ApplyEdits(edits)

	assert.Equal(t, "Le Grand Phare", record.Title["fr"])
	assert.Equal(t, "The Lighthouse", record.Title["en"])
	assert.Equal(t, map[string]string{"genre": "drama", "rating": "teen"}, record.Metadata)
	require.NotNil(t, record.AdminEdits)

	// The snapshot does not alias the caller's edits.
	edits.Title["fr"] = "changed"
	assert.Equal(t, "Le Grand Phare", record.AdminEdits.Title["fr"])

	untouched := story("c2")
	untouched.ApplyEdits(&review.Edits{})
	assert.Nil(t, untouched.AdminEdits)
}

/*
TestValidateDraft covers the story and chapter field rules.
*/
func TestValidateDraft(t *testing.T) {
	tests := []struct {
		name     string
		kind     review.Kind
		parentID string
		title    locale.Text
		body     locale.Text
		wantErr  bool
	}{
		{"story_ok", review.KindStory, "", locale.Text{"fr": "Titre"}, nil, false},
		{"story_without_title", review.KindStory, "", locale.Text{"fr": "  "}, nil, true},
		{"story_with_parent", review.KindStory, "0190a4a8-0000-7000-8000-000000000001", locale.Text{"fr": "T"}, nil, true},
		{"chapter_ok", review.KindChapter, "0190a4a8-0000-7000-8000-000000000001", locale.Text{"fr": "T"}, locale.Text{"fr": "Corps"}, false},
		{"chapter_without_parent", review.KindChapter, "", locale.Text{"fr": "T"}, locale.Text{"fr": "Corps"}, true},
		{"chapter_without_body", review.KindChapter, "0190a4a8-0000-7000-8000-000000000001", locale.Text{"fr": "T"}, nil, true},
		{"unknown_kind", review.Kind("poem"), "", locale.Text{"fr": "T"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := &validate.Validator{}
			review.ValidateDraft(v, tt.kind, tt.parentID, tt.title, tt.body, nil)
			if tt.wantErr {
				assert.True(t, apperr.HasCode(v.Err(), apperr.CodeValidation))
			} else {
				assert.NoError(t, v.Err())
			}
		})
	}
}

/*
TestMemoryStore_Update verifies revision compare-and-swap.
*/
func TestMemoryStore_Update(t *testing.T) {
	ctx := context.Background()
	store := review.NewMemoryStore()
	require.NoError(t, store.Create(ctx, story("c1")))
	assert.True(t, apperr.HasCode(store.Create(ctx, story("c1")), apperr.CodeConflict))

	first, err := store.FindByID(ctx, "c1")
	require.NoError(t, err)
	second, err := store.FindByID(ctx, "c1")
	require.NoError(t, err)

	first.Status = review.StatusPending
	require.NoError(t, store.Update(ctx, first, 0))
	assert.Equal(t, 1, first.Revision)

	second.Status = review.StatusArchived
	err = store.Update(ctx, second, 0)
	assert.True(t, apperr.HasCode(err, apperr.CodeConflict))

	stored, err := store.FindByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, review.StatusPending, stored.Status)

	missing := story("ghost")
	assert.True(t, apperr.HasCode(store.Update(ctx, missing, 0), apperr.CodeNotFound))
}

/*
TestMemoryStore_List checks filtering and ordering.
*/
func TestMemoryStore_List(t *testing.T) {
	ctx := context.Background()
	store := review.NewMemoryStore()

	older := story("c1")
	newer := story("c2")
	newer.UpdatedAt = createdAt.Add(time.Hour)
	newer.Status = review.StatusPending
	chapter := &review.Record{
		ContentID: "c3", Kind: review.KindChapter, ParentID: "c1", AuthorID: "author-1",
		Status: review.StatusDraft, Title: locale.Text{"fr": "Un"}, CreatedAt: createdAt, UpdatedAt: createdAt,
	}

	for _, record := range []*review.Record{older, newer, chapter} {
		require.NoError(t, store.Create(ctx, record))
	}

	stories, total, err := store.List(ctx, review.Filter{Kind: review.KindStory}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	assert.Equal(t, "c2", stories[0].ContentID)

	pending, total, err := store.List(ctx, review.Filter{Status: review.StatusPending}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "c2", pending[0].ContentID)

	chapters, _, err := store.List(ctx, review.Filter{ParentID: "c1"}, 10, 0)
	require.NoError(t, err)
	require.Len(t, chapters, 1)
	assert.Equal(t, "c3", chapters[0].ContentID)
}
