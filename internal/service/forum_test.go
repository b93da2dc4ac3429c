package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"studenthub-backend/internal/store"
)

// 测试匿名发帖、回复、点赞和积分
func TestForumPostReplyUpvote(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	thread, err := f.forum.CreateThread(ctx, "u1", ThreadRequest{Title: "Exam stress", Content: "tips?", IsAnonymous: true})
	require.NoError(t, err)
	assert.Equal(t, AnonymousAuthor, thread.AuthorID)
	assert.Equal(t, DefaultCategory, thread.Category)

	reply, err := f.forum.Reply(ctx, "u2", thread.ID, ReplyRequest{Content: "breaks help"})
	require.NoError(t, err)
	assert.Equal(t, "u2", reply.AuthorID)

	votes, err := f.forum.Upvote(ctx, thread.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, votes)

	got, err := f.forum.Get(ctx, thread.ID)
	require.NoError(t, err)
	assert.Len(t, got.Replies, 1)

	p1, err := f.progress.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 20, p1.TotalPoints)
	p2, err := f.progress.Get(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, 10, p2.TotalPoints)

	_, err = f.forum.Reply(ctx, "u2", "missing", ReplyRequest{Content: "hello"})
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = f.forum.Upvote(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// 测试分类校验和过滤
func TestForumCategoriesAndSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.forum.CreateThread(ctx, "u1", ThreadRequest{Title: "t", Content: "c", Category: "Gaming"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.forum.CreateThread(ctx, "u1", ThreadRequest{Title: "Internship hunt", Content: "any leads", Category: "Career Guidance"})
	require.NoError(t, err)
	_, err = f.forum.CreateThread(ctx, "u1", ThreadRequest{Title: "Roommate issues", Content: "advice", Category: "Relationships"})
	require.NoError(t, err)

	all, err := f.forum.List(ctx, "", "all")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	career, err := f.forum.List(ctx, "", "Career Guidance")
	require.NoError(t, err)
	require.Len(t, career, 1)
	assert.Equal(t, "Internship hunt", career[0].Title)

	found, err := f.forum.List(ctx, "ROOMMATE", "")
	require.NoError(t, err)
	assert.Len(t, found, 1)
}
