//go:build integration

package repository

import (
	"context"
	"testing"

	"github.com/cloo-solutions/askhr/internal/service"
	"github.com/cloo-solutions/askhr/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionLogRepository_CreateQuestionLog(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewQuestionLogRepository(pool)

	id, err := repo.CreateQuestionLog(ctx, service.QuestionLogEntry{
		Question:      "How many vacation days do I get?",
		Answer:        "25 days per year.",
		Confidence:    0.9,
		Rounds:        1,
		EvidenceCount: 3,
		Citations:     []string{"doc-1:0001"},
		DurationMs:    420,
	})

	require.NoError(t, err)
	assert.NotEmpty(t, id)

	var question string
	var citations []byte
	err = pool.QueryRow(ctx, `SELECT question, citations FROM question_logs WHERE id = $1`, id).Scan(&question, &citations)
	require.NoError(t, err)
	assert.Equal(t, "How many vacation days do I get?", question)
	assert.JSONEq(t, `["doc-1:0001"]`, string(citations))
}

func TestQuestionLogRepository_NilCitationsStoredAsEmptyArray(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewQuestionLogRepository(pool)

	id, err := repo.CreateQuestionLog(ctx, service.QuestionLogEntry{
		Question:     "Anything?",
		Answer:       "Cannot tell from the policies.",
		Insufficient: true,
	})
	require.NoError(t, err)

	var citations []byte
	require.NoError(t, pool.QueryRow(ctx, `SELECT citations FROM question_logs WHERE id = $1`, id).Scan(&citations))
	assert.JSONEq(t, `[]`, string(citations))
}
