package pipeline

import (
	"context"
	"fmt"
	"testing"

	"github.com/codeready-toolchain/skypeetl/pkg/models"
	"github.com/codeready-toolchain/skypeetl/pkg/phase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func conversationWithMessages(id string, displayName string, n int) models.RawConversation {
	msgs := make([]models.RawMessage, n)
	for i := 0; i < n; i++ {
		msgs[i] = models.RawMessage{
			ID:                  fmt.Sprintf("%s-msg-%d", id, i),
			OriginalArrivalTime: "2024-01-01T00:00:00Z",
			From:                "alice",
			Content:             fmt.Sprintf("hello %d", i),
			MessageType:         "RichText",
		}
	}
	name := displayName
	return models.RawConversation{ID: id, DisplayName: &name, MessageList: msgs}
}

func TestTransform_SkipsNullDisplayNameConversationsAsElided(t *testing.T) {
	raw := &models.RawExport{
		UserID:     "alice",
		ExportDate: "2024-01-01T00:00:00Z",
		Conversations: []models.RawConversation{
			conversationWithMessages("conv-1", "Friends", 2),
			{ID: "conv-2", DisplayName: nil, MessageList: []models.RawMessage{{ID: "x"}}},
		},
	}

	tf := NewTransformer()
	out, err := tf.Transform(context.Background(), raw, "Alice", TransformOptions{ChunkSize: 10})
	require.NoError(t, err)

	assert.Equal(t, 1, out.Metadata.TotalConversations)
	assert.Equal(t, 1, out.Metadata.ElidedConversations)
	assert.Equal(t, 2, out.Metadata.TotalMessages)
}

func TestTransform_SerialAndParallelProduceIdenticalOutput(t *testing.T) {
	raw := &models.RawExport{
		UserID:     "alice",
		ExportDate: "2024-01-01T00:00:00Z",
		Conversations: []models.RawConversation{
			conversationWithMessages("conv-1", "Friends", 37),
		},
	}

	serial, err := NewTransformer().Transform(context.Background(), raw, "Alice", TransformOptions{
		ChunkSize: 5, ParallelProcessing: false,
	})
	require.NoError(t, err)

	parallel, err := NewTransformer().Transform(context.Background(), raw, "Alice", TransformOptions{
		ChunkSize: 5, ParallelProcessing: true, MaxWorkers: 4,
		Memory: phase.NewMemoryMonitor(1 << 20),
	})
	require.NoError(t, err)

	serialConv, ok := serial.Conversations.Get("conv-1")
	require.True(t, ok)
	parallelConv, ok := parallel.Conversations.Get("conv-1")
	require.True(t, ok)

	require.Equal(t, len(serialConv.Messages), len(parallelConv.Messages))
	for i := range serialConv.Messages {
		assert.Equal(t, serialConv.Messages[i].ID, parallelConv.Messages[i].ID)
		assert.Equal(t, serialConv.Messages[i].CleanedContent, parallelConv.Messages[i].CleanedContent)
	}
}

func TestTransform_PreservesMessageOrderWithinConversation(t *testing.T) {
	raw := &models.RawExport{
		Conversations: []models.RawConversation{
			conversationWithMessages("conv-1", "Friends", 12),
		},
	}

	out, err := NewTransformer().Transform(context.Background(), raw, "Alice", TransformOptions{
		ChunkSize: 3, ParallelProcessing: true, MaxWorkers: 3,
	})
	require.NoError(t, err)

	conv, ok := out.Conversations.Get("conv-1")
	require.True(t, ok)
	for i, msg := range conv.Messages {
		assert.Equal(t, fmt.Sprintf("conv-1-msg-%d", i), msg.ID)
	}
}

func TestTransform_MalformedHandlerInputDoesNotDropNeighboringMessages(t *testing.T) {
	raw := &models.RawExport{
		Conversations: []models.RawConversation{
			{
				ID:          "conv-1",
				DisplayName: strPtr("Friends"),
				MessageList: []models.RawMessage{
					{ID: "m1", MessageType: "RichText", Content: "ok", From: "alice"},
					{ID: "m2", MessageType: "RichText/Contacts", Content: "", From: "alice", Properties: map[string]any{"contacts": "not-a-slice"}},
					{ID: "m3", MessageType: "RichText", Content: "also ok", From: "alice"},
				},
			},
		},
	}

	errLog := phase.NewErrorLogger()
	out, err := NewTransformer().Transform(context.Background(), raw, "Alice", TransformOptions{
		ChunkSize: 10, ErrorLog: errLog,
	})
	require.NoError(t, err)

	conv, ok := out.Conversations.Get("conv-1")
	require.True(t, ok)
	assert.Len(t, conv.Messages, 3)
}

func strPtr(s string) *string { return &s }
