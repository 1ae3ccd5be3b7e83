package validate

import (
	"testing"
	"time"

	"github.com/codeready-toolchain/skypeetl/pkg/database"
	"github.com/codeready-toolchain/skypeetl/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRaw_AcceptsWellFormedExport(t *testing.T) {
	raw := &models.RawExport{
		UserID:     "alice",
		ExportDate: "2024-01-01T00:00:00Z",
		Conversations: []models.RawConversation{
			{ID: "conv-1", MessageList: []models.RawMessage{
				{ID: "msg-1", MessageType: "RichText"},
			}},
		},
	}
	assert.NoError(t, ValidateRaw(raw))
}

func TestValidateRaw_RejectsMissingUserID(t *testing.T) {
	raw := &models.RawExport{ExportDate: "2024-01-01T00:00:00Z"}
	err := ValidateRaw(raw)
	require.Error(t, err)
}

func TestValidateRaw_RejectsConversationMissingID(t *testing.T) {
	raw := &models.RawExport{
		UserID:        "alice",
		ExportDate:    "2024-01-01T00:00:00Z",
		Conversations: []models.RawConversation{{}},
	}
	err := ValidateRaw(raw)
	require.Error(t, err)
}

func TestValidateTransformed_AcceptsConsistentCounts(t *testing.T) {
	firstTime := time.Now()
	conversations := models.NewConversationMap()
	conversations.Set("conv-1", &models.TransformedConversation{
		ID:           "conv-1",
		MessageCount: 1,
		Messages:     []models.TransformedMessage{{ID: "msg-1"}},
	})
	export := &models.TransformedExport{
		Metadata: models.ExportMetadata{
			UserID:             "alice",
			TotalConversations: 1,
			TotalMessages:      1,
		},
		Conversations: conversations,
	}
	_ = firstTime
	assert.NoError(t, ValidateTransformed(export))
}

func TestValidateTransformed_RejectsMessageCountMismatch(t *testing.T) {
	conversations := models.NewConversationMap()
	conversations.Set("conv-1", &models.TransformedConversation{
		ID:           "conv-1",
		MessageCount: 5,
		Messages:     []models.TransformedMessage{{ID: "msg-1"}},
	})
	export := &models.TransformedExport{
		Metadata:      models.ExportMetadata{TotalMessages: 5, TotalConversations: 1},
		Conversations: conversations,
	}
	assert.Error(t, ValidateTransformed(export))
}

func TestValidateTransformed_RejectsTotalMessagesMismatch(t *testing.T) {
	conversations := models.NewConversationMap()
	conversations.Set("conv-1", &models.TransformedConversation{
		ID:           "conv-1",
		MessageCount: 1,
		Messages:     []models.TransformedMessage{{ID: "msg-1"}},
	})
	export := &models.TransformedExport{
		Metadata:      models.ExportMetadata{TotalMessages: 99, TotalConversations: 1},
		Conversations: conversations,
	}
	assert.Error(t, ValidateTransformed(export))
}

func TestValidateDBConfig_EnforcesConnectionPoolBounds(t *testing.T) {
	base := database.Config{Host: "localhost", Database: "etl", AcquireTimeout: time.Second}

	tooFew := base
	tooFew.MinConns, tooFew.MaxConns = 1, 5
	assert.Error(t, ValidateDBConfig(tooFew))

	tooMany := base
	tooMany.MinConns, tooMany.MaxConns = 2, 11
	assert.Error(t, ValidateDBConfig(tooMany))

	valid := base
	valid.MinConns, valid.MaxConns = 2, 10
	assert.NoError(t, ValidateDBConfig(valid))
}
