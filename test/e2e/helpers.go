package e2e

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codeready-toolchain/skypeetl/ent"
	"github.com/codeready-toolchain/skypeetl/ent/conversation"
	"github.com/codeready-toolchain/skypeetl/ent/export"
	"github.com/codeready-toolchain/skypeetl/ent/message"
	"github.com/stretchr/testify/require"
)

// timeoutContext returns a context bounded by d, for use around a single
// Pipeline.Run call in a scenario test.
func timeoutContext(d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), d)
}

// WriteSourceFile writes raw JSON content to a file under t.TempDir() and
// returns its path, for use as the Pipeline's source argument.
func WriteSourceFile(t *testing.T, name string, content []byte) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

// WriteTarSource packages entries (path -> content) into a gzip-compressed
// tar archive under t.TempDir() and returns its path, exercising the
// Extractor's TAR/gzip auto-detection path.
func WriteTarSource(t *testing.T, entries map[string][]byte) string {
	t.Helper()

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for name, content := range entries {
		hdr := &tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		}
		require.NoError(t, tw.WriteHeader(hdr))
		_, err := tw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	dir := t.TempDir()
	path := filepath.Join(dir, "export.tar.gz")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
	return path
}

// ExportRow fetches the single export row written for userID, failing the
// test if it is missing or ambiguous.
func ExportRow(t *testing.T, client *ent.Client, userID string) *ent.Export {
	t.Helper()
	row, err := client.Export.Query().Where(export.UserID(userID)).Only(context.Background())
	require.NoError(t, err)
	return row
}

// Conversations fetches all conversation rows belonging to an export, in
// insertion order.
func Conversations(t *testing.T, client *ent.Client, exportID int) []*ent.Conversation {
	t.Helper()
	rows, err := client.Conversation.Query().
		Where(conversation.ExportID(exportID)).
		Order(ent.Asc(conversation.FieldID)).
		All(context.Background())
	require.NoError(t, err)
	return rows
}

// Messages fetches all message rows belonging to a conversation, ordered by
// timestamp.
func Messages(t *testing.T, client *ent.Client, conversationID int) []*ent.Message {
	t.Helper()
	rows, err := client.Message.Query().
		Where(message.ConversationID(conversationID)).
		WithAttachments().
		Order(ent.Asc(message.FieldTimestamp)).
		All(context.Background())
	require.NoError(t, err)
	return rows
}

// MessageCount returns the number of message rows for a conversation.
func MessageCount(t *testing.T, client *ent.Client, conversationID int) int {
	t.Helper()
	n, err := client.Message.Query().Where(message.ConversationID(conversationID)).Count(context.Background())
	require.NoError(t, err)
	return n
}
