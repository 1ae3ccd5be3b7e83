package pipeline

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/codeready-toolchain/skypeetl/ent"
	"github.com/codeready-toolchain/skypeetl/ent/rawexport"
	"github.com/codeready-toolchain/skypeetl/pkg/database"
	"github.com/codeready-toolchain/skypeetl/pkg/etlerrors"
	"github.com/codeready-toolchain/skypeetl/pkg/models"
	"github.com/codeready-toolchain/skypeetl/pkg/validate"
)

var conversationIDSanitizer = strings.NewReplacer(
	"<", "_", ">", "_", ":", "_", "\"", "_", "/", "_", "\\", "_", "|", "_", "?", "_", "*", "_",
)

func sanitizeConversationID(id string) string {
	return conversationIDSanitizer.Replace(id)
}

// Loader implements C7c: transactional bulk persistence of a RawExport and
// its TransformedExport into Postgres (spec §4.5).
type Loader struct {
	Client    *database.Client
	BatchSize int
}

// NewLoader returns a Loader bound to client, batching bulk inserts at
// batchSize rows (falls back to 100 per spec's default).
func NewLoader(client *database.Client, batchSize int) *Loader {
	if batchSize <= 0 {
		batchSize = 100
	}
	return &Loader{Client: client, BatchSize: batchSize}
}

// Load persists raw and transformed into a single transaction, returning the
// id of the new exports row (the raw_exports row is reused when its hash
// already exists).
func (l *Loader) Load(ctx context.Context, raw *models.RawExport, transformed *models.TransformedExport, fileSource string) (int, error) {
	if err := validate.ValidateTransformed(transformed); err != nil {
		return 0, err
	}

	hash, err := canonicalHash(raw)
	if err != nil {
		return 0, etlerrors.NewLoadingError("failed to compute canonical hash of raw export", 0, err)
	}

	tx, err := l.Client.Tx(ctx)
	if err != nil {
		return 0, etlerrors.New(etlerrors.KindLoading, "load", "failed to begin transaction", errors.Join(etlerrors.ErrDatabaseUnavailable, err))
	}

	exportID, err := l.loadWithinTx(ctx, tx, raw, transformed, fileSource, hash)
	if err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			err = errors.Join(err, rerr)
		}
		return 0, etlerrors.NewLoadingError("load transaction failed, rolled back", exportID, err)
	}

	if err := tx.Commit(); err != nil {
		return 0, etlerrors.NewLoadingError("failed to commit load transaction", exportID, err)
	}
	return exportID, nil
}

func (l *Loader) loadWithinTx(ctx context.Context, tx *ent.Tx, raw *models.RawExport, transformed *models.TransformedExport, fileSource string, hash string) (int, error) {
	rawExportID, err := l.upsertRawExport(ctx, tx, raw, fileSource, hash)
	if err != nil {
		return 0, fmt.Errorf("raw export insert: %w", err)
	}

	rawJSON, err := json.Marshal(transformed.Metadata)
	if err != nil {
		return 0, fmt.Errorf("marshal metadata: %w", err)
	}
	var metadata map[string]interface{}
	if err := json.Unmarshal(rawJSON, &metadata); err != nil {
		return 0, fmt.Errorf("unmarshal metadata: %w", err)
	}

	exportCreate := tx.Export.Create().
		SetRawExportID(rawExportID).
		SetUserID(transformed.Metadata.UserID).
		SetMetadata(metadata)
	if transformed.Metadata.ExportDate != "" {
		if ts, err := parseExportDate(transformed.Metadata.ExportDate); err == nil {
			exportCreate = exportCreate.SetExportDate(ts)
		}
	}
	if transformed.Metadata.UserDisplayName != "" {
		exportCreate = exportCreate.SetUserDisplayName(transformed.Metadata.UserDisplayName)
	}

	exportRow, err := exportCreate.Save(ctx)
	if err != nil {
		return 0, fmt.Errorf("export insert: %w", err)
	}
	exportID := exportRow.ID

	for _, convID := range transformed.Conversations.Keys() {
		conv, _ := transformed.Conversations.Get(convID)
		if err := l.loadConversation(ctx, tx, exportID, conv); err != nil {
			return exportID, fmt.Errorf("conversation %s: %w", convID, err)
		}
	}

	return exportID, nil
}

func (l *Loader) upsertRawExport(ctx context.Context, tx *ent.Tx, raw *models.RawExport, fileSource string, hash string) (int, error) {
	if dup, err := tx.RawExport.Query().Where(rawexport.FileHash(hash)).Only(ctx); err == nil {
		return dup.ID, nil
	} else if !ent.IsNotFound(err) {
		return 0, err
	}

	rawJSON, err := json.Marshal(raw)
	if err != nil {
		return 0, err
	}
	var rawData map[string]interface{}
	if err := json.Unmarshal(rawJSON, &rawData); err != nil {
		return 0, err
	}

	create := tx.RawExport.Create().
		SetFileHash(hash).
		SetRawData(rawData)
	if fileSource != "" {
		create = create.SetFileName(fileSource)
	}
	if ts, err := parseExportDate(raw.ExportDate); err == nil {
		create = create.SetExportDate(ts)
	}

	row, err := create.Save(ctx)
	if err == nil {
		return row.ID, nil
	}
	if !ent.IsConstraintError(err) {
		return 0, err
	}

	dup, lookupErr := tx.RawExport.Query().Where(rawexport.FileHash(hash)).Only(ctx)
	if lookupErr != nil {
		return 0, fmt.Errorf("dedup lookup after constraint violation: %w", lookupErr)
	}
	return dup.ID, nil
}

func (l *Loader) loadConversation(ctx context.Context, tx *ent.Tx, exportID int, conv *models.TransformedConversation) error {
	create := tx.Conversation.Create().
		SetExportID(exportID).
		SetConversationID(sanitizeConversationID(conv.ID)).
		SetDisplayName(conv.DisplayName).
		SetMessageCount(conv.MessageCount)
	if conv.FirstMessageTime != nil {
		create = create.SetFirstMessageTime(*conv.FirstMessageTime)
	}
	if conv.LastMessageTime != nil {
		create = create.SetLastMessageTime(*conv.LastMessageTime)
	}

	convRow, err := create.Save(ctx)
	if err != nil {
		return fmt.Errorf("conversation insert: %w", err)
	}

	if err := l.bulkInsertParticipants(ctx, tx, convRow.ID, conv.Participants); err != nil {
		return fmt.Errorf("participants: %w", err)
	}

	return l.bulkInsertMessages(ctx, tx, convRow.ID, conv.Messages)
}

func (l *Loader) bulkInsertParticipants(ctx context.Context, tx *ent.Tx, conversationID int, participants []string) error {
	return batched(participants, l.BatchSize, func(batch []string) error {
		builders := make([]*ent.ParticipantCreate, 0, len(batch))
		for _, p := range batch {
			builders = append(builders, tx.Participant.Create().
				SetConversationID(conversationID).
				SetSenderID(p))
		}
		if len(builders) == 0 {
			return nil
		}
		_, err := tx.Participant.CreateBulk(builders...).Save(ctx)
		return err
	})
}

// bulkInsertMessages inserts batches in the slice's original order (spec
// §4.5 step 7), which is the conversation's input message order; the
// Transformer does not re-sort messages by timestamp.
func (l *Loader) bulkInsertMessages(ctx context.Context, tx *ent.Tx, conversationID int, messages []models.TransformedMessage) error {
	return batched(messages, l.BatchSize, func(batch []models.TransformedMessage) error {
		builders := make([]*ent.MessageCreate, 0, len(batch))
		for _, m := range batch {
			builders = append(builders, tx.Message.Create().
				SetConversationID(conversationID).
				SetMessageID(m.ID).
				SetTimestamp(m.Timestamp).
				SetSenderID(m.SenderID).
				SetSenderDisplayName(m.SenderDisplayName).
				SetRawContent(m.RawContent).
				SetCleanedContent(m.CleanedContent).
				SetMessageType(m.MessageType).
				SetIsEdited(m.IsEdited).
				SetStructuredData(m.StructuredData))
		}
		if len(builders) == 0 {
			return nil
		}
		rows, err := tx.Message.CreateBulk(builders...).Save(ctx)
		if err != nil {
			return err
		}
		for i, row := range rows {
			if err := l.bulkInsertAttachments(ctx, tx, row.ID, batch[i].Attachments); err != nil {
				return fmt.Errorf("attachments for message %s: %w", batch[i].ID, err)
			}
		}
		return nil
	})
}

func (l *Loader) bulkInsertAttachments(ctx context.Context, tx *ent.Tx, messageID int, attachments []models.Attachment) error {
	return batched(attachments, l.BatchSize, func(batch []models.Attachment) error {
		builders := make([]*ent.AttachmentCreate, 0, len(batch))
		for _, a := range batch {
			b := tx.Attachment.Create().
				SetMessageID(messageID).
				SetType(a.Type)
			if a.Name != "" {
				b = b.SetName(a.Name)
			}
			if a.URL != "" {
				b = b.SetURL(a.URL)
			}
			if a.ContentType != "" {
				b = b.SetContentType(a.ContentType)
			}
			if a.Size != 0 {
				b = b.SetSize(a.Size)
			}
			if a.Metadata != nil {
				b = b.SetMetadata(a.Metadata)
			}
			builders = append(builders, b)
		}
		if len(builders) == 0 {
			return nil
		}
		_, err := tx.Attachment.CreateBulk(builders...).Save(ctx)
		return err
	})
}

func parseExportDate(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized export date format: %q", s)
}

func batched[T any](items []T, size int, fn func([]T) error) error {
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		if err := fn(items[i:end]); err != nil {
			return err
		}
	}
	return nil
}

// canonicalHash computes a SHA-256 over the sorted-key JSON re-serialization
// of raw, so that two re-serializations of the same logical export dedup to
// the same hash even if field order or whitespace differs.
func canonicalHash(raw *models.RawExport) (string, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return "", err
	}
	canonical, err := canonicalizeJSON(data)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}

func canonicalizeJSON(data []byte) ([]byte, error) {
	var v interface{}
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v interface{}) error {
	switch val := v.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		buf.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
		return nil
	case []interface{}:
		buf.WriteByte('[')
		for i, item := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, item); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
		return nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return err
		}
		buf.Write(b)
		return nil
	}
}
