package pipeline

import (
	"context"
	"runtime"
	"time"

	"github.com/codeready-toolchain/skypeetl/pkg/content"
	"github.com/codeready-toolchain/skypeetl/pkg/etlcontext"
	"github.com/codeready-toolchain/skypeetl/pkg/etlerrors"
	"github.com/codeready-toolchain/skypeetl/pkg/handlers"
	"github.com/codeready-toolchain/skypeetl/pkg/models"
	"github.com/codeready-toolchain/skypeetl/pkg/phase"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// TransformOptions carries the pipeline-configured knobs that shape the
// Transformer's chunking, parallelism, and memory gating.
type TransformOptions struct {
	ChunkSize          int
	ParallelProcessing bool
	MaxWorkers         int
	Memory             *phase.MemoryMonitor
	Progress           *phase.ProgressTracker
	ErrorLog           *phase.ErrorLogger
	Content            etlcontext.ContentExtractorFuncs
}

// Transformer implements C7b: converting a validated RawExport into a
// TransformedExport, dispatching each message through the handler registry
// and content extractor.
type Transformer struct {
	Handlers *handlers.Registry
}

// NewTransformer returns a Transformer backed by the default handler registry.
func NewTransformer() *Transformer {
	return &Transformer{Handlers: handlers.NewRegistry()}
}

// Transform runs the algorithm described in spec §4.4.
func (tf *Transformer) Transform(ctx context.Context, raw *models.RawExport, userDisplayName string, opts TransformOptions) (*models.TransformedExport, error) {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = 1000
	}
	if opts.Content.FormatMarkup == nil || opts.Content.ExtractStructured == nil {
		opts.Content = etlcontext.ContentExtractorFuncs{
			FormatMarkup:      content.FormatMarkup,
			ExtractStructured: content.ExtractStructured,
		}
	}
	workers := opts.MaxWorkers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	conversations := models.NewConversationMap()
	elided := 0
	totalMessages := 0

	for _, conv := range raw.Conversations {
		if conv.DisplayName == nil {
			elided++
			continue
		}

		transformedMsgs, err := tf.transformConversation(ctx, conv, opts, workers)
		if err != nil {
			return nil, err
		}

		tc := &models.TransformedConversation{
			ID:           conv.ID,
			DisplayName:  *conv.DisplayName,
			MessageCount: len(transformedMsgs),
			Messages:     transformedMsgs,
			Participants: participantsOf(transformedMsgs),
		}
		if len(transformedMsgs) > 0 {
			first := transformedMsgs[0].Timestamp
			last := transformedMsgs[len(transformedMsgs)-1].Timestamp
			tc.FirstMessageTime = &first
			tc.LastMessageTime = &last
		}

		conversations.Set(tc.ID, tc)
		totalMessages += len(transformedMsgs)

		if opts.Progress != nil {
			opts.Progress.Update(ctx, models.PhaseTransform, int64(len(transformedMsgs)))
		}
	}

	return &models.TransformedExport{
		Metadata: models.ExportMetadata{
			UserID:              raw.UserID,
			UserDisplayName:     userDisplayName,
			ExportDate:          raw.ExportDate,
			TotalConversations:  conversations.Len(),
			TotalMessages:       totalMessages,
			ElidedConversations: elided,
		},
		Conversations: conversations,
	}, nil
}

// transformConversation partitions one conversation's messages into chunks
// and, when parallel processing is enabled, fans them out across a
// semaphore-gated worker pool while preserving original message order
// (spec §4.4 steps 3-6): the chunk's result slot is pre-allocated by index,
// so aggregation order never depends on completion order.
func (tf *Transformer) transformConversation(ctx context.Context, conv models.RawConversation, opts TransformOptions, workers int) ([]models.TransformedMessage, error) {
	chunks := chunkMessages(conv.MessageList, opts.ChunkSize)
	results := make([][]models.TransformedMessage, len(chunks))

	if !opts.ParallelProcessing || len(chunks) <= 1 {
		for i, chunk := range chunks {
			results[i] = tf.transformChunk(conv.ID, chunk, opts)
		}
		return flatten(results), nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	sem := semaphore.NewWeighted(int64(workers))

	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			if opts.Memory != nil {
				for opts.Memory.ShouldBackpressure() {
					select {
					case <-gctx.Done():
						return gctx.Err()
					case <-time.After(10 * time.Millisecond):
					}
				}
			}
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			results[i] = tf.transformChunk(conv.ID, chunk, opts)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, etlerrors.New(etlerrors.KindTransformation, "transform", "chunk worker failed", err)
	}

	return flatten(results), nil
}

// transformChunk transforms one chunk serially; handler panics are
// recovered per-message so one bad message never drops its neighbors
// (spec §4.4 final paragraph).
func (tf *Transformer) transformChunk(conversationID string, chunk []models.RawMessage, opts TransformOptions) []models.TransformedMessage {
	out := make([]models.TransformedMessage, 0, len(chunk))
	for _, msg := range chunk {
		fields, dispatchErr := handlers.Dispatch(tf.Handlers, msg)
		if dispatchErr != nil && opts.ErrorLog != nil {
			opts.ErrorLog.Record(models.PhaseTransform, "handler dispatch error", map[string]any{"message_id": msg.ID}, false)
		}

		structured := opts.Content.ExtractStructured(msg.Content).AsMap()
		for k, v := range fields {
			structured[k] = v
		}

		out = append(out, models.TransformedMessage{
			ID:                msg.ID,
			ConversationID:    conversationID,
			Timestamp:         parseMessageTime(msg.OriginalArrivalTime),
			SenderID:          msg.From,
			SenderDisplayName: msg.From,
			RawContent:        msg.Content,
			CleanedContent:    opts.Content.FormatMarkup(msg.Content),
			MessageType:       msg.MessageType,
			IsEdited:          msg.IsEdited(),
			StructuredData:    structured,
			Attachments:       attachmentsFrom(structured),
		})
	}
	return out
}

func chunkMessages(msgs []models.RawMessage, size int) [][]models.RawMessage {
	if len(msgs) == 0 {
		return nil
	}
	var chunks [][]models.RawMessage
	for i := 0; i < len(msgs); i += size {
		end := i + size
		if end > len(msgs) {
			end = len(msgs)
		}
		chunks = append(chunks, msgs[i:end])
	}
	return chunks
}

func flatten(chunks [][]models.TransformedMessage) []models.TransformedMessage {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	out := make([]models.TransformedMessage, 0, total)
	for _, c := range chunks {
		out = append(out, c...)
	}
	return out
}

func participantsOf(msgs []models.TransformedMessage) []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range msgs {
		if !seen[m.SenderID] {
			seen[m.SenderID] = true
			out = append(out, m.SenderID)
		}
	}
	return out
}

func parseMessageTime(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC()
		}
	}
	return time.Time{}
}

func attachmentsFrom(structured map[string]any) []models.Attachment {
	raw, ok := structured["attachments"].([]any)
	if !ok {
		return nil
	}
	out := make([]models.Attachment, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		att := models.Attachment{}
		if v, ok := m["type"].(string); ok {
			att.Type = v
		}
		if v, ok := m["name"].(string); ok {
			att.Name = v
		}
		if v, ok := m["url"].(string); ok {
			att.URL = v
		}
		if v, ok := m["content_type"].(string); ok {
			att.ContentType = v
		}
		if v, ok := m["size"].(float64); ok {
			att.Size = int64(v)
		}
		out = append(out, att)
	}
	return out
}
