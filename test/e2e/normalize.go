package e2e

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
)

// Normalizer replaces dynamic values with stable placeholders for golden
// comparison: generated export ids, checkpoint/task uuids, and wall-clock
// timestamps that would otherwise make every golden run unique.
type Normalizer struct {
	taskID string

	mu         sync.Mutex
	exportIDs  map[string]string
	exportCount int
}

var (
	uuidRe      = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)
	timestampRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}(\.\d+)?(Z|[+-]\d{2}:\d{2})`)
	elapsedRe   = regexp.MustCompile(`"elapsed":\s*"[^"]*"`)
)

// NewNormalizer creates a normalizer that knows the task id to replace.
func NewNormalizer(taskID string) *Normalizer {
	return &Normalizer{taskID: taskID, exportIDs: make(map[string]string)}
}

// RegisterExportID registers an export id for stable replacement, in order
// of first appearance.
func (n *Normalizer) RegisterExportID(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.exportIDs[id]; !ok {
		n.exportCount++
		n.exportIDs[id] = fmt.Sprintf("{EXPORT_ID_%d}", n.exportCount)
	}
}

// Normalize replaces dynamic values in data with stable placeholders.
func (n *Normalizer) Normalize(data string) string {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.taskID != "" {
		data = strings.ReplaceAll(data, n.taskID, "{TASK_ID}")
	}
	for id, placeholder := range n.exportIDs {
		data = strings.ReplaceAll(data, id, placeholder)
	}

	data = uuidRe.ReplaceAllString(data, "{UUID}")
	data = timestampRe.ReplaceAllString(data, "{TIMESTAMP}")
	data = elapsedRe.ReplaceAllString(data, `"elapsed": "{ELAPSED}"`)

	return data
}

// NormalizeBytes is a convenience wrapper for Normalize on byte slices.
func (n *Normalizer) NormalizeBytes(data []byte) []byte {
	return []byte(n.Normalize(string(data)))
}
