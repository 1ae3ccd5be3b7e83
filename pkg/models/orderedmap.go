package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ConversationMap is an insertion-order-preserving string-keyed map of
// TransformedConversation. encoding/json sorts map[string]T keys
// alphabetically, which would violate the "iteration order = input order"
// contract for TransformedExport.Conversations (spec §3), so this type
// carries its own key order alongside the usual lookup table and
// implements MarshalJSON/UnmarshalJSON to round-trip that order.
type ConversationMap struct {
	keys   []string
	values map[string]*TransformedConversation
}

// NewConversationMap returns an empty ordered map.
func NewConversationMap() *ConversationMap {
	return &ConversationMap{values: make(map[string]*TransformedConversation)}
}

// Set appends key if new, or overwrites the value in place if it already exists.
func (m *ConversationMap) Set(key string, value *TransformedConversation) {
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the conversation for key and whether it was present.
func (m *ConversationMap) Get(key string) (*TransformedConversation, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns the conversation ids in insertion order.
func (m *ConversationMap) Keys() []string {
	return m.keys
}

// Len returns the number of conversations held.
func (m *ConversationMap) Len() int {
	return len(m.keys)
}

// MarshalJSON writes the map as a JSON object with keys in insertion order.
func (m *ConversationMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(keyJSON)
		buf.WriteByte(':')
		valJSON, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, err
		}
		buf.Write(valJSON)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object, preserving the order keys appear in the input.
func (m *ConversationMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object for ConversationMap, got %v", tok)
	}

	m.keys = nil
	m.values = make(map[string]*TransformedConversation)

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected string key in ConversationMap, got %v", keyTok)
		}

		var value TransformedConversation
		if err := dec.Decode(&value); err != nil {
			return err
		}
		m.Set(key, &value)
	}

	// Consume the closing brace.
	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
