package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/buriosa/buriosa/internal/model"
)

// SchemaVersion is the envelope version written by Save.
// Bump this and add an entry to migrations when the state shape changes.
const SchemaVersion = 1

// Envelope is the persisted wrapper around the state.
type Envelope struct {
	SchemaVersion int             `json:"schemaVersion"`
	SavedAt       string          `json:"savedAt"`
	State         json.RawMessage `json:"state"`
}

// migrations[v] upgrades a version v state document to version v+1.
var migrations = map[int]func(json.RawMessage) (json.RawMessage, error){
	0: migrateV0,
}

// ErrNewerSchema is returned when the blob was written by a newer build.
type ErrNewerSchema struct {
	Version int
}

func (e *ErrNewerSchema) Error() string {
	return fmt.Sprintf("schema version %d is newer than supported version %d", e.Version, SchemaVersion)
}

// EncodeEnvelope wraps s in a current-version envelope stamped with savedAt.
func EncodeEnvelope(s model.State, savedAt time.Time) ([]byte, error) {
	state, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return json.Marshal(Envelope{
		SchemaVersion: SchemaVersion,
		SavedAt:       savedAt.UTC().Format(time.RFC3339),
		State:         state,
	})
}

// DecodeEnvelope parses a stored blob, running migrations for older versions.
// Blobs without a schemaVersion field are legacy version 0 documents.
func DecodeEnvelope(data []byte) (model.State, int, error) {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return model.State{}, 0, fmt.Errorf("parse blob: %w", err)
	}

	version := 0
	raw := json.RawMessage(data)
	if v, ok := probe["schemaVersion"]; ok {
		if err := json.Unmarshal(v, &version); err != nil {
			return model.State{}, 0, fmt.Errorf("parse schemaVersion: %w", err)
		}
		raw = probe["state"]
	}

	if version > SchemaVersion {
		return model.State{}, version, &ErrNewerSchema{Version: version}
	}
	if version < 0 {
		return model.State{}, version, fmt.Errorf("invalid schema version %d", version)
	}

	from := version
	for version < SchemaVersion {
		migrate, ok := migrations[version]
		if !ok {
			return model.State{}, from, fmt.Errorf("no migration from schema version %d", version)
		}
		next, err := migrate(raw)
		if err != nil {
			return model.State{}, from, fmt.Errorf("migrate from version %d: %w", version, err)
		}
		raw = next
		version++
	}

	if len(raw) == 0 || string(raw) == "null" {
		return model.State{}, from, fmt.Errorf("envelope has no state")
	}

	var s model.State
	if err := json.Unmarshal(raw, &s); err != nil {
		return model.State{}, from, fmt.Errorf("parse state: %w", err)
	}
	return s.Normalized(), from, nil
}

// migrateV0 unwraps legacy documents. Version 0 is either a bare state object
// or the {"state": {...}, "version": n} wrapper written by the web client.
func migrateV0(raw json.RawMessage) (json.RawMessage, error) {
	var wrapper struct {
		State   json.RawMessage `json:"state"`
		Version *int            `json:"version"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, err
	}
	if wrapper.Version != nil && len(wrapper.State) > 0 {
		return wrapper.State, nil
	}
	return raw, nil
}
