package jules

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DebugLog appends raw API responses to a JSONL file for offline
// inspection. A nil *DebugLog is valid and records nothing.
type DebugLog struct {
	mu   sync.Mutex
	path string
}

type debugEntry struct {
	Timestamp string          `json:"timestamp"`
	RequestID string          `json:"request_id"`
	Endpoint  string          `json:"endpoint"`
	Response  json.RawMessage `json:"response"`
}

// NewDebugLog creates a debug log writing to path. The file is created
// on first write.
func NewDebugLog(path string) *DebugLog {
	return &DebugLog{path: path}
}

// Record appends one response. Failures are swallowed: debug logging
// must never affect an API call's outcome.
func (d *DebugLog) Record(endpoint string, response []byte) {
	if d == nil {
		return
	}
	entry := debugEntry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		RequestID: uuid.NewString(),
		Endpoint:  endpoint,
		Response:  json.RawMessage(response),
	}
	line, err := json.Marshal(entry)
	if err != nil {
		return
	}
	line = append(line, '\n')

	d.mu.Lock()
	defer d.mu.Unlock()
	f, err := os.OpenFile(d.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return
	}
	defer f.Close()
	_, _ = f.Write(line)
}
