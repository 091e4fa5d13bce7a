package reference

import (
	"bytes"
	"encoding/json"
	"time"

	"qrypta/pqc/internal/models"
)

// TimestampLayout is UTC ISO-8601 with millisecond precision
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// document fixes the key order of the serialized record
type document struct {
	Project   string `json:"project"`
	Title     string `json:"title"`
	Chain     string `json:"chain"`
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
	Timestamp string `json:"ts"`
}

// Build snapshots the intent into a reference record and serializes it once.
// The embedded timestamp makes two builds of the same intent differ.
func Build(intent models.TransferIntent, project string, now time.Time) models.ReferenceRecord {
	createdAt := now.UTC().Truncate(time.Millisecond)

	doc := document{
		Project:   project,
		Title:     intent.ReferenceTitle,
		Chain:     string(intent.Chain),
		Recipient: intent.Recipient,
		Amount:    intent.AmountHuman,
		Timestamp: createdAt.Format(TimestampLayout),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encoding a struct of strings cannot fail
	_ = enc.Encode(doc)
	encoded := bytes.TrimRight(buf.Bytes(), "\n")

	return models.NewReferenceRecord(
		project,
		intent.ReferenceTitle,
		intent.Chain,
		intent.Recipient,
		intent.AmountHuman,
		createdAt,
		string(encoded),
	)
}
