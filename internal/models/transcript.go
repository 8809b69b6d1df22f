package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Word is a single transcribed word with absolute timings in seconds.
type Word struct {
	Text       string  `json:"text"`
	Start      float64 `json:"start"`
	End        float64 `json:"end"`
	Speaker    string  `json:"speaker,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

type WordList []Word

func (w WordList) Value() (driver.Value, error) {
	if w == nil {
		w = WordList{}
	}
	return json.Marshal(w)
}

func (w *WordList) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, w)
	case string:
		return json.Unmarshal([]byte(v), w)
	case nil:
		return nil
	}
	return fmt.Errorf("cannot scan %T into WordList", src)
}

type Transcript struct {
	TranscriptID uuid.UUID `json:"transcript_id" db:"transcript_id"`
	ProjectID    uuid.UUID `json:"project_id" db:"project_id"`
	Language     string    `json:"language" db:"language"`
	Words        WordList  `json:"words" db:"words"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

// WordsBetween returns words overlapping [start, end) with timings rebased
// to start.
func (t *Transcript) WordsBetween(start, end float64) []Word {
	out := make([]Word, 0)
	for _, w := range t.Words {
		if w.End <= start || w.Start >= end {
			continue
		}
		shifted := w
		shifted.Start = w.Start - start
		if shifted.Start < 0 {
			shifted.Start = 0
		}
		shifted.End = w.End - start
		out = append(out, shifted)
	}
	return out
}
