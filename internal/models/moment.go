package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Moment is a detected highlight inside a project's source video. A moment
// may span several non-contiguous segments of the source; single-segment
// moments leave Segments empty and use Start/End directly.
type Moment struct {
	MomentID  uuid.UUID   `json:"moment_id" db:"moment_id"`
	ProjectID uuid.UUID   `json:"project_id" db:"project_id"`
	Title     string      `json:"title" db:"title"`
	Reason    string      `json:"reason" db:"reason"`
	Score     float64     `json:"score" db:"score"`
	Start     float64     `json:"start" db:"start_sec"`
	End       float64     `json:"end" db:"end_sec"`
	Segments  SegmentList `json:"segments" db:"segments"`
	ProxyKey  string      `json:"proxy_key" db:"proxy_key"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
}

type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
}

func (s Segment) Duration() float64 {
	return s.End - s.Start
}

type SegmentList []Segment

func (l SegmentList) Value() (driver.Value, error) {
	if l == nil {
		l = SegmentList{}
	}
	return json.Marshal(l)
}

func (l *SegmentList) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	case nil:
		return nil
	}
	return fmt.Errorf("cannot scan %T into SegmentList", src)
}

// Validate rejects moments whose time ranges cannot be cut: a non-positive
// span, or any segment that is inverted or empty.
func (m *Moment) Validate() error {
	if m.End <= m.Start {
		return fmt.Errorf("moment range %f..%f is not positive", m.Start, m.End)
	}
	if m.Start < 0 {
		return fmt.Errorf("moment starts before zero at %f", m.Start)
	}
	for i, seg := range m.Segments {
		if seg.Start < 0 || seg.End <= seg.Start {
			return fmt.Errorf("segment %d range %f..%f is not positive", i, seg.Start, seg.End)
		}
	}
	return nil
}

func (m *Moment) Duration() float64 {
	if len(m.Segments) == 0 {
		return m.End - m.Start
	}
	var total float64
	for _, seg := range m.Segments {
		total += seg.Duration()
	}
	return total
}

// EffectiveSegments returns the cut list for rendering.
func (m *Moment) EffectiveSegments() []Segment {
	if len(m.Segments) > 0 {
		return m.Segments
	}
	return []Segment{{Start: m.Start, End: m.End}}
}
