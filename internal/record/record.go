// internal/record/record.go
//
// Per-subdomain design record.
//
// Context
// -------
// One `Record` exists per tenant subdomain.  It is stored whole (no partial
// field updates) by every backend in internal/store, so the JSON shape below
// is the persisted format.  A design nests under the record and a deployment
// nests under the design; nothing else is kept.
//
// Notes
// -----
//   - Nullable sub-objects are pointers; callers must nil-check.
//   - `Clone` returns a deep copy so stores and tests can hand out records
//     without sharing slices or nested pointers.
//   - Oxford commas, two spaces after periods.
package record

import "time"

// DefaultEmoji is the icon given to records created implicitly by generate.
const DefaultEmoji = "🏠"

// Record mirrors one stored subdomain entry.
type Record struct {
	Emoji     string    `json:"emoji"`
	CreatedAt time.Time `json:"createdAt"`
	Design    *Design   `json:"design,omitempty"`
}

// File is one generated source artifact.
type File struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Design is the latest generated landing page for a subdomain.  ChatID
// identifies the lineage and never changes across updates.
type Design struct {
	ChatID      string      `json:"chatId"`
	Content     string      `json:"content"`
	Files       []File      `json:"files"`
	WebURL      string      `json:"webUrl,omitempty"`
	PreviewURL  string      `json:"previewUrl,omitempty"`
	Demo        string      `json:"demo,omitempty"`
	Deployment  *Deployment `json:"deployment,omitempty"`
	LastUpdated time.Time   `json:"lastUpdated"`
}

// Status is the lifecycle status of a deployment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Deployment is a promotion of a design version to a public URL.  CreatedAt
// is set once by the deployment gateway; LastCheckedAt moves on every status
// refresh and stays zero until the first one.
type Deployment struct {
	ID            string    `json:"id"`
	WebURL        string    `json:"webUrl"`
	APIURL        string    `json:"apiUrl,omitempty"`
	InspectorURL  string    `json:"inspectorUrl,omitempty"`
	Status        Status    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
	LastCheckedAt time.Time `json:"lastCheckedAt,omitzero"`
}

// New returns a record with no design.
func New(emoji string, now time.Time) *Record {
	if emoji == "" {
		emoji = DefaultEmoji
	}
	return &Record{Emoji: emoji, CreatedAt: now}
}

// HasDesign reports whether a design with a lineage id is present.
func (r *Record) HasDesign() bool {
	return r != nil && r.Design != nil && r.Design.ChatID != ""
}

// Deployment returns the current deployment or nil.
func (r *Record) Deployment() *Deployment {
	if r == nil || r.Design == nil {
		return nil
	}
	return r.Design.Deployment
}

// Clone returns a deep copy of r.  A nil receiver yields nil.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	if r.Design != nil {
		d := *r.Design
		d.Files = append([]File(nil), r.Design.Files...)
		if d.Files == nil {
			d.Files = []File{}
		}
		if r.Design.Deployment != nil {
			dep := *r.Design.Deployment
			d.Deployment = &dep
		}
		out.Design = &d
	}
	return &out
}
