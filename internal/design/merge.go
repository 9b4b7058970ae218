// internal/design/merge.go
//
// Record merge policy, one pure function per operation.
//
// Context
// -------
// The store only supports whole-record writes, so every operation computes
// the complete next record from the current one plus the gateway result.
// Keeping these steps free of I/O lets the policy be tested on its own and
// guarantees the caller's copy is never mutated: each function clones first.
//
// Policy
// ------
//   - generate  – new lineage: design replaced, prior deployment discarded.
//   - update    – same lineage: chat id kept, content replaced, deployment
//                 dropped (the live site is stale until redeployed).
//   - deploy    – deployment attached, replacing any previous one.
//   - refresh   – status and URLs merged, CreatedAt kept, LastCheckedAt set.
//   - undeploy  – deployment removed.
//
// Notes
// -----
//   - LastUpdated never moves backwards; a clock reading at or before the
//     previous stamp is bumped one millisecond past it.
package design

import (
	"time"

	"github.com/yanizio/pagesmith/internal/generator"
	"github.com/yanizio/pagesmith/internal/record"
)

// stampStep is the minimum forward movement of LastUpdated.
const stampStep = time.Millisecond

func nextStamp(prev, now time.Time) time.Time {
	if !prev.IsZero() && !now.After(prev) {
		return prev.Add(stampStep)
	}
	return now
}

func lastUpdated(rec *record.Record) time.Time {
	if rec == nil || rec.Design == nil {
		return time.Time{}
	}
	return rec.Design.LastUpdated
}

func designFrom(chatID string, res generator.Result, stamp time.Time) *record.Design {
	files := append([]record.File(nil), res.Files...)
	if files == nil {
		files = []record.File{}
	}
	return &record.Design{
		ChatID:      chatID,
		Content:     res.Content,
		Files:       files,
		WebURL:      res.WebURL,
		PreviewURL:  res.PreviewURL,
		Demo:        res.Demo,
		LastUpdated: stamp,
	}
}

func applyGenerate(rec *record.Record, res generator.Result, now time.Time) *record.Record {
	out := rec.Clone()
	out.Design = designFrom(res.ChatID, res, nextStamp(lastUpdated(rec), now))
	return out
}

func applyUpdate(rec *record.Record, res generator.Result, now time.Time) *record.Record {
	out := rec.Clone()
	out.Design = designFrom(rec.Design.ChatID, res, nextStamp(lastUpdated(rec), now))
	return out
}

func applyDeploy(rec *record.Record, dep *record.Deployment) *record.Record {
	out := rec.Clone()
	d := *dep
	out.Design.Deployment = &d
	return out
}

// applyRefresh merges a status snapshot into the current deployment and
// reports whether anything other than LastCheckedAt changed.
func applyRefresh(rec *record.Record, fresh *record.Deployment, now time.Time) (*record.Record, bool) {
	out := rec.Clone()
	cur := out.Design.Deployment
	before := *cur

	if fresh.Status.Valid() {
		cur.Status = fresh.Status
	}
	if fresh.WebURL != "" {
		cur.WebURL = fresh.WebURL
	}
	if fresh.APIURL != "" {
		cur.APIURL = fresh.APIURL
	}
	if fresh.InspectorURL != "" {
		cur.InspectorURL = fresh.InspectorURL
	}
	cur.LastCheckedAt = fresh.LastCheckedAt
	if cur.LastCheckedAt.IsZero() {
		cur.LastCheckedAt = now
	}

	changed := before.Status != cur.Status ||
		before.WebURL != cur.WebURL ||
		before.APIURL != cur.APIURL ||
		before.InspectorURL != cur.InspectorURL
	return out, changed
}

func applyUndeploy(rec *record.Record) *record.Record {
	out := rec.Clone()
	out.Design.Deployment = nil
	return out
}
