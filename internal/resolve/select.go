// internal/resolve/select.go
//
// Presentation selection for a loaded subdomain record.
//
// Context
// -------
// Rendering shows exactly one thing per subdomain.  `Select` picks it with
// a fixed priority:
//
//  1. A completed deployment with a web URL (marked live).
//  2. The design's demo URL.
//  3. The design's content (chat URL or inline markup).
//  4. A static fallback page naming the subdomain.
//
// A pending or failed deployment never wins; the page keeps showing the
// best design preview until the deployment completes.
//
// Notes
// -----
//   - Pure function, no I/O.  The cached loader lives in resolver.go.
//   - Oxford commas, two spaces after periods.
package resolve

import (
	"fmt"
	"html"
	"path"
	"strings"

	"github.com/yanizio/pagesmith/internal/record"
)

// Source names which rule produced a Presentation.
type Source string

const (
	SourceLive     Source = "live"
	SourceDemo     Source = "demo"
	SourceContent  Source = "content"
	SourceFallback Source = "fallback"
)

// Presentation is what the page renderer shows for a subdomain.
type Presentation struct {
	Subdomain string `json:"subdomain"`
	Emoji     string `json:"emoji"`
	Source    Source `json:"source"`
	Target    string `json:"target"`
	Live      bool   `json:"live"`
	HasDesign bool   `json:"hasDesign"`
}

// IsURL reports whether Target should be framed by URL (src) rather than
// inlined as a document (srcdoc).
func (p Presentation) IsURL() bool {
	return strings.HasPrefix(p.Target, "http://") || strings.HasPrefix(p.Target, "https://")
}

// Select applies the presentation priority to rec.  A nil record yields the
// fallback.
func Select(subdomain string, rec *record.Record) Presentation {
	p := Presentation{Subdomain: subdomain, Source: SourceFallback}
	if rec != nil {
		p.Emoji = rec.Emoji
		p.HasDesign = rec.HasDesign()
	}

	if dep := rec.Deployment(); dep != nil && dep.Status == record.StatusCompleted && dep.WebURL != "" {
		p.Source, p.Target, p.Live = SourceLive, dep.WebURL, true
		return p
	}
	if rec != nil && rec.Design != nil {
		switch {
		case rec.Design.Demo != "":
			p.Source, p.Target = SourceDemo, rec.Design.Demo
			return p
		case rec.Design.Content != "":
			p.Source, p.Target = SourceContent, rec.Design.Content
			return p
		}
	}
	p.Target = fallbackPage(subdomain)
	return p
}

func fallbackPage(subdomain string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>%[1]s</title></head>
<body style="font-family:sans-serif;display:flex;align-items:center;justify-content:center;min-height:100vh;margin:0;background:#f9fafb">
<div style="text-align:center;max-width:28rem">
<div style="font-size:2.5rem">✨</div>
<h1>No live design yet</h1>
<p>The landing page for %[1]s has not been published.</p>
</div>
</body>
</html>`, html.EscapeString(subdomain))
}

// MainFile picks the file the preview proxy should render: a page.tsx,
// then a component.tsx, then any .tsx file.  ok is false when none match.
func MainFile(files []record.File) (record.File, bool) {
	for _, want := range []func(string) bool{
		func(n string) bool { return path.Base(n) == "page.tsx" },
		func(n string) bool { return path.Base(n) == "component.tsx" },
		func(n string) bool { return strings.HasSuffix(n, ".tsx") },
	} {
		for _, f := range files {
			if want(f.Name) {
				return f, true
			}
		}
	}
	return record.File{}, false
}
