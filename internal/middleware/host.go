package middleware

import (
	"net/http"
	"strings"

	"github.com/yanizio/pagesmith/internal/record"
)

// Subdomain extracts the tenant label from host under rootDomain.
// "acme.pages.dev:8080" with root "pages.dev" yields "acme".  The apex, a
// "www" label, nested labels, and foreign hosts yield "".
func Subdomain(host, rootDomain string) string {
	host = strings.ToLower(stripPort(host))
	root := strings.ToLower(stripPort(rootDomain))
	if root == "" {
		return ""
	}
	label, ok := strings.CutSuffix(host, "."+root)
	if !ok || label == "" || label == "www" || strings.Contains(label, ".") {
		return ""
	}
	return record.Normalize(label)
}

// HostRewrite returns middleware that serves `<sub>.<rootDomain>/` from
// `/s/<sub>`, so tenant hosts land on their page.  Other paths on tenant
// hosts pass through unchanged (the API and proxy stay reachable).
func HostRewrite(rootDomain string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/" {
				if sub := Subdomain(r.Host, rootDomain); sub != "" {
					r2 := r.Clone(r.Context())
					r2.URL.Path = "/s/" + sub
					r2.URL.RawPath = ""
					next.ServeHTTP(w, r2)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}
