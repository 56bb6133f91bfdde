package controllers

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"strings"

	"github.com/resinriver/storefront/api/responses"
	"github.com/resinriver/storefront/internal/catalog"
	"github.com/resinriver/storefront/pkg/logger"
)

const sitemapNS = "http://www.sitemaps.org/schemas/sitemap/0.9"

type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// RobotsTxt allows every crawler and points at the sitemap.
func RobotsTxt(publicURL string) http.HandlerFunc {
	base := strings.TrimRight(publicURL, "/")
	body := fmt.Sprintf("User-Agent: *\nDisallow:\nSitemap: %s/sitemap.xml\n", base)
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}
}

// Sitemap renders sitemap.xml for every available item.
func Sitemap(svc catalog.Service, publicURL string, logg *logger.Logger) http.HandlerFunc {
	base := strings.TrimRight(publicURL, "/")
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if svc == nil {
			responses.WriteError(ctx, logg, w, unavailable("catalog"))
			return
		}
		entries, err := svc.SitemapEntries(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		set := sitemapURLSet{XMLNS: sitemapNS, URLs: make([]sitemapURL, 0, len(entries))}
		for _, entry := range entries {
			u := sitemapURL{
				Loc:        base + entry.Location,
				ChangeFreq: entry.ChangeFreq,
				Priority:   entry.Priority,
			}
			if !entry.LastMod.IsZero() {
				u.LastMod = entry.LastMod.UTC().Format("2006-01-02")
			}
			set.URLs = append(set.URLs, u)
		}

		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		_, _ = w.Write([]byte(xml.Header))
		enc := xml.NewEncoder(w)
		if err := enc.Encode(set); err != nil && logg != nil {
			logg.Error(ctx, "sitemap.encode_failed", err)
		}
	}
}
