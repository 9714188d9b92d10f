package report

import (
	"bytes"
	"fmt"
	"os"

	"howett.net/plist"
)

// Item is one row of an autopkg processor summary, kept as the loose
// dictionary autopkg wrote. The schema belongs to autopkg; only a few
// well-known keys are read here.
type Item map[string]any

// ConsolidatedReport condenses an autopkg report plist down to the
// four buckets the batch logic cares about.
type ConsolidatedReport struct {
	FailedItems     []Item
	DownloadedItems []Item
	PkgBuilds       []Item
	MunkiImports    []Item
}

// HasDownloads reports whether the run fetched anything new.
func (r ConsolidatedReport) HasDownloads() bool {
	return len(r.DownloadedItems) > 0
}

// DownloadPaths returns the download_path of every downloaded item.
// Items without one are skipped.
func (r ConsolidatedReport) DownloadPaths() []string {
	paths := make([]string, 0, len(r.DownloadedItems))
	for _, item := range r.DownloadedItems {
		if p, ok := item["download_path"].(string); ok && p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// Load parses the report plist autopkg produced at path. A missing or
// empty file yields an empty report, since autopkg may have died
// before writing one; a file that exists but cannot be parsed is an
// error.
func Load(path string) (ConsolidatedReport, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return ConsolidatedReport{}, nil
	}
	if err != nil {
		return ConsolidatedReport{}, fmt.Errorf("failed to read report %s: %w", path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return ConsolidatedReport{}, nil
	}

	var doc map[string]any
	if _, err := plist.Unmarshal(data, &doc); err != nil {
		return ConsolidatedReport{}, fmt.Errorf("invalid report plist %s: %w", path, err)
	}

	return consolidate(doc), nil
}

func consolidate(doc map[string]any) ConsolidatedReport {
	rep := ConsolidatedReport{
		FailedItems:     items(doc["failures"]),
		DownloadedItems: summaryRows(doc, "url_downloader_summary_result"),
		PkgBuilds:       summaryRows(doc, "pkg_creator_summary_result"),
		MunkiImports:    summaryRows(doc, "munki_importer_summary_result"),
	}

	// Reports from autopkg releases that predate summary_results carry
	// flat lists of paths instead.
	if rep.DownloadedItems == nil {
		rep.DownloadedItems = pathItems(doc["new_downloads"], "download_path")
	}
	if rep.PkgBuilds == nil {
		rep.PkgBuilds = pathItems(doc["new_packages"], "pkg_path")
	}
	if rep.MunkiImports == nil {
		rep.MunkiImports = pathItems(doc["new_imports"], "name")
	}

	return rep
}

// summaryRows digs data_rows out of summary_results[key].
func summaryRows(doc map[string]any, key string) []Item {
	summaries, ok := doc["summary_results"].(map[string]any)
	if !ok {
		return nil
	}
	summary, ok := summaries[key].(map[string]any)
	if !ok {
		return nil
	}
	return items(summary["data_rows"])
}

func items(v any) []Item {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Item, 0, len(list))
	for _, entry := range list {
		if m, ok := entry.(map[string]any); ok {
			out = append(out, Item(m))
		}
	}
	return out
}

func pathItems(v any, key string) []Item {
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]Item, 0, len(list))
	for _, entry := range list {
		if s, ok := entry.(string); ok && s != "" {
			out = append(out, Item{key: s})
		}
	}
	return out
}
