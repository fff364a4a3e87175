package cli

const syncResultTemplate = `
✓ Synchronization completed ({{.Source}})

Session:       {{.SessionID}}
State:         {{.State}}
{{- if eq .Source "network"}}
Pages fetched: {{.PagesFetched}}
Items fetched: {{.ItemsFetched}}
New items:     {{.Inserted}}
Stopped by:    {{.StopReason}}
{{- if .Invalid}}
Invalid items: {{.Invalid}} (dropped)
{{- end}}
{{- end}}
Cached items:  {{.CachedItems}}
`

const statusTemplate = `
=== Local Cache ===

Driver:       {{.Store.Driver}}
Path:         {{.Store.Path}}
Ready:        {{.Store.Ready}}
{{- if .Store.Ready}}
Cached items: {{.Store.CachedItems}}
{{- with .Store.Newest}}
Newest item:  {{fmtTime .}}
{{- end}}
{{- with .Store.Oldest}}
Oldest item:  {{fmtTime .}}
{{- end}}
{{- end}}

=== Extent ===
{{if .Extent}}
Last fetch:   {{fmtTime .Extent.LastFetch}} ({{.Extent.Age}} ago)
Total items:  {{.Extent.TotalItems}}
Days reached: {{.Extent.DaysReached}} of {{.Extent.HorizonDays}}
Fresh:        {{.Extent.Fresh}}
Skip full backfill: {{.Extent.SkipFullBackfill}}
{{- else}}
No extent recorded. The next sync runs a full backfill.
{{- end}}
{{- with .Remote}}

=== Remote ===

{{if .Error}}Error:        {{.Error}}{{else}}Status:       {{.Status}}
Version:      {{.Version}}{{end}}
{{- end}}
`
