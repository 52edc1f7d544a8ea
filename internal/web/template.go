package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/stockwise/internal/inventory"
	"github.com/sweeney/stockwise/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"count": func(c inventory.StatusCounts, s inventory.Status) int {
		return c[s]
	},
	"alerting": func(s inventory.Status) bool {
		return s.Alerting()
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Stockwise</title>
<style>
body { font-family: monospace; max-width: 900px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.alert { color: red; font-weight: bold; }
.quiet { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Stockwise{{if .LampOn}} <span class="alert">ALERT</span>{{end}}</h1>

<h2>Locations</h2>
{{if .Locations}}
<table>
<tr><th>Location</th>{{range $.Statuses}}<th>{{.Label}}</th>{{end}}<th>Transitions</th><th>Updated</th></tr>
{{range .Locations}}{{$loc := .}}
<tr>
<td>{{.LocationID}}{{if .Loading}} <span class="quiet">(loading)</span>{{end}}{{if .Err}} <span class="alert">{{.Err}}</span>{{end}}</td>
{{range $.Statuses}}{{$n := count $loc.Counts .}}<td class="{{if and (alerting .) (gt $n 0)}}alert{{else if eq $n 0}}quiet{{end}}">{{$n}}</td>{{end}}
<td>{{.Transitions}}</td>
<td>{{if .LastProjection.IsZero}}never{{else}}{{.LastProjection.UTC.Format "15:04:05"}}{{end}}</td>
</tr>{{end}}
</table>
{{else}}
<p class="quiet">No locations watched.</p>
{{end}}

<h2>Connectivity</h2>
<table>
<tr><th>Telemetry</th><td>{{.Config.Backend}}</td></tr>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Redis</th><td class="{{if .RedisConnected}}connected{{else}}disconnected{{end}}">{{if .RedisConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Database</th><td>{{.Config.Database}}</td></tr>
</table>

<h2>Live Records</h2>
<table>
{{range $k, $v := .Live}}<tr><th>{{$k}}</th><td>{{$v}}</td></tr>
{{else}}<tr><td class="quiet">none</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Low threshold</th><td>{{.Config.LowThreshold}}</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Refresh</th><td>{{if eq .Config.RefreshMs 0}}disabled{{else}}{{.Config.RefreshMs}}ms{{end}}</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/metrics">metrics</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime   time.Duration
		Statuses []inventory.Status
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Statuses: inventory.AllStatuses,
	}
	return indexTmpl.Execute(w, data)
}
