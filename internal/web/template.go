package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/shutter-controller/internal/status"
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
	"yesno": func(b bool) string {
		if b {
			return "yes"
		}
		return "no"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<meta http-equiv="refresh" content="5">
<title>Shutter Controller</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.moving { color: orange; font-weight: bold; }
.stopped { color: #888; }
.triggered { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Shutter Controller</h1>

<h2>Shutter</h2>
<table>
<tr><th>State</th><td class="{{if .Control.Flags.Moving}}moving{{else}}stopped{{end}}">{{.Control.Current}}</td></tr>
<tr><th>Requested</th><td>{{.Control.Requested}}</td></tr>
<tr><th>Moving</th><td>{{yesno .Control.Flags.Moving}}</td></tr>
<tr><th>Open limit</th><td>{{yesno .Control.Flags.LimitOpen}}</td></tr>
<tr><th>Closed limit</th><td>{{yesno .Control.Flags.LimitClosed}}</td></tr>
<tr><th>Wire record</th><td>{{printf "%s" .Control.StatusRecord}}</td></tr>
</table>

<h2>Heartbeat</h2>
<table>
<tr><th>Armed</th><td>{{if gt .Control.HeartbeatRemaining 0}}yes ({{.Control.HeartbeatRemaining}}s left){{else}}no{{end}}</td></tr>
<tr><th>Triggered</th><td{{if .Control.HeartbeatTriggered}} class="triggered"{{end}}>{{yesno .Control.HeartbeatTriggered}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
<tr><th>Serial</th><td>{{.Config.Device}} @ {{.Config.Baud}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> | <a href="/record">record</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but the template wants a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
