package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/big-red-button/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime":     formatUptime,
	"stateClass": stateClass,
}).Parse(indexHTML))

// formatUptime renders d to the second, dropping leading zero units.
func formatUptime(d time.Duration) string {
	secs := int64(d / time.Second)
	parts := []struct {
		n    int64
		unit string
	}{
		{secs / 86400, "d"},
		{secs / 3600 % 24, "h"},
		{secs / 60 % 60, "m"},
	}
	out := ""
	for _, p := range parts {
		if p.n > 0 || out != "" {
			out += fmt.Sprintf("%d%s ", p.n, p.unit)
		}
	}
	return out + fmt.Sprintf("%ds", secs%60)
}

// stateClass maps a button or light string to its CSS class.
func stateClass(s string) string {
	switch s {
	case "PUSHED", "ON":
		return "on"
	case "RELEASED", "OFF":
		return "off"
	}
	return "unknown"
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Big Red Button</title>
<style>
body { font: 14px/1.4 sans-serif; max-width: 32em; margin: 1.5em auto; padding: 0 1em; }
h1 { color: #c00; }
h2 { font-size: 1em; text-transform: uppercase; color: #555; margin-top: 1.5em; }
table { width: 100%; border-spacing: 0; }
th, td { padding: 3px 6px; text-align: left; }
th { font-weight: normal; color: #555; width: 35%; }
tr:nth-child(odd) { background: #f4f4f4; }
.on { color: #c00; font-weight: bold; }
.off, .unknown { color: #999; }
.up { color: #080; }
.down { color: #c00; }
</style>
</head>
<body>
<h1>Big Red Button</h1>

<h2>State</h2>
<table>
<tr><th>Button</th><td class="{{stateClass .Button}}">{{.Button}}</td></tr>
<tr><th>Light</th><td class="{{stateClass .Light}}">{{.Light}}</td></tr>
<tr><th>Ready</th><td>{{if .Baselined}}yes{{else}}no{{end}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
{{if .MQTTConnected}}<tr><th>MQTT</th><td class="up">connected</td></tr>
{{else}}<tr><th>MQTT</th><td class="down">disconnected</td></tr>
{{end}}
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}} {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
{{if eq .Config.Mode "interrupt"}}<tr><th>Presses</th><td>{{.Counts.Presses}}</td></tr>
{{else}}<tr><th>Pushed</th><td>{{.Counts.Pushed}}</td></tr>
<tr><th>Released</th><td>{{.Counts.Released}}</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Mode</th><td>{{.Config.Mode}}{{if .Config.Edge}} ({{.Config.Edge}} edge){{end}}</td></tr>
<tr><th>Pins</th><td>button {{.Config.PinButton}}, light {{.Config.PinLight}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPPort}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Button string
		Light  string
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Button:   status.ButtonString(snap),
		Light:    status.LightString(snap),
	}
	indexTmpl.Execute(w, data)
}
