package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/smart-home/internal/display"
	"github.com/sweeney/smart-home/internal/status"
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
	"onoffClass": func(s string) string {
		if s == "ON" {
			return "on"
		}
		return "off"
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Smart Home</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.high, .tripped { color: red; font-weight: bold; }
.connected { color: green; }
.disconnected { color: red; }
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>Smart Home<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

<h2>Devices</h2>
<table>
<tr><th>Light</th><td id="light" class="{{onoffClass .Panel.Light}}">{{.Panel.Light}}</td></tr>
<tr><th>Fan</th><td id="motor" class="{{onoffClass .Panel.Motor}}">{{.Panel.Motor}}</td></tr>
<tr><th>Mode</th><td id="mode">{{.Panel.Mode}}</td></tr>
<tr><th>Menu</th><td id="menu">{{if .MenuItem}}{{.MenuItem}}{{else}}light{{end}}</td></tr>
<tr><th>Message</th><td id="message">{{.Panel.Status}}</td></tr>
</table>

<h2>Sensors</h2>
<table>
<tr><th>Temperature</th><td id="temperature"{{if .Panel.TempHigh}} class="high"{{end}}>{{.Panel.Temperature}}</td></tr>
<tr><th>Humidity</th><td id="humidity">{{.Panel.Humidity}}</td></tr>
<tr><th>Illuminance</th><td id="illuminance">{{.Panel.Illuminance}}</td></tr>
<tr><th>Gas</th><td id="gas">{{.Panel.Gas}}</td></tr>
<tr><th>Alarm</th><td id="alarm"{{if eq (printf "%s" .Alarm) "TRIPPED"}} class="tripped"{{end}}>{{.Alarm}} ({{.Counts.AlarmTrips}} trips)</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td id="mqtt" class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Device ID</th><td>{{.Config.DeviceID}}</td></tr>
</table>

<h2>Commands</h2>
<table>
<tr><th>Key</th><td>{{.Counts.KeyCommands}}</td></tr>
<tr><th>Voice</th><td>{{.Counts.VoiceCommands}}</td></tr>
<tr><th>Network</th><td>{{.Counts.NetworkCommands}}</td></tr>
<tr><th>Idle cycles</th><td>{{.Counts.Timeouts}}</td></tr>
<tr><th>Reports</th><td>{{.Counts.Reports}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Cycle</th><td>{{.Config.CycleMs}}ms</td></tr>
<tr><th>Gas threshold</th><td>{{.Config.GasThreshold}}ppm</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a> · <a href="/metrics">metrics</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");
  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }
  function setOnOff(id, v) {
    var el = document.getElementById(id);
    el.textContent = v;
    el.className = v === "ON" ? "on" : "off";
  }
  function setText(id, v) {
    document.getElementById(id).textContent = v;
  }
  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");
    ws.onopen = function() { setDot("ok", "live"); };
    ws.onclose = function() {
      setDot("err", "offline");
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(ev) {
      try {
        var msg = JSON.parse(ev.data);
        if (msg.type !== "status") { return; }
        var s = msg.data.status, p = s.panel;
        setOnOff("light", p.light);
        setOnOff("motor", p.motor);
        setText("mode", p.mode);
        setText("menu", s.menu.item || "light");
        setText("message", p.status);
        setText("temperature", p.temperature);
        document.getElementById("temperature").className = p.temp_high ? "high" : "";
        setText("humidity", p.humidity);
        setText("illuminance", p.illuminance);
        setText("gas", p.gas);
        setText("alarm", s.alarm.state + " (" + s.alarm.trips + " trips)");
        document.getElementById("alarm").className = s.alarm.state === "TRIPPED" ? "tripped" : "";
        var m = document.getElementById("mqtt");
        m.textContent = s.mqtt.connected ? "connected" : "disconnected";
        m.className = s.mqtt.connected ? "connected" : "disconnected";
      } catch (e) {}
    };
  }
  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
		Panel  display.Panel
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
		Panel:    display.Build(snap.State, snap.Sensors, snap.MQTTConnected),
	}
	return indexTmpl.Execute(w, data)
}
