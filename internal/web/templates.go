package web

const (
	datastarJS  = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js"
	xtermJS     = "https://cdn.jsdelivr.net/npm/@xterm/xterm@5.5.0/lib/xterm.js"
	xtermCSS    = "https://cdn.jsdelivr.net/npm/@xterm/xterm@5.5.0/css/xterm.css"
	xtermFitJS  = "https://cdn.jsdelivr.net/npm/@xterm/addon-fit@0.10.0/lib/addon-fit.js"
	pageStyle   = `body{font:15px/1.5 system-ui,sans-serif;margin:0 auto;max-width:960px;padding:24px;color:#222;background:#fafafa}nav{color:#777;font-size:13px}img{max-width:100%;border:1px solid #ddd;border-radius:6px;background:#fff}article{margin-top:24px}.muted{color:#999}`
	termStyle   = `html,body{margin:0;height:100%;background:#111}#term{height:100%}`
	termScripts = `
const term = new Terminal({cursorBlink: true});
const fit = new FitAddon.FitAddon();
term.loadAddon(fit);
term.open(document.getElementById("term"));
fit.fit();
const proto = location.protocol === "https:" ? "wss://" : "ws://";
const ws = new WebSocket(proto + location.host + "/ws");
ws.binaryType = "arraybuffer";
const resize = () => { fit.fit(); ws.send(JSON.stringify({type: "resize", cols: term.cols, rows: term.rows})); };
ws.onopen = resize;
ws.onmessage = (ev) => term.write(typeof ev.data === "string" ? ev.data : new Uint8Array(ev.data));
ws.onclose = () => term.write("\r\n[session closed]\r\n");
term.onData((d) => ws.send(d));
window.addEventListener("resize", resize);
`
)

var pageTemplates = `
{{define "page"}}<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Name}} · slate</title>
<style>` + pageStyle + `</style>
<script type="module" src="` + datastarJS + `"></script>
</head>
<body data-signals="{rev: {{.Rev}}}" data-on-load="@get('/events')">
{{template "main" .}}
</body>
</html>
{{end}}

{{define "main"}}<main id="slate-main">
<nav>{{.Name}}{{range .Path}} / {{.}}{{end}}{{if .Terminal}} · <a href="/terminal">terminal</a>{{end}}</nav>
{{if .Empty}}<p class="muted">This folder is empty.</p>{{else}}<img src="/canvas.png?rev={{.Rev}}" alt="canvas">{{end}}
<article>{{.Outline}}</article>
</main>{{end}}

{{define "terminal"}}<!doctype html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Name}} · slate terminal</title>
<link rel="stylesheet" href="` + xtermCSS + `">
<style>` + termStyle + `</style>
<script src="` + xtermJS + `"></script>
<script src="` + xtermFitJS + `"></script>
</head>
<body>
<div id="term"></div>
<script>` + termScripts + `</script>
</body>
</html>
{{end}}
`
