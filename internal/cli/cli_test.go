package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, stdin string, args []string) (stdout []byte, stderr []byte, err error) {
	t.Helper()

	cmd := NewRootCmd()

	var outBuf bytes.Buffer
	var errBuf bytes.Buffer
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)

	e := cmd.Execute()
	return outBuf.Bytes(), errBuf.Bytes(), e
}

// cliEnv isolates a test in its own config dir and library.
func cliEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("SLATE_CONFIG_DIR", dir)
	t.Setenv("SLATE_DOC", "")
	t.Setenv("SLATE_FORMAT", "")
	return dir
}

func mustRaw(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	stdout, stderr, err := runCLI(t, stdin, args)
	if err != nil {
		t.Fatalf("command failed: slate %v\nerr: %v\nstderr:\n%s\nstdout:\n%s", args, err, stderr, stdout)
	}
	return string(stdout)
}

func mustRun(t *testing.T, args ...string) map[string]any {
	t.Helper()
	out := mustRaw(t, "", args...)
	var env map[string]any
	if err := json.Unmarshal([]byte(out), &env); err != nil {
		t.Fatalf("unmarshal stdout as json envelope: %v\nstdout:\n%s\nargs: %v", err, out, args)
	}
	if _, ok := env["data"]; !ok {
		t.Fatalf("expected JSON envelope to contain data key; got: %v", env)
	}
	return env
}

func dataMap(env map[string]any) map[string]any {
	m, _ := env["data"].(map[string]any)
	return m
}

func dataID(env map[string]any) int {
	id, _ := dataMap(env)["id"].(float64)
	return int(id)
}

func children(node map[string]any) []map[string]any {
	raw, _ := node["children"].([]any)
	out := make([]map[string]any, 0, len(raw))
	for _, c := range raw {
		if m, ok := c.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}

func TestCLINoDocument(t *testing.T) {
	cliEnv(t)
	_, stderr, err := runCLI(t, "", []string{"show"})
	if err == nil || !strings.Contains(string(stderr), "no current document") {
		t.Fatalf("expected no-document error, got %v\nstderr: %s", err, stderr)
	}
}

func TestCLIEditCanvas(t *testing.T) {
	cliEnv(t)

	doc := mustRun(t, "new", "Plans")
	if dataMap(doc)["uuid"] == "" || dataMap(doc)["current"] != true {
		t.Fatalf("unexpected new output: %v", doc)
	}

	box := dataID(mustRun(t, "add", "container", "--title", "Roadmap", "--w", "330", "--h", "90"))
	note := dataID(mustRun(t, "add", "text", "ship it", "--x", "450"))
	title := dataID(mustRun(t, "add", "title", "Goals", "--parent", "1"))
	if box != 1 || note != 2 || title != 3 {
		t.Fatalf("unexpected ids: %d %d %d", box, note, title)
	}
	arrow := mustRun(t, "arrow", "1", "2", "--tips", "both")
	if ends := dataMap(arrow)["arrow"].(map[string]any); ends["start"] != float64(1) || ends["end"] != float64(2) {
		t.Fatalf("unexpected arrow: %v", arrow)
	}

	tree := dataMap(mustRun(t, "show"))
	top := children(tree)
	if len(top) != 3 {
		t.Fatalf("expected 3 top-level objects, got %v", tree)
	}
	if top[0]["label"] != "Roadmap" || len(children(top[0])) != 1 || children(top[0])[0]["label"] != "Goals" {
		t.Fatalf("container not shown with its child: %v", top[0])
	}

	text := mustRaw(t, "", "show", "--format", "text")
	for _, want := range []string{"#0 folder Home", "#1 container Roadmap", "#3 title Goals", "#4 arrow #1 → #2"} {
		if !strings.Contains(text, want) {
			t.Fatalf("text tree missing %q:\n%s", want, text)
		}
	}

	md := mustRaw(t, "", "export", "--as", "md")
	if !strings.Contains(md, "## Roadmap") || !strings.Contains(md, "## Connections") {
		t.Fatalf("unexpected markdown:\n%s", md)
	}

	mustRun(t, "undo")
	if n := len(children(dataMap(mustRun(t, "show")))); n != 2 {
		t.Fatalf("undo should remove the arrow, got %d objects", n)
	}
	mustRun(t, "redo")
	if n := len(children(dataMap(mustRun(t, "show")))); n != 3 {
		t.Fatalf("redo should restore the arrow, got %d objects", n)
	}

	hist := mustRun(t, "history")
	entries := hist["data"].([]any)
	if hist["head"] != float64(len(entries)) || hist["canRedo"] != false {
		t.Fatalf("unexpected history: %v", hist)
	}

	del := dataMap(mustRun(t, "rm", "2"))
	ids := del["deleted"].([]any)
	if len(ids) != 2 {
		t.Fatalf("deleting an endpoint should take the arrow with it, got %v", ids)
	}

	mustRun(t, "mv", "3", ".")
	top = children(dataMap(mustRun(t, "show")))
	if len(top) != 2 || len(children(top[0])) != 0 {
		t.Fatalf("title should now be top-level: %v", top)
	}

	moved := mustRun(t, "move", "1", "--dx", "30", "--dy", "15")
	pos := moved["data"].([]any)[0].(map[string]any)["position"].(map[string]any)
	if pos["x"] != float64(30) || pos["y"] != float64(15) {
		t.Fatalf("unexpected position after move: %v", pos)
	}

	mustRun(t, "text", "3", "Milestones")
	if got := children(dataMap(mustRun(t, "show")))[1]["label"]; got != "Milestones" {
		t.Fatalf("text not replaced: %v", got)
	}

	_, stderr, err := runCLI(t, "", []string{"rm", "99"})
	if err == nil || !strings.Contains(string(stderr), "object not found: 99") {
		t.Fatalf("expected not found, got %v: %s", err, stderr)
	}
}

func TestCLIFoldersAndPath(t *testing.T) {
	cliEnv(t)
	mustRun(t, "new", "Docs")
	folder := dataID(mustRun(t, "add", "folder", "Archive", "--color", "#ff9800"))

	path := mustRun(t, "cd", "1")
	if p := path["data"].([]any); len(p) != 2 || p[1].(map[string]any)["name"] != "Archive" {
		t.Fatalf("unexpected path: %v", path)
	}
	if got := strings.TrimSpace(mustRaw(t, "", "pwd", "--format", "text")); got != "/Archive" {
		t.Fatalf("pwd = %q", got)
	}
	inner := dataID(mustRun(t, "add", "text", "inside"))
	if inner <= folder {
		t.Fatalf("ids must keep growing across folders: %d", inner)
	}
	if n := len(children(dataMap(mustRun(t, "show")))); n != 1 {
		t.Fatalf("folder canvas should hold one object, got %d", n)
	}

	mustRun(t, "cd", "..")
	if got := strings.TrimSpace(mustRaw(t, "", "pwd", "--format", "text")); got != "/" {
		t.Fatalf("pwd after cd .. = %q", got)
	}
	if _, _, err := runCLI(t, "", []string{"cd", "99"}); err == nil {
		t.Fatalf("expected error opening a missing folder")
	}
	mustRun(t, "style", "1", "--icon", "📦")
}

func TestCLICopyPaste(t *testing.T) {
	cliEnv(t)
	mustRun(t, "new", "Clip")
	mustRun(t, "add", "text", "one")
	mustRun(t, "add", "text", "two", "--x", "300")
	mustRun(t, "arrow", "1", "2")

	frag := mustRaw(t, "", "copy", "1", "2", "3", "--print")
	if !strings.Contains(frag, `data-slate-kind="multiple"`) {
		t.Fatalf("copy did not produce a fragment:\n%s", frag)
	}

	stdout, stderr, err := runCLI(t, frag, []string{"paste", "--stdin"})
	if err != nil {
		t.Fatalf("paste: %v\n%s", err, stderr)
	}
	var pasted struct {
		Data []objectView `json:"data"`
	}
	if err := json.Unmarshal(stdout, &pasted); err != nil {
		t.Fatalf("paste output: %v\n%s", err, stdout)
	}
	if len(pasted.Data) != 3 {
		t.Fatalf("expected 3 pasted objects, got %d", len(pasted.Data))
	}
	last := pasted.Data[2]
	if last.Arrow == nil || last.Arrow.Start != pasted.Data[0].ID || last.Arrow.End != pasted.Data[1].ID {
		t.Fatalf("pasted arrow not retargeted: %+v", pasted.Data)
	}

	if empty := mustRun(t, "paste", "--stdin"); len(empty["data"].([]any)) != 0 {
		t.Fatalf("empty clipboard should paste nothing: %v", empty)
	}
	stdout, _, err = runCLI(t, "just words", []string{"paste", "--stdin"})
	if err != nil || !strings.Contains(string(stdout), `"kind":"text"`) {
		t.Fatalf("plain paste failed: %v %s", err, stdout)
	}
}

func TestCLIDocuments(t *testing.T) {
	dir := cliEnv(t)
	a := dataMap(mustRun(t, "new", "Alpha"))
	mustRun(t, "new", "Beta", "--no-use")
	mustRun(t, "add", "text", "in alpha")

	ls := mustRun(t, "ls")
	if docs := ls["data"].([]any); len(docs) != 2 || ls["current"] != a["uuid"] {
		t.Fatalf("unexpected ls: %v", ls)
	}
	text := mustRaw(t, "", "ls", "--format", "text")
	if !strings.Contains(text, "* "+a["uuid"].(string)[:8]) || !strings.Contains(text, "Beta") {
		t.Fatalf("unexpected ls text:\n%s", text)
	}

	out := filepath.Join(dir, "alpha.json")
	mustRun(t, "export", "-o", out)
	imported := dataMap(mustRun(t, "import", out, "--name", "Alpha copy"))
	if imported["uuid"] == a["uuid"] || imported["current"] != true {
		t.Fatalf("import should mint a new uuid and become current: %v", imported)
	}
	if n := len(children(dataMap(mustRun(t, "show")))); n != 1 {
		t.Fatalf("imported document lost its objects")
	}

	png := filepath.Join(dir, "alpha.png")
	mustRun(t, "--doc", "Alpha", "export", "-o", png)
	raw, err := os.ReadFile(png)
	if err != nil || !bytes.HasPrefix(raw, []byte("\x89PNG")) {
		t.Fatalf("png export missing or invalid: %v", err)
	}

	mustRun(t, "open", "Beta")
	mustRun(t, "rename", "Gamma")
	mustRun(t, "rm-doc", "Gamma")
	if _, stderr, err := runCLI(t, "", []string{"show"}); err == nil || !strings.Contains(string(stderr), "no current document") {
		t.Fatalf("deleting the current document should clear it: %v %s", err, stderr)
	}
	if _, _, err := runCLI(t, "", []string{"open", "Gamma"}); err == nil {
		t.Fatalf("deleted document still opens")
	}
}

func TestCLIDocs(t *testing.T) {
	cliEnv(t)
	topics, _ := dataMap(mustRun(t, "docs"))["topics"].([]any)
	if len(topics) == 0 {
		t.Fatalf("no docs topics")
	}
	topic := dataMap(mustRun(t, "docs", "canvas"))
	if !strings.HasPrefix(topic["markdown"].(string), "# Canvas") {
		t.Fatalf("unexpected topic: %v", topic)
	}
	if raw := mustRaw(t, "", "docs", "serve", "--raw"); !strings.HasPrefix(raw, "# Serve") {
		t.Fatalf("raw docs: %q", raw)
	}
	if _, _, err := runCLI(t, "", []string{"docs", "nope"}); err == nil {
		t.Fatalf("expected unknown topic error")
	}
}
