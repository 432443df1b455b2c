package main

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chazu/tiersplit/syntax"
	"github.com/chazu/tiersplit/syntax/hash"
	"github.com/chazu/tiersplit/syntax/wire"
	"github.com/chazu/tiersplit/transform"
)

const interp = `def dispatch(self, pc, tstack):
    if we_are_in_tier2(kind='jump'):
        pc = target
    transformer.can_enter_tier1_jump(pc=pc, target=target)
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		input  string
		outDir string
		tier   transform.Tier
		ext    string
		want   string
	}{
		{"/src/interp.py", "", transform.Tier1, ".py", "/src/interp_tier1.py"},
		{"/src/interp.py", "", transform.Tier2, ".py", "/src/interp_tier2.py"},
		{"/src/interp.py", "/gen", transform.Tier1, ".py", "/gen/interp_tier1.py"},
		{"/src/interp.py", "", transform.Tier1, treeExt, "/src/interp_tier1.tree"},
		{"/src/a.b.py", "", transform.Tier2, ".py", "/src/a.b_tier2.py"},
		{"/src/interp", "", transform.Tier1, "", "/src/interp_tier1"},
	}
	for _, tc := range tests {
		j := &job{Input: tc.input, OutDir: tc.outDir, Tier: tc.tier}
		if got := j.outputPath(tc.ext); got != tc.want {
			t.Errorf("outputPath(%s, %q, %s) = %s, want %s", tc.input, tc.outDir, tc.tier, got, tc.want)
		}
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "x_tier1.py")
	if err := writeFileAtomic(path, []byte("old\n")); err != nil {
		t.Fatalf("writeFileAtomic: %v", err)
	}
	if err := writeFileAtomic(path, []byte("new\n")); err != nil {
		t.Fatalf("writeFileAtomic: %v", err)
	}
	if got := readFile(t, path); got != "new\n" {
		t.Errorf("content = %q, want new", got)
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %v", entries)
	}
}

func TestJobWritesBothTiers(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "interp.py")
	writeFile(t, input, interp)

	for _, tier := range []transform.Tier{transform.Tier1, transform.Tier2} {
		j := &job{Input: input, Tier: tier, RunID: "test"}
		res, err := j.transform()
		if err != nil {
			t.Fatalf("%s: %v", tier, err)
		}
		path, err := j.write(res)
		if err != nil {
			t.Fatalf("%s write: %v", tier, err)
		}
		if path != filepath.Join(dir, "interp_"+string(tier)+".py") {
			t.Errorf("%s written to %s", tier, path)
		}
	}

	tier1 := readFile(t, filepath.Join(dir, "interp_tier1.py"))
	if !strings.Contains(tier1, "emit_jump(pc, target)") || strings.Contains(tier1, "we_are_in_tier2") {
		t.Errorf("tier1 output:\n%s", tier1)
	}
	tier2 := readFile(t, filepath.Join(dir, "interp_tier2.py"))
	if strings.Contains(tier2, "we_are_in_tier2") || strings.Contains(tier2, "we_are_jitted") {
		t.Errorf("tier2 output:\n%s", tier2)
	}
	if got := readFile(t, input); got != interp {
		t.Error("input file was modified")
	}
}

func TestJobTreeRoundTrip(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "interp.py")
	writeFile(t, input, interp)

	j := &job{Input: input, Tier: transform.Tier1, EmitTree: true, RunID: "run-42"}
	res, err := j.transform()
	if err != nil {
		t.Fatalf("transform: %v", err)
	}
	if _, err := j.write(res); err != nil {
		t.Fatalf("write: %v", err)
	}

	treePath := filepath.Join(dir, "interp_tier1.tree")
	mod, runID, err := wire.Unmarshal([]byte(readFile(t, treePath)))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if runID != "run-42" {
		t.Errorf("run id = %q", runID)
	}
	if !hash.Equal(mod, res.Module) {
		t.Error("emitted tree differs from the rewritten module")
	}

	// Feed the source tree back in as a tree input.
	src, err := syntax.ParseModule(interp)
	if err != nil {
		t.Fatal(err)
	}
	data, err := wire.Marshal(src, "")
	if err != nil {
		t.Fatal(err)
	}
	treeInput := filepath.Join(dir, "annotated.tree")
	writeFile(t, treeInput, string(data))

	tj := &job{Input: treeInput, Tier: transform.Tier2, TreeInput: true}
	tres, err := tj.transform()
	if err != nil {
		t.Fatalf("tree input: %v", err)
	}
	path, err := tj.write(tres)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if path != filepath.Join(dir, "annotated_tier2.py") {
		t.Errorf("tree input written to %s", path)
	}
}

func TestJobErrors(t *testing.T) {
	dir := t.TempDir()

	missing := &job{Input: filepath.Join(dir, "nope.py"), Tier: transform.Tier1}
	if _, err := missing.transform(); err == nil {
		t.Error("expected error for missing input")
	}

	bad := filepath.Join(dir, "bad.py")
	writeFile(t, bad, "if we_are_in_tier2(kind='loop'):\n    pass\n")
	j := &job{Input: bad, Tier: transform.Tier2}
	_, err := j.transform()
	if !errors.Is(err, transform.ErrMalformedGuard) {
		t.Fatalf("got %v, want ErrMalformedGuard", err)
	}
	if !strings.HasPrefix(err.Error(), bad+": line 1:") {
		t.Errorf("message %q does not name the file and line", err)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "bad_tier2.py")); !os.IsNotExist(statErr) {
		t.Error("output written for a failed transformation")
	}
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "src", "interp.py"), interp)
	writeFile(t, filepath.Join(dir, "src", "other.py"), "x = 1\n")
	writeFile(t, filepath.Join(dir, "tiersplit.toml"), `
[output]
dir = "gen"

[[source]]
path = "src/interp.py"

[[source]]
path = "src/other.py"
tiers = ["tier2"]
`)

	report, err := build(context.Background(), dir, "first")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if report.Jobs != 3 || report.Cached != 0 {
		t.Errorf("first build = %+v, want 3 jobs, none cached", report)
	}
	for _, name := range []string{"interp_tier1.py", "interp_tier2.py", "other_tier2.py"} {
		if _, err := os.Stat(filepath.Join(dir, "gen", name)); err != nil {
			t.Errorf("missing output: %v", err)
		}
	}
	if _, err := os.Stat(filepath.Join(dir, ".tiersplit", "cache.db")); err != nil {
		t.Errorf("cache database not created: %v", err)
	}

	first := readFile(t, filepath.Join(dir, "gen", "interp_tier1.py"))
	os.Remove(filepath.Join(dir, "gen", "interp_tier1.py"))

	report, err = build(context.Background(), filepath.Join(dir, "src"), "second")
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if report.Cached != 3 {
		t.Errorf("second build cached %d, want 3", report.Cached)
	}
	if got := readFile(t, filepath.Join(dir, "gen", "interp_tier1.py")); got != first {
		t.Errorf("cached output differs:\n%s\nwant:\n%s", got, first)
	}
}

func TestBuildPrunesExpiredEntries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "interp.py"), interp)
	writeFile(t, filepath.Join(dir, "tiersplit.toml"), `
[cache]
max-age = "24h"

[[source]]
path = "interp.py"
`)

	report, err := build(context.Background(), dir, "first")
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if report.Pruned != 0 {
		t.Errorf("first build pruned %d, want 0", report.Pruned)
	}

	report, err = build(context.Background(), dir, "second")
	if err != nil {
		t.Fatalf("second build: %v", err)
	}
	if report.Cached != 2 || report.Pruned != 0 {
		t.Errorf("fresh entries: %+v, want 2 cached, none pruned", report)
	}

	// Backdate every entry past the configured age.
	db, err := sql.Open("sqlite", filepath.Join(dir, ".tiersplit", "cache.db"))
	if err != nil {
		t.Fatal(err)
	}
	old := time.Now().Add(-48 * time.Hour).Unix()
	if _, err := db.Exec("UPDATE outputs SET created = ?", old); err != nil {
		t.Fatal(err)
	}
	db.Close()

	report, err = build(context.Background(), dir, "third")
	if err != nil {
		t.Fatalf("third build: %v", err)
	}
	if report.Pruned != 2 || report.Cached != 0 {
		t.Errorf("expired entries: %+v, want 2 pruned, none cached", report)
	}
}

func TestBuildReportsWarningsOnCacheHit(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "interp.py"), `def run(pc):
    if a:
        transformer.can_enter_tier1_jump(pc=pc, target=first)
    else:
        transformer.can_enter_tier1_jump(pc=pc, target=second)
`)
	writeFile(t, filepath.Join(dir, "tiersplit.toml"), "[[source]]\npath = \"interp.py\"\n")

	for _, runID := range []string{"first", "second"} {
		report, err := build(context.Background(), dir, runID)
		if err != nil {
			t.Fatalf("%s build: %v", runID, err)
		}
		if report.Warnings != 2 {
			t.Errorf("%s build reported %d warnings, want one per tier", runID, report.Warnings)
		}
		if runID == "second" && report.Cached != 2 {
			t.Errorf("second build cached %d, want 2", report.Cached)
		}
	}

	j := &job{Input: filepath.Join(dir, "interp.py"), Tier: transform.Tier2}
	if _, err := j.build(nil); err != nil {
		t.Fatal(err)
	}
	if len(j.Warnings) != 1 || !strings.Contains(j.Warnings[0], "line 5") {
		t.Errorf("uncached warnings = %v", j.Warnings)
	}
}

func TestBuildErrors(t *testing.T) {
	t.Run("no sources", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "tiersplit.toml"), "[cache]\ndisabled = true\n")
		if _, err := build(context.Background(), dir, "r"); err == nil || !strings.Contains(err.Error(), "no [[source]]") {
			t.Errorf("got %v", err)
		}
	})

	t.Run("failing source", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, filepath.Join(dir, "bad.py"), "transformer.can_enter_tier1_ret(pc=pc)\n")
		writeFile(t, filepath.Join(dir, "tiersplit.toml"), `
[cache]
disabled = true

[[source]]
path = "bad.py"
tiers = ["tier1"]
`)
		_, err := build(context.Background(), dir, "r")
		if !errors.Is(err, transform.ErrMissingBinding) {
			t.Errorf("got %v, want ErrMissingBinding", err)
		}
	})
}

func TestLoadManifestExplicitDir(t *testing.T) {
	dir := t.TempDir()
	if _, err := loadManifest(dir, "."); err == nil {
		t.Error("expected error for -config without tiersplit.toml")
	}
	writeFile(t, filepath.Join(dir, "tiersplit.toml"), "[transform]\nreceiver = \"vm\"\n")
	m, err := loadManifest(dir, ".")
	if err != nil {
		t.Fatalf("loadManifest: %v", err)
	}
	if m.Options().Receiver != "vm" {
		t.Errorf("receiver = %q, want vm", m.Options().Receiver)
	}
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "interp.py")
	writeFile(t, input, interp)
	writeFile(t, filepath.Join(dir, "tiersplit.toml"), "[cache]\ndisabled = true\n")

	tests := []struct {
		name       string
		args       []string
		code       int
		stdout     string
		stderr     string
		wantOutput string
	}{
		{name: "no arguments", args: nil, code: 1, stderr: "Usage: tiersplit"},
		{name: "missing tier", args: []string{input}, code: 1, stderr: "Usage: tiersplit"},
		{name: "unknown flag", args: []string{"-bogus", input, "tier1"}, code: 1, stderr: "flag provided but not defined"},
		{name: "help", args: []string{"-h"}, code: 0, stderr: "Usage: tiersplit"},
		{name: "invalid tier", args: []string{input, "tier3"}, code: 1, stderr: "Error: invalid tier"},
		{name: "missing input", args: []string{filepath.Join(dir, "nope.py"), "tier1"}, code: 1, stderr: "Error: cannot read"},
		{name: "stdout", args: []string{"-stdout", input, "tier2"}, code: 0, stdout: "def dispatch(self, pc, tstack):"},
		{name: "writes tier1", args: []string{input, "tier1"}, code: 0, wantOutput: "interp_tier1.py"},
		{name: "build without manifest", args: []string{"build", t.TempDir()}, code: 1, stderr: "Error: no tiersplit.toml"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			if code := run(tc.args, &stdout, &stderr); code != tc.code {
				t.Fatalf("exit code %d, want %d\nstderr: %s", code, tc.code, stderr.String())
			}
			if !strings.Contains(stdout.String(), tc.stdout) {
				t.Errorf("stdout %q does not contain %q", stdout.String(), tc.stdout)
			}
			if !strings.Contains(stderr.String(), tc.stderr) {
				t.Errorf("stderr %q does not contain %q", stderr.String(), tc.stderr)
			}
			if tc.wantOutput != "" {
				got := readFile(t, filepath.Join(dir, tc.wantOutput))
				if !strings.Contains(got, "emit_jump(pc, target)") {
					t.Errorf("%s:\n%s", tc.wantOutput, got)
				}
			}
		})
	}
}
