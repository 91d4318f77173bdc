package cli

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/matzehuels/classscan/pkg/cache"
	"github.com/matzehuels/classscan/pkg/classfile"
	"github.com/matzehuels/classscan/pkg/classfile/classfiletest"
	"github.com/matzehuels/classscan/pkg/classgraph"
	"github.com/matzehuels/classscan/pkg/config"
	errs "github.com/matzehuels/classscan/pkg/errors"
	pkgio "github.com/matzehuels/classscan/pkg/io"
	"github.com/matzehuels/classscan/pkg/storage"
)

// writeClassDir writes Base, Service extends Base, and Repo, with Service
// and Repo referring to each other through fields.
func writeClassDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string][]byte{
		"com/example/Base.class": classfiletest.New("com.example.Base").Bytes(),
		"com/example/Service.class": classfiletest.New("com.example.Service").
			Super("com.example.Base").
			Field(classfile.AccPrivate, "repo", "Lcom/example/Repo;").Done().
			Bytes(),
		"com/example/Repo.class": classfiletest.New("com.example.Repo").
			Field(classfile.AccPrivate, "service", "Lcom/example/Service;").Done().
			Bytes(),
	}
	for name, data := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

// runCLI runs the root command with args and returns what it printed.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	var out bytes.Buffer
	oldOut, oldErr := stdout, stderr
	stdout, stderr = &out, io.Discard
	t.Cleanup(func() { stdout, stderr = oldOut, oldErr })

	c := New(io.Discard, LogInfo)
	root := c.RootCommand()
	root.SetArgs(args)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand_Subcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"scan", "inspect", "deps", "cycles", "export", "browse", "serve", "watch", "cache", "config", "completion"} {
		if !slices.Contains(names, want) {
			t.Errorf("missing subcommand %q in %v", want, names)
		}
	}
}

func TestScanFlags_Options(t *testing.T) {
	cfg := config.Default()
	cfg.Classpath = []string{"from-config"}
	cfg.Reject = []string{"com.example.internal"}

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, got []string, deps bool, reject []string)
	}{
		{
			name: "config classpath",
			args: nil,
			check: func(t *testing.T, got []string, deps bool, reject []string) {
				if !slices.Equal(got, []string{"from-config"}) {
					t.Errorf("classpath = %v", got)
				}
				if !deps {
					t.Error("dependencies should default to on")
				}
				if !slices.Equal(reject, []string{"com.example.internal"}) {
					t.Errorf("reject = %v", reject)
				}
			},
		},
		{
			name: "args replace config",
			args: []string{"a", "--classpath", "b" + string(os.PathListSeparator) + "c"},
			check: func(t *testing.T, got []string, _ bool, _ []string) {
				if !slices.Equal(got, []string{"a", "b", "c"}) {
					t.Errorf("classpath = %v", got)
				}
			},
		},
		{
			name: "flags override config",
			args: []string{"--no-deps", "--reject", "org.other"},
			check: func(t *testing.T, _ []string, deps bool, reject []string) {
				if deps {
					t.Error("--no-deps should disable dependencies")
				}
				if !slices.Equal(reject, []string{"org.other"}) {
					t.Errorf("reject = %v", reject)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f scanFlags
			cmd := &cobra.Command{Use: "x"}
			f.register(cmd)
			if err := cmd.ParseFlags(tt.args); err != nil {
				t.Fatal(err)
			}
			opts, err := f.options(cmd, cmd.Flags().Args(), cfg)
			if err != nil {
				t.Fatal(err)
			}
			tt.check(t, opts.Scan.Classpath, opts.Scan.EnableInterClassDependencies, opts.Scan.Filter.RejectPackages)
		})
	}
}

func TestScanFlags_NoClasspath(t *testing.T) {
	var f scanFlags
	cmd := &cobra.Command{Use: "x"}
	f.register(cmd)
	_, err := f.options(cmd, nil, config.Default())
	if !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestParseKinds(t *testing.T) {
	mask, err := parseKinds([]string{"field", " method-param"})
	if err != nil {
		t.Fatal(err)
	}
	if mask != classgraph.EdgeField|classgraph.EdgeMethodParam {
		t.Errorf("mask = %v", mask)
	}
	if mask, _ := parseKinds(nil); mask != 0 {
		t.Errorf("empty mask = %v", mask)
	}
	if _, err := parseKinds([]string{"bogus"}); !errs.Is(err, errs.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestExportBase(t *testing.T) {
	tests := []struct {
		output string
		want   string
	}{
		{"", defaultExportBase},
		{"out/graph.svg", "out/graph"},
		{"graph.db", "graph"},
		{"graph", "graph"},
		{"graph.v2", "graph.v2"},
	}
	for _, tt := range tests {
		if got := exportBase(tt.output); got != tt.want {
			t.Errorf("exportBase(%q) = %q, want %q", tt.output, got, tt.want)
		}
	}
}

func TestCLI_Scan(t *testing.T) {
	dir := writeClassDir(t)
	out, err := runCLI(t, "scan", dir, "--no-cache")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"3 classes", "fresh"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCLI_ExportFiles(t *testing.T) {
	dir := writeClassDir(t)
	base := filepath.Join(t.TempDir(), "out", "classes")

	if _, err := runCLI(t, "export", dir, "--no-cache", "-f", "json,dot,sqlite", "-o", base); err != nil {
		t.Fatal(err)
	}

	snap, err := pkgio.ImportJSON(base + ".json")
	if err != nil {
		t.Fatal(err)
	}
	if len(snap.Classes) == 0 || len(snap.Edges) == 0 {
		t.Errorf("json snapshot is empty: %+v", snap)
	}

	dot, err := os.ReadFile(base + ".dot")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(dot), `"com.example.Service" -> "com.example.Base"`) {
		t.Errorf("dot missing superclass edge:\n%s", dot)
	}

	db, err := storage.Open(base + ".db")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	stats, err := db.Stats(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if stats.Classes != 3 {
		t.Errorf("sqlite classes = %d, want 3", stats.Classes)
	}
}

func TestCLI_ExportStdout(t *testing.T) {
	dir := writeClassDir(t)
	out, err := runCLI(t, "export", dir, "--no-cache", "-f", "json")
	if err != nil {
		t.Fatal(err)
	}
	snap, err := pkgio.ReadJSON(strings.NewReader(out))
	if err != nil {
		t.Fatalf("stdout is not a snapshot: %v\n%s", err, out)
	}
	if snap.Version != pkgio.FormatVersion {
		t.Errorf("version = %d", snap.Version)
	}
}

func TestCLI_ExportInvalidFormat(t *testing.T) {
	_, err := runCLI(t, "export", t.TempDir(), "--no-cache", "-f", "gif")
	if !errs.Is(err, errs.ErrCodeInvalidFormat) {
		t.Errorf("err = %v, want INVALID_FORMAT", err)
	}
}

func TestCLI_Deps(t *testing.T) {
	dir := writeClassDir(t)

	out, err := runCLI(t, "deps", "com.example.Service", dir, "--no-cache")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"com.example.Base", "superclass", "com.example.Repo", "field"} {
		if !strings.Contains(out, want) {
			t.Errorf("deps output missing %q:\n%s", want, out)
		}
	}

	out, err = runCLI(t, "deps", "com.example.Base", dir, "--no-cache", "--reverse")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "com.example.Service") {
		t.Errorf("reverse deps missing Service:\n%s", out)
	}

	out, err = runCLI(t, "deps", "com.example.Service", dir, "--no-cache", "--kinds", "superclass")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(out, "com.example.Repo") {
		t.Errorf("--kinds superclass should hide Repo:\n%s", out)
	}
}

func TestCLI_NoDepsRejectsDependencyViews(t *testing.T) {
	dir := writeClassDir(t)
	for _, args := range [][]string{
		{"deps", "com.example.Service", dir, "--no-cache", "--no-deps"},
		{"cycles", dir, "--no-cache", "--no-deps"},
	} {
		out, err := runCLI(t, args...)
		if !errs.Is(err, errs.ErrCodeInvalidInput) {
			t.Errorf("%s: err = %v, want INVALID_INPUT", args[0], err)
		}
		if strings.Contains(out, "com.example.Base") {
			t.Errorf("%s printed dependencies:\n%s", args[0], out)
		}
	}
}

func TestCLI_CachePrefix(t *testing.T) {
	tests := []struct {
		prefix string
		want   string
	}{
		{"", "snapshot:"},
		{"billing:", "billing:snapshot:"},
	}
	for _, tt := range tests {
		c := New(io.Discard, LogInfo)
		c.config = config.Default()
		c.config.Cache.Prefix = tt.prefix
		if key := c.newKeyer().SnapshotKey("fp", cache.SnapshotKeyOpts{}); !strings.HasPrefix(key, tt.want) {
			t.Errorf("prefix %q: key = %s, want prefix %s", tt.prefix, key, tt.want)
		}
	}
}

func TestCLI_InspectNotFound(t *testing.T) {
	dir := writeClassDir(t)
	_, err := runCLI(t, "inspect", "com.example.Servce", dir, "--no-cache")
	if !errs.Is(err, errs.ErrCodeNotFound) {
		t.Fatalf("err = %v, want NOT_FOUND", err)
	}

	out, err := runCLI(t, "inspect", "com.example.Service", dir, "--no-cache")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"com.example.Service", "com.example.Base", "repo"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect output missing %q:\n%s", want, out)
		}
	}
}

func TestCLI_Cycles(t *testing.T) {
	dir := writeClassDir(t)

	out, err := runCLI(t, "cycles", dir, "--no-cache")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "com.example.Repo") || !strings.Contains(out, "com.example.Service") {
		t.Errorf("cycle not reported:\n%s", out)
	}

	if _, err := runCLI(t, "cycles", dir, "--no-cache", "--fail"); !errors.Is(err, errCyclesFound) {
		t.Errorf("err = %v, want errCyclesFound", err)
	}
}

func TestCLI_CacheRoundTrip(t *testing.T) {
	dir := writeClassDir(t)
	cacheDir := t.TempDir()
	t.Setenv("CLASSSCAN_CACHE_DIR", cacheDir)

	if out, err := runCLI(t, "scan", dir); err != nil || !strings.Contains(out, "fresh") {
		t.Fatalf("first scan: err=%v\n%s", err, out)
	}
	if out, err := runCLI(t, "scan", dir); err != nil || !strings.Contains(out, "cached") {
		t.Fatalf("second scan should hit the cache: err=%v\n%s", err, out)
	}
	if _, err := runCLI(t, "cache", "clear"); err != nil {
		t.Fatal(err)
	}
	if out, err := runCLI(t, "scan", dir); err != nil || !strings.Contains(out, "fresh") {
		t.Fatalf("scan after clear: err=%v\n%s", err, out)
	}
}

func TestCLI_ConfigInit(t *testing.T) {
	t.Chdir(t.TempDir())

	if _, err := runCLI(t, "config", "init"); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(config.FileName); err != nil {
		t.Fatalf("config file not written: %v", err)
	}
	if _, err := runCLI(t, "config", "init"); !errs.Is(err, errs.ErrCodeInvalidPath) {
		t.Errorf("second init err = %v, want INVALID_PATH", err)
	}
	if _, err := runCLI(t, "config", "init", "--force"); err != nil {
		t.Errorf("--force: %v", err)
	}

	out, err := runCLI(t, "config", "path")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, config.FileName) {
		t.Errorf("config path = %q", out)
	}
}

func TestCLI_ScanPOMFetch(t *testing.T) {
	var jar bytes.Buffer
	zw := zip.NewWriter(&jar)
	w, err := zw.Create("org/example/lib/Lib.class")
	if err != nil {
		t.Fatal(err)
	}
	w.Write(classfiletest.New("org.example.lib.Lib").Bytes())
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}

	const jarPath = "/org/example/lib/1.0/lib-1.0.jar"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != jarPath {
			http.NotFound(w, r)
			return
		}
		w.Write(jar.Bytes())
	}))
	defer srv.Close()

	dir := t.TempDir()
	pom := filepath.Join(dir, "pom.xml")
	os.WriteFile(pom, []byte(`<project>
  <groupId>com.example</groupId>
  <artifactId>app</artifactId>
  <version>1.0</version>
  <dependencies>
    <dependency>
      <groupId>org.example</groupId>
      <artifactId>lib</artifactId>
      <version>1.0</version>
    </dependency>
  </dependencies>
</project>`), 0644)
	repo := filepath.Join(dir, "repo")

	out, err := runCLI(t, "scan", "--pom", pom, "--m2", repo, "--fetch", "--maven-repo", srv.URL, "--no-cache")
	if err != nil {
		t.Fatalf("scan --fetch: %v", err)
	}
	if _, err := os.Stat(filepath.Join(repo, filepath.FromSlash(jarPath))); err != nil {
		t.Errorf("jar not fetched: %v", err)
	}
	if strings.Contains(out, "not found in the local repository") {
		t.Errorf("fetched dependency still reported missing:\n%s", out)
	}
}
