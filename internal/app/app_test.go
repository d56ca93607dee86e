package app

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/ben-ranford/addonimports/internal/report"
	"github.com/ben-ranford/addonimports/internal/symbols"
	"github.com/ben-ranford/addonimports/internal/testutil"
	"github.com/ben-ranford/addonimports/internal/toolexec"
	"github.com/ben-ranford/addonimports/internal/walk"
)

const (
	symbolCreate = "?napi_create_function@@YAXXZ"
	symbolCbInfo = "?napi_get_cb_info@@YAXXZ"
	symbolOpaque = "?mystery@@YAXXZ"

	executeErrFmt = "execute: %v"
)

type fakeIntrospector struct {
	imports map[string][]symbols.ImportRecord
	err     error
	calls   int
}

func (f *fakeIntrospector) ListImports(_ context.Context, modulePath string) ([]symbols.ImportRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.imports[filepath.Base(filepath.Dir(modulePath))], nil
}

func newTestApp(introspector symbols.Introspector) (*App, *bytes.Buffer) {
	var logs bytes.Buffer
	application := New(log.New(&logs))
	application.Introspector = introspector
	return application, &logs
}

func requestFor(root string) Request {
	req := DefaultRequest()
	req.RootPath = root
	return req
}

// writeProject lays out root/node_modules/<pkg>/build/Release/addon.node for
// each package name.
func writeProject(t *testing.T, root string, packages ...string) {
	t.Helper()
	for _, name := range packages {
		testutil.WriteModuleTree(t, filepath.Join(root, "node_modules", name), filepath.Join("build", "Release", "addon.node"))
	}
}

func TestExecuteCSV(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "a", "b")
	introspector := &fakeIntrospector{imports: map[string][]symbols.ImportRecord{
		"Release": {symbols.NewImportRecord("int __cdecl S2(void)"), symbols.NewImportRecord("int __cdecl S1(void)")},
	}}
	application, _ := newTestApp(introspector)

	output, err := application.Execute(context.Background(), requestFor(root))
	if err != nil {
		t.Fatalf(executeErrFmt, err)
	}
	want := strings.Join([]string{
		"Pkg count,Package names,Imported name,Imported signature",
		`2,"a, b","S2","int __cdecl S2(void)"`,
		`2,"a, b","S1","int __cdecl S1(void)"`,
		"",
	}, "\n")
	if output != want {
		t.Fatalf("unexpected csv output:\n%s", output)
	}
}

func TestExecuteJSON(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "a")
	introspector := &fakeIntrospector{imports: map[string][]symbols.ImportRecord{
		"Release": {symbols.NewImportRecord("void __cdecl S1(int)")},
	}}
	application, _ := newTestApp(introspector)
	req := requestFor(root)
	req.Format = report.FormatJSON

	output, err := application.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf(executeErrFmt, err)
	}
	for _, want := range []string{`"schemaVersion": "0.1.0"`, `"signature": "void __cdecl S1(int)"`, `"packages": [`} {
		if !strings.Contains(output, want) {
			t.Fatalf("expected json output to include %q, got %s", want, output)
		}
	}
}

func TestExecuteEmptyDependencyDir(t *testing.T) {
	root := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(root, "node_modules", ".package-lock.json"), "{}")
	application, _ := newTestApp(&fakeIntrospector{})

	output, err := application.Execute(context.Background(), requestFor(root))
	if err != nil {
		t.Fatalf(executeErrFmt, err)
	}
	if output != "Pkg count,Package names,Imported name,Imported signature\n" {
		t.Fatalf("expected header only, got %q", output)
	}
}

func TestExecuteMissingDependencyDir(t *testing.T) {
	application, _ := newTestApp(&fakeIntrospector{})
	_, err := application.Execute(context.Background(), requestFor(t.TempDir()))
	if !errors.Is(err, ErrDependencyDirMissing) {
		t.Fatalf("expected missing dependency dir error, got %v", err)
	}
	var fsErr *walk.FilesystemError
	if !errors.As(err, &fsErr) || fsErr.Kind != walk.KindNotFound {
		t.Fatalf("expected wrapped not-found filesystem error, got %v", err)
	}
}

func TestExecuteDependencyDirIsFile(t *testing.T) {
	root := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(root, "node_modules"), "")
	application, _ := newTestApp(&fakeIntrospector{})
	_, err := application.Execute(context.Background(), requestFor(root))
	if err == nil || errors.Is(err, ErrDependencyDirMissing) {
		t.Fatalf("expected not-a-directory error, got %v", err)
	}
}

func TestExecuteIntrospectorError(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "a")
	boom := errors.New("boom")
	application, _ := newTestApp(&fakeIntrospector{err: boom})
	output, err := application.Execute(context.Background(), requestFor(root))
	if !errors.Is(err, boom) {
		t.Fatalf("expected introspector error, got %v", err)
	}
	if output != "" {
		t.Fatalf("expected no output on failure, got %q", output)
	}
}

func TestExecuteInvalidConfig(t *testing.T) {
	application, _ := newTestApp(&fakeIntrospector{})
	req := requestFor(t.TempDir())
	req.Config.Jobs = 0
	if _, err := application.Execute(context.Background(), req); err == nil || !strings.Contains(err.Error(), "invalid jobs") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestExecuteWithCache(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "a")
	introspector := &fakeIntrospector{imports: map[string][]symbols.ImportRecord{
		"Release": {symbols.NewImportRecord("void __cdecl S1(int)")},
	}}
	application, _ := newTestApp(introspector)
	req := requestFor(root)
	req.Format = report.FormatJSON
	req.Config.CacheDir = ".addonimports-cache"

	if _, err := application.Execute(context.Background(), req); err != nil {
		t.Fatalf(executeErrFmt, err)
	}
	output, err := application.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf(executeErrFmt, err)
	}
	if introspector.calls != 1 {
		t.Fatalf("expected second run to be served from cache, got %d calls", introspector.calls)
	}
	if !strings.Contains(output, `"hits": 1`) {
		t.Fatalf("expected cache hit in report, got %s", output)
	}
}

func TestExecuteVerboseLogsProgress(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "a")
	application, logs := newTestApp(&fakeIntrospector{})
	req := requestFor(root)
	req.Verbose = true

	if _, err := application.Execute(context.Background(), req); err != nil {
		t.Fatalf(executeErrFmt, err)
	}
	if !strings.Contains(logs.String(), "collecting package") {
		t.Fatalf("expected debug progress in logs, got %q", logs.String())
	}
}

func TestExecuteExternalTools(t *testing.T) {
	root := t.TempDir()
	toolDir := t.TempDir()
	lister := testutil.WriteScript(t, toolDir, "dumpbin", `cat "$2"`)
	demangler := testutil.WriteScript(t, toolDir, "undname", `case "$1" in
'`+symbolCreate+`') echo 'is :- "enum napi_status __cdecl napi_create_function(void)"' ;;
'`+symbolCbInfo+`') echo 'is :- "enum napi_status __cdecl napi_get_cb_info(void)"' ;;
*) echo "error" ;;
esac`)
	listing := func(decorated ...string) string {
		lines := []string{"Dump of file addon.node", "    node.exe"}
		for _, symbol := range decorated {
			lines = append(lines, "             1400D3A20     0 "+symbol)
		}
		return strings.Join(lines, "\r\n") + "\r\n"
	}
	modules := filepath.Join(root, "node_modules")
	testutil.MustWriteFile(t, filepath.Join(modules, "a", "build", "Release", "a.node"), listing(symbolCreate, symbolCbInfo))
	testutil.MustWriteFile(t, filepath.Join(modules, "a", "build", "ia32", "a.node"), listing(symbolOpaque))
	testutil.MustWriteFile(t, filepath.Join(modules, "b", "lib", "b.node"), listing(symbolCreate, symbolOpaque))
	testutil.MustWriteFile(t, filepath.Join(modules, "b", "node_modules", "c", "c.node"), listing(symbolCbInfo))

	application, logs := newTestApp(nil)
	req := requestFor(root)
	req.Config.Lister.Path = lister
	req.Config.Demangler.Path = demangler

	output, err := application.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf(executeErrFmt, err)
	}
	want := strings.Join([]string{
		"Pkg count,Package names,Imported name,Imported signature",
		`2,"a, b","napi_create_function","enum napi_status __cdecl napi_create_function(void)"`,
		`1,"a","napi_get_cb_info","enum napi_status __cdecl napi_get_cb_info(void)"`,
		`1,"b","?mystery@@YAXXZ","?mystery@@YAXXZ"`,
		"",
	}, "\n")
	if output != want {
		t.Fatalf("unexpected csv output:\n%s\nwant:\n%s", output, want)
	}
	if !strings.Contains(logs.String(), "demangler output not recognised") {
		t.Fatalf("expected parse fallback warning, got %q", logs.String())
	}
}

func TestExecuteWithoutModulesSkipsToolResolution(t *testing.T) {
	root := t.TempDir()
	testutil.MustWriteFile(t, filepath.Join(root, "node_modules", "lodash", "index.js"), "")
	application, _ := newTestApp(nil)
	req := requestFor(root)
	req.Config.Lister.Path = filepath.Join(t.TempDir(), "no-such-dumpbin")
	req.Config.Demangler.Path = filepath.Join(t.TempDir(), "no-such-undname")

	output, err := application.Execute(context.Background(), req)
	if err != nil {
		t.Fatalf(executeErrFmt, err)
	}
	if output != "Pkg count,Package names,Imported name,Imported signature\n" {
		t.Fatalf("expected header only, got %q", output)
	}
}

func TestExecuteMissingTool(t *testing.T) {
	root := t.TempDir()
	writeProject(t, root, "a")
	application, _ := newTestApp(nil)
	req := requestFor(root)
	req.Config.Lister.Path = filepath.Join(t.TempDir(), "no-such-dumpbin")

	_, err := application.Execute(context.Background(), req)
	var toolErr *toolexec.ExternalToolError
	if !errors.As(err, &toolErr) || !errors.Is(err, toolexec.ErrToolNotFound) {
		t.Fatalf("expected tool not found error, got %v", err)
	}
}
