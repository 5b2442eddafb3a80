package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rautio/render-loop-detector/internal/analyzer"
	"github.com/rautio/render-loop-detector/internal/graph"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// analyzeProject runs the full pipeline, cross-file graph included
func analyzeProject(t *testing.T, dir string, entry string) []Diagnostic {
	t.Helper()

	resolver, err := analyzer.NewModuleResolver(dir, "", nil)
	require.NoError(t, err)
	t.Cleanup(func() { resolver.Close() })

	g, err := graph.NewBuilder(resolver, nil).Build([]string{entry})
	require.NoError(t, err)

	module, err := resolver.GetModule(entry)
	require.NoError(t, err)

	eng := New(nil, resolver, g, nil)
	diags, err := eng.AnalyzeFile(context.Background(), module)
	require.NoError(t, err)
	return diags
}

func TestCrossFile_SetterReachedThroughImport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sync.ts", `
export function pushUpdate(setData) {
  setData({});
}
`)
	app := writeFile(t, dir, "App.tsx", `
import { pushUpdate } from './sync';

function App() {
  const [data, setData] = useState(null);
  useEffect(() => {
    trigger();
  }, [data]);
  return <div />;
}

function trigger() {
  pushUpdate(setData);
}
`)

	diags := analyzeProject(t, dir, app)
	problems := problemsOf(diags)
	require.Len(t, problems, 1)
	assert.Equal(t, CodeCrossFileLoop, problems[0].ErrorCode)
	assert.Equal(t, "setData", problems[0].SetterFunction)
	assert.NotNil(t, problems[0].DebugInfo)
	assert.NotEmpty(t, problems[0].DebugInfo.CrossFileInfo)
}

func TestCrossFile_MemoGetsReviewCode(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "sync.ts", `
export function pushUpdate(setData) {
  setData({});
}
`)
	app := writeFile(t, dir, "App.tsx", `
import { pushUpdate } from './sync';

function App() {
  const [data, setData] = useState(null);
  const derived = useMemo(() => { kick(); return data; }, [data]);
  return <div />;
}

function kick() {
  pushUpdate(setData);
}
`)

	diags := analyzeProject(t, dir, app)
	problems := problemsOf(diags)
	require.Len(t, problems, 1)
	assert.Equal(t, CodeCrossFileReview, problems[0].ErrorCode)
	assert.Equal(t, CategoryWarning, problems[0].Category)
}

func TestCrossFile_MissingDepsIndirect(t *testing.T) {
	dir := t.TempDir()
	app := writeFile(t, dir, "App.tsx", `
function App() {
  const [n, setN] = useState(0);
  useEffect(() => { refresh(); });
  return <div />;
}

function refresh() {
  setN(1);
}
`)

	diags := analyzeProject(t, dir, app)
	require.Len(t, diags, 1)
	assert.Equal(t, CodeEffectMissingDeps, diags[0].ErrorCode)
	assert.Equal(t, ConfidenceMedium, diags[0].Confidence, "indirect evidence lowers confidence")
}

func TestAnalyzeFile_Idempotent(t *testing.T) {
	dir := t.TempDir()
	app := writeFile(t, dir, "App.tsx", `
function App() {
  const [n, setN] = useState(0);
  const cfg = {a: 1};
  useEffect(() => { setN(n + 1) }, [n]);
  useEffect(() => { log(cfg) }, [cfg]);
  return <div />;
}
`)

	first := analyzeProject(t, dir, app)
	second := analyzeProject(t, dir, app)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("Diagnostics differ between identical runs (-first +second):\n%s", diff)
	}
}

func TestAnalyzeFile_SourceOrder(t *testing.T) {
	diags := analyzeSource(t, `
function A() {
  const [a, setA] = useState(0);
  useEffect(() => { setA(a + 1) }, [a]);
}
function B() {
  const [b, setB] = useState(0);
  useEffect(() => { setB(b + 1) }, [b]);
}
`)

	problems := problemsOf(diags)
	require.Len(t, problems, 2)
	assert.Less(t, problems[0].Line, problems[1].Line, "diagnostics are emitted in source order")
}

func TestAnalyzeFile_Cancellation(t *testing.T) {
	module := moduleFor(t, parseTestCode(t, `
function App() {
  const [n, setN] = useState(0);
  useEffect(() => { setN(n + 1) }, [n]);
}
`))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := New(nil, nil, nil, nil)
	_, err := eng.AnalyzeFile(ctx, module)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalyzeFile_CustomHookScope(t *testing.T) {
	diags := analyzeSource(t, `
function useCounter() {
  const [n, setN] = useState(0);
  useEffect(() => { setN(n + 1) }, [n]);
  return n;
}
`)

	problems := problemsOf(diags)
	require.Len(t, problems, 1, "hook sites inside custom hooks are analyzed too")
	assert.Equal(t, CodeEffectLoop, problems[0].ErrorCode)
}
