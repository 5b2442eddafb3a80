package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetect_RenderPhaseSetter(t *testing.T) {
	diags := analyzeSource(t, `
function Comp() {
  const [x, setX] = useState(0);
  setX(x + 1);
  return <div>{x}</div>;
}
`)

	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, CodeRenderPhaseSetter, d.ErrorCode)
	assert.Equal(t, CategoryCritical, d.Category)
	assert.Equal(t, uint32(4), d.Line)
	assert.Equal(t, "setX", d.SetterFunction)
}

func TestDetect_RenderPhaseSetter_NestedArrowIsSafe(t *testing.T) {
	diags := analyzeSource(t, `
function Comp() {
  const [x, setX] = useState(0);
  const onClick = () => setX(x + 1);
  return <button onClick={onClick}>{x}</button>;
}
`)

	assert.Empty(t, problemsOf(diags), "setters inside nested functions run on events, not during render")
}

func TestDetect_EffectMissingDeps(t *testing.T) {
	diags := analyzeSource(t, `
function Comp() {
  const [n, setN] = useState(0);
  useEffect(() => { setN(1) });
  return <div />;
}
`)

	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, CodeEffectMissingDeps, d.ErrorCode)
	assert.Equal(t, ConfidenceHigh, d.Confidence, "a direct setter is high confidence")
	assert.Contains(t, d.ActualStateModifications, "n")
}

func TestDetect_EffectWithDepsNotMissing(t *testing.T) {
	diags := analyzeSource(t, `
function Comp() {
  const [n, setN] = useState(0);
  useEffect(() => { read(n) }, [n]);
  return <div />;
}
`)

	for _, d := range diags {
		assert.NotEqual(t, CodeEffectMissingDeps, d.ErrorCode)
	}
}

func TestDetect_UnstableSnapshot(t *testing.T) {
	diags := analyzeSource(t, `
function Store() {
  const state = useSyncExternalStore(sub, () => ({v: 1}));
  return <div>{state.v}</div>;
}
`)

	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, CodeUnstableSnapshot, d.ErrorCode)
	assert.Equal(t, CategoryCritical, d.Category)
	assert.Equal(t, SeverityHigh, d.Severity)
}

func TestDetect_UnstableSnapshot_IdentifierForm(t *testing.T) {
	diags := analyzeSource(t, `
function Store() {
  const getSnap = () => state.value;
  const snap = useSyncExternalStore(sub, getSnap);
  return <div />;
}
`)

	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, CodeUnstableSnapshot, d.ErrorCode)
	assert.Equal(t, CategoryPerformance, d.Category, "identifier form is a performance finding")
	assert.Equal(t, SeverityLow, d.Severity)
}

func TestDetect_StableSnapshotSilent(t *testing.T) {
	diags := analyzeSource(t, `
function Store() {
  const snap = useSyncExternalStore(sub, () => store.getState().value);
  return <div />;
}
`)

	assert.Empty(t, diags)
}

func TestDetect_ProviderValueUnstable(t *testing.T) {
	diags := analyzeSource(t, `
function App() {
  const [x, setX] = useState(0);
  return <Ctx.Provider value={{x, setX}}>{null}</Ctx.Provider>;
}
`)

	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, CodeProviderValue, d.ErrorCode)
	assert.Equal(t, "value", d.ProblematicDependency)
}

func TestDetect_ProviderValueMemoizedSilent(t *testing.T) {
	diags := analyzeSource(t, `
function App() {
  const [x, setX] = useState(0);
  const ctx = useMemo(() => ({x, setX}), [x]);
  return <Ctx.Provider value={ctx}>{null}</Ctx.Provider>;
}
`)

	assert.Empty(t, diags)
}

func TestDetect_MemoizedElementProps(t *testing.T) {
	diags := analyzeSource(t, `
const Fast = memo(function Fast({items}) { return <ul />; });

function Parent() {
  return <Fast items={[1, 2]} />;
}
`)

	require.Len(t, diags, 1)
	d := diags[0]
	assert.Equal(t, CodeMemoizedElementProp, d.ErrorCode)
	assert.Equal(t, "items", d.ProblematicDependency)
}

func TestDetect_PlainElementPropsSilent(t *testing.T) {
	diags := analyzeSource(t, `
function Parent() {
  return <Child items={[1, 2]} />;
}
`)

	assert.Empty(t, diags, "unstable props to non-memoized elements are intentionally silent")
}

func TestIgnoreDirectives(t *testing.T) {
	diags := analyzeSource(t, `
function Comp() {
  const [n, setN] = useState(0);
  useEffect(() => { setN(n + 1) }, [n]); // rld-ignore
  return <div />;
}
`)
	assert.Empty(t, diags, "inline directive suppresses the site")

	diags = analyzeSource(t, `
function Comp() {
  const [n, setN] = useState(0);
  // rld-ignore-next-line
  useEffect(() => { setN(n + 1) }, [n]);
  return <div />;
}
`)
	assert.Empty(t, diags, "next-line directive suppresses the following line")

	diags = analyzeSource(t, `
function Comp() {
  const [n, setN] = useState(0);
  useEffect(() => { setN(n + 1) }, [n]); /* rld-ignore */
  return <div />;
}
`)
	assert.Empty(t, diags, "block form works too")
}

func TestIgnoreDirective_DoesNotLeak(t *testing.T) {
	diags := analyzeSource(t, `
function Comp() {
  const [n, setN] = useState(0);
  // rld-ignore-next-line
  const unrelated = 1;
  useEffect(() => { setN(n + 1) }, [n]);
  return <div>{unrelated}</div>;
}
`)

	require.Len(t, problemsOf(diags), 1)
	assert.Equal(t, CodeEffectLoop, problemsOf(diags)[0].ErrorCode)
}

func TestBuildSuppressions(t *testing.T) {
	suppressed := BuildSuppressions([]byte(`const a = 1; // rld-ignore
// rld-ignore-next-line
const b = 2;
const c = 3;
`))

	assert.True(t, suppressed[1])
	assert.True(t, suppressed[3])
	assert.False(t, suppressed[4])
}
