package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rautio/render-loop-detector/internal/parser"
)

func parseTestCode(t *testing.T, code string) *parser.AST {
	t.Helper()

	p, err := parser.NewParser()
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })

	ast, err := p.ParseFile("test.tsx", []byte(code))
	require.NoError(t, err)
	t.Cleanup(func() { ast.Close() })

	return ast
}

func TestExtractReactiveSymbols_UseState(t *testing.T) {
	ast := parseTestCode(t, `
function Counter() {
  const [count, setCount] = useState(0);
  const [items, setItems] = useState([]);
}
`)

	syms := ExtractReactiveSymbols(ast.Root)

	require.Len(t, syms.States, 2)
	assert.Equal(t, "count", syms.BySetter["setCount"].State)
	assert.Equal(t, "items", syms.BySetter["setItems"].State)
	assert.True(t, syms.IsState("count"))
	assert.True(t, syms.IsSetter("setItems"))
}

func TestExtractReactiveSymbols_UseReducer(t *testing.T) {
	ast := parseTestCode(t, `
function App() {
  const [state, dispatch] = useReducer(reducer, initial);
}
`)

	syms := ExtractReactiveSymbols(ast.Root)

	require.Len(t, syms.States, 1)
	assert.Equal(t, "state", syms.BySetter["dispatch"].State)
}

func TestExtractReactiveSymbols_CustomHookConvention(t *testing.T) {
	ast := parseTestCode(t, `
function Form() {
  const [value, setValue] = useFormField("");
  const [data, refresh] = useFetch(url);
}
`)

	syms := ExtractReactiveSymbols(ast.Root)

	// setValue matches set+Uppercase; refresh does not
	require.Len(t, syms.States, 1)
	assert.Equal(t, "value", syms.BySetter["setValue"].State)
	assert.False(t, syms.IsSetter("refresh"))
}

func TestExtractReactiveSymbols_RefsAndMemos(t *testing.T) {
	ast := parseTestCode(t, `
function Widget() {
  const timer = useRef(null);
  const total = useMemo(() => a + b, [a, b]);
  const onClick = useCallback(() => {}, []);
  const scaled = React.useMemo(() => x * 2, [x]);
}
`)

	syms := ExtractReactiveSymbols(ast.Root)

	assert.Contains(t, syms.Refs, "timer")
	require.Contains(t, syms.Memos, "total")
	assert.Equal(t, MemoValue, syms.Memos["total"].Kind)
	require.Contains(t, syms.Memos, "onClick")
	assert.Equal(t, MemoCallback, syms.Memos["onClick"].Kind)
	assert.Contains(t, syms.Memos, "scaled", "namespaced member form should be recognized")
}

func TestExtractReactiveSymbols_UseContextPairing(t *testing.T) {
	ast := parseTestCode(t, `
function Consumer() {
  const { theme, setTheme, locale } = useContext(AppContext);
}
`)

	syms := ExtractReactiveSymbols(ast.Root)

	require.Len(t, syms.States, 1)
	assert.Equal(t, "theme", syms.BySetter["setTheme"].State)
	assert.False(t, syms.IsState("locale"), "unpaired names are not state")
}

func TestExtractReactiveSymbols_NestedDestructuring(t *testing.T) {
	ast := parseTestCode(t, `
const { a, b: renamed, c = 1, ...rest } = source;
`)

	syms := ExtractReactiveSymbols(ast.Root)

	for _, name := range []string{"a", "renamed", "c", "rest"} {
		assert.True(t, syms.ModuleLevel[name], "expected %s to be module-level", name)
	}
}

func TestExtractReactiveSymbols_ModuleLevelDepth(t *testing.T) {
	ast := parseTestCode(t, `
const CONFIG = { retries: 3 };
function helper() {
  const localOnly = 1;
}
function Board() {
  const inner = {};
}
`)

	syms := ExtractReactiveSymbols(ast.Root)

	assert.True(t, syms.ModuleLevel["CONFIG"])
	assert.True(t, syms.ModuleLevel["helper"])
	assert.False(t, syms.ModuleLevel["localOnly"], "declarations inside functions are not module-level")
	assert.False(t, syms.ModuleLevel["inner"])
}

func TestExtractReactiveSymbols_ComponentScope(t *testing.T) {
	ast := parseTestCode(t, `
function First() {
  const [a, setA] = useState(0);
}
function Second() {
  const [b, setB] = useState(0);
}
`)

	// File-level extraction sees both; scoped extraction sees one
	fileSyms := ExtractReactiveSymbols(ast.Root)
	assert.Len(t, fileSyms.States, 2)

	var firstNode *parser.Node
	ast.Root.Walk(func(n *parser.Node) bool {
		if n.Type() == "function_declaration" {
			nameNode := n.ChildByFieldName("name")
			if nameNode != nil && nameNode.Text() == "First" {
				firstNode = n
				return false
			}
		}
		return true
	})
	require.NotNil(t, firstNode)

	scoped := ExtractReactiveSymbols(firstNode)
	require.Len(t, scoped.States, 1)
	assert.Equal(t, "a", scoped.States[0].State)
}
