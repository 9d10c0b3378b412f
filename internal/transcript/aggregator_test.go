package transcript

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skillgate/internal/classify"
	"skillgate/internal/transcript/transcripttest"
)

func allExist(string) bool { return true }

func newAggregator(exists func(string) bool) *Aggregator {
	return &Aggregator{Tables: classify.Default(), Exists: exists}
}

func TestAggregateEmptyAndMissing(t *testing.T) {
	a := newAggregator(allExist)

	st := a.Aggregate(nil)
	assert.True(t, st.Empty())
	assert.False(t, st.HasCodeEdits)
	assert.Len(t, st.Required, 4)
	for key, met := range st.Required {
		assert.False(t, met, key)
	}

	st = a.AggregateFile(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.True(t, st.Empty())

	st = a.AggregateFile("")
	assert.True(t, st.Empty())
}

func TestAggregateEditsAreDeduplicated(t *testing.T) {
	log := transcripttest.New().
		Write("/p/src/app.ts").
		Edit("/p/src/app.ts").
		Edit("/p/package.json").
		Edit("/p/src/app.ts").
		Edit("/p/main.go")

	st := newAggregator(allExist).Aggregate(log.Reader())
	assert.Equal(t, []string{"/p/src/app.ts", "/p/package.json"}, st.EditedFiles)
	assert.True(t, st.HasCodeEdits)
}

func TestAggregateCodeAndFormattableAreIndependent(t *testing.T) {
	exists := func(p string) bool { return p != "/p/gone.ts" }
	log := transcripttest.New().
		Edit("/p/gone.ts").
		Edit("/p/style.css")

	st := newAggregator(exists).Aggregate(log.Reader())
	assert.True(t, st.HasCodeEdits, "missing file still counts as a code edit")
	assert.Equal(t, []string{"/p/style.css"}, st.EditedFiles)
}

func TestAggregateDedupeSpansWholePass(t *testing.T) {
	calls := 0
	exists := func(p string) bool {
		calls++
		return calls > 1
	}
	log := transcripttest.New().
		Edit("/p/a.ts").
		Edit("/p/a.ts")

	st := newAggregator(exists).Aggregate(log.Reader())
	assert.Empty(t, st.EditedFiles, "a path is only classified on first sighting")
	assert.Equal(t, 1, calls)
}

func TestAggregateSkills(t *testing.T) {
	log := transcripttest.New().
		Skill("applying-workflow").
		Skill("writing-typescript").
		Skill("writing-react-native").
		Skill("writing-typescript").
		Skill("final-checking")

	st := newAggregator(allExist).Aggregate(log.Reader())
	assert.True(t, st.HasWorkflowSkill)
	assert.True(t, st.HasFinalCheck)
	assert.True(t, st.Required["typescript"])
	assert.False(t, st.Required["react"], "names are matched exactly")
	assert.False(t, st.Required["ecmascript"])
	assert.Equal(t, 2, st.Count("writing-typescript"))
	assert.Equal(t, 1, st.Count("writing-react-native"))
	assert.Equal(t, 0, st.Count("missing"))
}

func TestSortedCapabilitiesIsStable(t *testing.T) {
	log := transcripttest.New().
		Skill("b").
		Skill("a").
		Skill("c").
		Skill("c").
		Skill("a")

	st := newAggregator(allExist).Aggregate(log.Reader())
	assert.Equal(t, []CapabilityCount{{"b", 1}, {"a", 2}, {"c", 2}}, st.Capabilities)
	assert.Equal(t, []CapabilityCount{{"a", 2}, {"c", 2}, {"b", 1}}, st.SortedCapabilities())
}

func TestAggregateReadsAreUnfiltered(t *testing.T) {
	log := transcripttest.New().
		Read("/p/docs/index.md").
		Read("/p/src/app.ts").
		Read("/p/docs/index.md")

	st := newAggregator(allExist).Aggregate(log.Reader())
	assert.Equal(t, []string{"/p/docs/index.md", "/p/src/app.ts"}, st.DocsRead)
	assert.True(t, st.HasRead("/p/src/app.ts"))
	assert.False(t, st.HasRead("/p/README.md"))
}

func TestAggregateSkipsMalformedLines(t *testing.T) {
	log := transcripttest.New().
		Skill("applying-workflow").
		Raw("{not json").
		User("please edit the file").
		Raw("").
		Skill("final-checking").
		Raw(`{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Skill","input":{"skill":"writing-lua"`)

	st := newAggregator(allExist).Aggregate(log.Reader())
	assert.True(t, st.HasWorkflowSkill)
	assert.True(t, st.HasFinalCheck, "lines after a malformed one are still read")
	assert.False(t, st.Required["lua"], "truncated trailing line is dropped")
	assert.Equal(t, 2, st.Malformed)
	assert.Equal(t, 5, st.Lines)
}

func TestAggregateSkipsOversizedLine(t *testing.T) {
	huge := `{"type":"user","message":{"content":"` + strings.Repeat("A", 200*1024) + `"}}`
	log := transcripttest.New().
		Skill("writing-typescript").
		Raw(huge).
		Skill("writing-typescript").
		Skill("final-checking")

	a := newAggregator(allExist)
	a.MaxLineBytes = 4096
	st := a.Aggregate(log.Reader())
	assert.Equal(t, 4, st.Lines)
	assert.Equal(t, 1, st.Malformed)
	assert.Equal(t, 2, st.Count("writing-typescript"))
	assert.True(t, st.HasFinalCheck)
}

func TestAggregateSurvivesLineAboveDefaultCap(t *testing.T) {
	if testing.Short() {
		t.Skip("allocates a 17MiB line")
	}
	huge := `{"type":"user","message":{"content":"` + strings.Repeat("A", 17<<20) + `"}}`
	log := transcripttest.New().
		Skill("applying-workflow").
		Raw(huge).
		Skill("applying-workflow").
		Raw(huge)

	st := newAggregator(allExist).Aggregate(log.Reader())
	assert.Equal(t, 4, st.Lines)
	assert.Equal(t, 2, st.Malformed, "a trailing oversized line is counted too")
	assert.Equal(t, 2, st.Count("applying-workflow"))
}

func TestAggregateToolUseFilterIsCanonicalOnly(t *testing.T) {
	log := transcripttest.New().
		Raw(`{"type":"assistant","message":{"content":[{"type":"tool\u005fuse","name":"Skill","input":{"skill":"final-checking"}}]}}`).
		Skill("applying-workflow")

	st := newAggregator(allExist).Aggregate(log.Reader())
	assert.False(t, st.HasFinalCheck)
	assert.True(t, st.HasWorkflowSkill)
	assert.Equal(t, 0, st.Malformed, "an escaped type is valid JSON and simply ignored")
}

func TestAggregateIsIdempotent(t *testing.T) {
	log := transcripttest.New().
		Skill("applying-workflow").
		Write("/p/a.tsx").
		Read("/p/docs/index.md").
		Skill("writing-react")

	a := newAggregator(allExist)
	path := log.WriteFile(t, t.TempDir())
	first := a.AggregateFile(path)
	second := a.AggregateFile(path)
	require.Equal(t, first, second)
}

func TestAggregateIgnoresUnrelatedInterleaving(t *testing.T) {
	plain := transcripttest.New().
		Skill("applying-workflow").
		Edit("/p/a.ts").
		Skill("writing-ecmascript")
	noisy := transcripttest.New().
		Skill("applying-workflow").
		ToolUse("Bash", map[string]string{"command": "ls"}).
		User("ok").
		Edit("/p/a.ts").
		ToolUse("Grep", map[string]string{"pattern": "x"}).
		Skill("writing-ecmascript")

	a := newAggregator(allExist)
	p := a.Aggregate(plain.Reader())
	n := a.Aggregate(noisy.Reader())
	assert.Equal(t, p.EditedFiles, n.EditedFiles)
	assert.Equal(t, p.Capabilities, n.Capabilities)
	assert.Equal(t, p.Required, n.Required)
	assert.Equal(t, p.HasCodeEdits, n.HasCodeEdits)
	assert.Equal(t, p.HasWorkflowSkill, n.HasWorkflowSkill)
}

func TestAggregateMultipleBlocksPerLine(t *testing.T) {
	line := `{"type":"assistant","message":{"role":"assistant","content":[` +
		`{"type":"text","text":"working"},` +
		`{"type":"tool_use","name":"Skill","input":{"skill":"applying-workflow"}},` +
		`{"type":"tool_use","name":"Edit","input":{"file_path":"/p/x.lua"}}]}}`

	st := newAggregator(allExist).Aggregate(strings.NewReader(line))
	assert.True(t, st.HasWorkflowSkill)
	assert.True(t, st.HasCodeEdits)
	assert.Empty(t, st.EditedFiles, ".lua is not formattable")
}
