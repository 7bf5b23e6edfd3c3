package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/itopnl/internal/domain"
	"github.com/alexanderramin/itopnl/internal/service"
	"github.com/alexanderramin/itopnl/internal/testutil"
)

func testShell(t *testing.T, fake *testutil.FakeClient) shellModel {
	t.Helper()
	app := &App{Config: service.DefaultConfig()}
	app.Service = service.New(fake, app.Config)
	return newShellModel(context.Background(), app, loadHistory(""))
}

func typeLine(t *testing.T, m shellModel, line string) (shellModel, tea.Cmd) {
	t.Helper()
	m.input.SetValue(line)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	sm, ok := next.(shellModel)
	require.True(t, ok)
	return sm, cmd
}

// runResult executes the remote call batched by execute and returns its output.
func runResult(t *testing.T, cmd tea.Cmd) string {
	t.Helper()
	require.NotNil(t, cmd)
	batch, ok := cmd().(tea.BatchMsg)
	require.True(t, ok, "expected a batch")
	for _, c := range batch {
		if c == nil {
			continue
		}
		if res, ok := c().(shellResultMsg); ok {
			return stripANSI(res.output)
		}
	}
	t.Fatal("no shell result in batch")
	return ""
}

func TestShell_QuestionRunsQuery(t *testing.T) {
	fake := testutil.NewFakeClient()
	m := testShell(t, fake)

	m, cmd := typeLine(t, m, "critical tickets")

	assert.True(t, m.busy)
	out := runResult(t, cmd)
	assert.Contains(t, out, "SELECT UserRequest WHERE priority = '1'")

	next, _ := m.Update(shellResultMsg{output: out})
	assert.False(t, next.(shellModel).busy)
}

func TestShell_ClassAndFormatCommands(t *testing.T) {
	fake := testutil.NewFakeClient()
	m := testShell(t, fake)

	m, _ = typeLine(t, m, ":class Rack")
	assert.Equal(t, "Rack", m.class)
	assert.Contains(t, stripANSI(m.View()), "itop(Rack)")

	m, _ = typeLine(t, m, ":format table")
	assert.Equal(t, domain.FormatTable, m.format)

	m, cmd := typeLine(t, m, "list everything")
	out := runResult(t, cmd)
	calls := fake.Calls()
	assert.Equal(t, "SELECT Rack", calls[len(calls)-1].Key)
	next, _ := m.Update(shellResultMsg{output: out})
	m = next.(shellModel)
	require.False(t, m.busy)

	m, _ = typeLine(t, m, ":class")
	assert.Empty(t, m.class)
}

func TestShell_BadFormatKeepsCurrent(t *testing.T) {
	m := testShell(t, testutil.NewFakeClient())

	m, _ = typeLine(t, m, ":format xml")

	assert.Equal(t, domain.FormatDetailed, m.format)
	assert.False(t, m.busy)
}

func TestShell_ExplainDoesNotQuery(t *testing.T) {
	fake := testutil.NewFakeClient()
	m := testShell(t, fake)

	_, cmd := typeLine(t, m, ":explain list all servers")

	out := runResult(t, cmd)
	assert.Contains(t, out, "OQL: SELECT Server")
	assert.Len(t, fake.Calls(), 1)
}

func TestShell_ValuesUsage(t *testing.T) {
	m := testShell(t, testutil.NewFakeClient())

	m, _ = typeLine(t, m, ":values Server")

	assert.False(t, m.busy)
}

func TestShell_ExitQuits(t *testing.T) {
	m := testShell(t, testutil.NewFakeClient())

	m, cmd := typeLine(t, m, "exit")

	assert.True(t, m.quitting)
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestShell_KeysIgnoredWhileBusy(t *testing.T) {
	m := testShell(t, testutil.NewFakeClient())
	m.busy = true

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	assert.Nil(t, cmd)
	assert.True(t, next.(shellModel).busy)
	assert.Contains(t, stripANSI(next.View()), "Querying iTop")
}

func TestShell_HistoryNavigation(t *testing.T) {
	m := testShell(t, testutil.NewFakeClient())
	m, _ = typeLine(t, m, ":format summary")
	m, _ = typeLine(t, m, ":format table")

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(shellModel)
	assert.Equal(t, ":format table", m.input.Value())

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	m = next.(shellModel)
	assert.Equal(t, ":format summary", m.input.Value())

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m = next.(shellModel)
	assert.Equal(t, ":format table", m.input.Value())

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Empty(t, next.(shellModel).input.Value())
}

func TestHistory_PersistsAndTruncates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "shell_history")

	h := loadHistory(path)
	h.add("first")
	h.add("  ")
	h.add("second")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "first\nsecond\n", string(data))

	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("line\n", maxHistoryLines+20)), 0o644))
	assert.Len(t, loadHistory(path).entries, maxHistoryLines)
}

func TestSplitShellCommand(t *testing.T) {
	name, rest := splitShellCommand("  :VALUES Server status  active ")
	assert.Equal(t, ":values", name)
	assert.Equal(t, "Server status  active", rest)
}
