package ui

import (
	"bytes"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenter_ShowWritesOnlyMessageToStdout(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPresenter(&out, &errOut, true, true)

	require.NoError(t, p.Show("One must imagine the linter happy"))
	assert.Equal(t, "One must imagine the linter happy\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestPresenter_Committed(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPresenter(&out, &errOut, false, false)

	p.Committed("We revolt against the flaky test")
	assert.Empty(t, out.String())
	assert.Equal(t, "Committed with message: We revolt against the flaky test\n", errOut.String())
}

func TestPresenter_NoChanges(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPresenter(&out, &errOut, false, false)

	p.NoChanges()
	assert.Empty(t, out.String())
	assert.Equal(t, NoChangesMessage+"\n", errOut.String())
}

func TestPresenter_SpinnerDisabledOffTerminal(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPresenter(&out, &errOut, true, true)

	s := p.ShowSpinner("Contemplating the diff...")
	_, isNoop := s.(noopSpinner)
	assert.True(t, isNoop, "a buffer is not a terminal")
	s.Stop()
	assert.Empty(t, errOut.String())
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}

func TestSpinnerModel(t *testing.T) {
	m := newBubbleSpinner(&bytes.Buffer{}, "thinking", newStyles(false).spinner).model
	assert.Contains(t, m.View(), "thinking")

	updated, cmd := m.Update(spinnerQuitMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, updated.View())
}

func TestBubbleSpinner_StopWithoutStart(t *testing.T) {
	s := newBubbleSpinner(&bytes.Buffer{}, "x", newStyles(false).spinner)
	s.Stop()
	assert.Nil(t, s.program)
}
