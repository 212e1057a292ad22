package app

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	proceduredto "audiometer/internal/modules/procedure/dto"
)

type fakeProcedure struct {
	progress float64
	skips    int
	skipOK   bool
}

func (f *fakeProcedure) Run(ctx context.Context, _ string, _ bool) (proceduredto.RunOutput, error) {
	<-ctx.Done()
	return proceduredto.RunOutput{}, ctx.Err()
}

func (f *fakeProcedure) Progress() proceduredto.ProgressOutput {
	return proceduredto.ProgressOutput{Running: true, Value: f.progress}
}

func (f *fakeProcedure) Skip() bool {
	f.skips++
	return f.skipOK
}

type fakeResponder struct{ presses int }

func (f *fakeResponder) Press() bool {
	f.presses++
	return true
}

func TestModelForwardsKeys(t *testing.T) {
	t.Parallel()
	proc := &fakeProcedure{skipOK: true}
	responder := &fakeResponder{}
	m := NewModel(proc, responder, "threshold", false, true)

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	m = next.(Model)
	if responder.presses != 1 || m.status != "response registered" {
		t.Fatalf("expected one press, got %d (%q)", responder.presses, m.status)
	}
	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'e'}})
	m = next.(Model)
	if proc.skips != 1 || m.status != "skipping" {
		t.Fatalf("expected skip request, got %d (%q)", proc.skips, m.status)
	}
}

func TestModelSkipDisabledOutsideTestMode(t *testing.T) {
	t.Parallel()
	proc := &fakeProcedure{skipOK: true}
	m := NewModel(proc, nil, "threshold", false, false)
	_, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'e'}})
	if proc.skips != 0 {
		t.Fatalf("skip must not reach the procedure outside test mode")
	}
}

func TestModelPollsProgressAndShowsResult(t *testing.T) {
	t.Parallel()
	proc := &fakeProcedure{progress: 0.5}
	m := NewModel(proc, nil, "screening", true, false)

	next, cmd := m.Update(tickMsg{})
	m = next.(Model)
	if m.value != 0.5 || cmd == nil {
		t.Fatalf("expected polled progress and another tick, got %v", m.value)
	}

	proc.progress = 1
	next, _ = m.Update(runDoneMsg{out: proceduredto.RunOutput{
		Success:     true,
		Path:        "/data/p/audiogram.csv",
		Frequencies: []int{1000, 2000},
		Left:        []string{"20", "NH"},
		Right:       []string{"25", "-"},
	}})
	m = next.(Model)
	if !m.done || m.value != 1 {
		t.Fatalf("expected finished model, got %+v", m)
	}
	view := m.View()
	for _, want := range []string{"screening (binaural)", "/data/p/audiogram.csv", "NH", "2000"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
	if _, cmd := m.Update(tickMsg{}); cmd != nil {
		t.Fatalf("polling must stop after the run finished")
	}
}

func TestModelQuitCancelsRun(t *testing.T) {
	t.Parallel()
	proc := &fakeProcedure{}
	m := NewModel(proc, nil, "familiarization", false, false)
	done := make(chan tea.Msg, 1)
	go func() { done <- m.runCmd()() }()

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(Model)
	if cmd == nil || !m.Result().Aborted {
		t.Fatalf("expected quit with aborted result")
	}
	msg := (<-done).(runDoneMsg)
	if msg.err != context.Canceled {
		t.Fatalf("expected cancelled run, got %v", msg.err)
	}
}
