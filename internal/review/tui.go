// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package review

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pdiddy/review-engine/pkg/types"
)

// abstractPreviewLen bounds how much abstract text the prompt shows; the
// reviewer needs a skim, not the full text.
const abstractPreviewLen = 400

var (
	bannerStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	titleStyle     = lipgloss.NewStyle().Bold(true)
	metaStyle      = lipgloss.NewStyle().Faint(true)
	abstractStyle  = lipgloss.NewStyle().Italic(true)
	reasoningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	helpStyle      = lipgloss.NewStyle().Faint(true)
)

// TUIGate presents escalated records in the terminal, one Bubble Tea
// program per record, and maps keys to decisions (R2.1-R2.3).
type TUIGate struct {
	// ProgramOptions is appended to each program run; tests inject
	// tea.WithInput/tea.WithOutput here.
	ProgramOptions []tea.ProgramOption
}

// Review runs the decision prompt for one record and blocks until the
// reviewer chooses relevant, irrelevant, or skip. Quitting without a
// decision counts as an abandoned review.
func (g *TUIGate) Review(ctx context.Context, record types.Record, cls types.Classification) (types.HumanDecision, error) {
	opts := append([]tea.ProgramOption{tea.WithContext(ctx)}, g.ProgramOptions...)
	p := tea.NewProgram(newReviewModel(record, cls), opts...)

	final, err := p.Run()
	if err != nil {
		return types.HumanDecision{}, fmt.Errorf("%w: %v", types.ErrReviewAbandoned, err)
	}

	m, ok := final.(reviewModel)
	if !ok || !m.decided {
		return types.HumanDecision{}, fmt.Errorf("reviewer quit without deciding: %w", types.ErrReviewAbandoned)
	}

	return types.HumanDecision{Outcome: m.decision}, nil
}

// reviewModel is the Bubble Tea model for a single escalated record.
type reviewModel struct {
	record types.Record
	cls    types.Classification

	decision types.Outcome
	decided  bool
}

func newReviewModel(record types.Record, cls types.Classification) reviewModel {
	return reviewModel{record: record, cls: cls}
}

func (m reviewModel) Init() tea.Cmd { return nil }

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "r":
		m.decision = types.OutcomeRelevant
		m.decided = true
		return m, tea.Quit
	case "i":
		m.decision = types.OutcomeIrrelevant
		m.decided = true
		return m, tea.Quit
	case "s":
		m.decision = types.OutcomeSkip
		m.decided = true
		return m, tea.Quit
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	}
	return m, nil
}

func (m reviewModel) View() string {
	var b strings.Builder

	b.WriteString(bannerStyle.Render("UNCERTAIN RECORD") + "\n\n")
	b.WriteString(titleStyle.Render(m.record.Title) + "\n")
	b.WriteString(metaStyle.Render(formatMeta(m.record)) + "\n\n")

	if m.record.Abstract != "" {
		b.WriteString(abstractStyle.Render(truncate(m.record.Abstract, abstractPreviewLen)) + "\n\n")
	}

	b.WriteString(reasoningStyle.Render("Model reasoning: "+m.cls.Reasoning) + "\n\n")
	b.WriteString(helpStyle.Render("[r] relevant  [i] irrelevant  [s] skip  [q] abandon") + "\n")

	return b.String()
}

// formatMeta renders the author/year line under the title.
func formatMeta(r types.Record) string {
	var parts []string
	switch len(r.Authors) {
	case 0:
	case 1:
		parts = append(parts, r.Authors[0])
	default:
		parts = append(parts, r.Authors[0]+" et al.")
	}
	if r.Year > 0 {
		parts = append(parts, fmt.Sprintf("%d", r.Year))
	}
	if r.DOI != "" {
		parts = append(parts, "doi:"+r.DOI)
	}
	return strings.Join(parts, " · ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
