package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/newronai/newron-go/pkg/tracking"
)

func runUI(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ui", flag.ExitOnError)
	var cf commonFlags
	cf.register(fs)
	experimentID := fs.String("experiment", tracking.DefaultExperimentID, "experiment ID to browse")
	_ = fs.Parse(args)

	client, _, err := cf.setup()
	if err != nil {
		return err
	}
	defer func() { _ = client.Close() }()

	runs, err := client.SearchRuns(ctx, []string{*experimentID}, tracking.SearchFilter{})
	if err != nil {
		return err
	}

	exp, err := client.GetExperiment(ctx, *experimentID)
	if err != nil {
		return err
	}

	m := newBrowser(ctx, client, exp, runs)
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()

	return err
}

// runItem adapts a run to the bubbles list item interface.
type runItem struct {
	run *tracking.Run
}

func (i runItem) Title() string {
	name := i.run.Info.RunName
	if name == "" {
		name = shortID(i.run.Info.RunID)
	}

	return name
}

func (i runItem) Description() string {
	return fmt.Sprintf("%s  %s", i.run.Info.Status, formatMillis(i.run.Info.StartTime))
}

func (i runItem) FilterValue() string {
	return i.run.Info.RunName + " " + i.run.Info.RunID
}

// browser is a two-pane model: a run list, and a detail viewport rendered
// with glamour when a run is selected.
type browser struct {
	ctx    context.Context
	client *tracking.Client

	list     list.Model
	viewport viewport.Model
	showing  bool
	width    int
	height   int
	err      error
}

func newBrowser(ctx context.Context, client *tracking.Client, exp *tracking.Experiment, runs []*tracking.Run) *browser {
	items := make([]list.Item, 0, len(runs))
	for _, run := range runs {
		items = append(items, runItem{run: run})
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = fmt.Sprintf("%s (%d runs)", exp.Name, len(runs))
	l.Styles.Title = titleStyle

	return &browser{
		ctx:      ctx,
		client:   client,
		list:     l,
		viewport: viewport.New(0, 0),
	}
}

func (m *browser) Init() tea.Cmd { return nil }

func (m *browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width, msg.Height-1)
		m.viewport.Width = msg.Width
		m.viewport.Height = msg.Height - 1

		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.showing {
				m.showing = false
				return m, nil
			}
			return m, tea.Quit
		case "esc":
			if m.showing {
				m.showing = false
				return m, nil
			}
		case "enter":
			if !m.showing {
				if item, ok := m.list.SelectedItem().(runItem); ok {
					m.showRun(item.run.Info.RunID)
				}
				return m, nil
			}
		}
	}

	var cmd tea.Cmd
	if m.showing {
		m.viewport, cmd = m.viewport.Update(msg)
	} else {
		m.list, cmd = m.list.Update(msg)
	}

	return m, cmd
}

// showRun refetches the run and renders its markdown into the viewport.
func (m *browser) showRun(runID string) {
	run, err := m.client.GetRun(m.ctx, runID)
	if err != nil {
		m.err = err
		return
	}

	width := m.width
	if width <= 0 {
		width = 80
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		m.err = err
		return
	}

	rendered, err := renderer.Render(runMarkdown(run))
	if err != nil {
		m.err = err
		return
	}

	m.viewport.SetContent(rendered)
	m.viewport.GotoTop()
	m.showing = true
	m.err = nil
}

func (m *browser) View() string {
	footer := dimStyle.Render("enter: open run  esc: back  q: quit")
	if m.err != nil {
		footer = failedStyle.Render(m.err.Error())
	}

	if m.showing {
		return m.viewport.View() + "\n" + footer
	}

	return m.list.View() + "\n" + footer
}
