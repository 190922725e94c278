package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	bcsvbridge "github.com/wippyai/bcsv-bridge"
	"github.com/wippyai/bcsv-bridge/catalog"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	opStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#98FB98"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// previewLimit caps how much of a conversion result the TUI renders.
const previewLimit = 1024

type opInfo struct {
	name   string
	desc   string
	fields []fieldInfo
}

type fieldInfo struct {
	name  string
	hint  string
	value string
}

var operations = []opInfo{
	{
		name: "decode",
		desc: "binary table to delimited text",
		fields: []fieldInfo{
			{name: "input", hint: "path to binary table"},
			{name: "output", hint: "path for text, empty previews"},
			{name: "names", hint: "column name file, optional"},
			{name: "endian", hint: "big, little or native", value: "big"},
			{name: "delim", hint: "field delimiter", value: ","},
			{name: "signed", hint: "true renders signed 16-bit", value: "false"},
		},
	},
	{
		name: "encode",
		desc: "delimited text to binary table",
		fields: []fieldInfo{
			{name: "input", hint: "path to delimited text"},
			{name: "output", hint: "path for table, empty previews"},
			{name: "endian", hint: "big, little or native", value: "big"},
			{name: "delim", hint: "field delimiter", value: ","},
			{name: "mask", hint: "column mask, 0 keeps all", value: "0"},
		},
	},
	{
		name: "export",
		desc: "binary table to xlsx workbook",
		fields: []fieldInfo{
			{name: "input", hint: "path to binary table"},
			{name: "output", hint: "path for workbook"},
			{name: "names", hint: "column name file, optional"},
			{name: "endian", hint: "big, little or native", value: "big"},
			{name: "signed", hint: "true renders signed 16-bit", value: "false"},
		},
	},
}

type modelState int

const (
	stateSelectOp modelState = iota
	stateInputArgs
	stateShowResult
)

type interactiveModel struct {
	err        error
	engineFile string
	result     string
	inputs     []textinput.Model
	selected   int
	focusIdx   int
	state      modelState
}

type convertResultMsg struct {
	err    error
	result string
}

func newInteractiveModel(engineFile string) *interactiveModel {
	return &interactiveModel{engineFile: engineFile, state: stateSelectOp}
}

func (m *interactiveModel) Init() tea.Cmd {
	return nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInputArgs {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelectOp && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectOp && m.selected < len(operations)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectOp:
				m.prepareInputs()
				m.state = stateInputArgs

			case stateInputArgs:
				return m, m.convert

			case stateShowResult:
				m.state = stateSelectOp
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectOp
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectOp
				m.result = ""
				m.err = nil
			}
		}

	case convertResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *interactiveModel) prepareInputs() {
	op := operations[m.selected]
	m.inputs = make([]textinput.Model, len(op.fields))
	for i, f := range op.fields {
		ti := textinput.New()
		ti.Placeholder = f.hint
		ti.Prompt = f.name + ": "
		ti.SetValue(f.value)
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *interactiveModel) fieldValue(name string) string {
	op := operations[m.selected]
	for i, f := range op.fields {
		if f.name == name {
			return strings.TrimSpace(m.inputs[i].Value())
		}
	}
	return ""
}

func (m *interactiveModel) convert() tea.Msg {
	ctx := context.Background()
	op := operations[m.selected]

	endian, err := parseEndian(valueOr(m.fieldValue("endian"), "big"))
	if err != nil {
		return convertResultMsg{err: err}
	}
	delim, err := parseDelim(valueOr(m.fieldValue("delim"), ","))
	if err != nil {
		return convertResultMsg{err: err}
	}
	mask := uint64(0)
	if v := m.fieldValue("mask"); v != "" {
		mask, err = strconv.ParseUint(v, 0, 32)
		if err != nil {
			return convertResultMsg{err: fmt.Errorf("mask: %w", err)}
		}
	}

	engine, cleanup, err := buildEngine(ctx, m.engineFile)
	if err != nil {
		return convertResultMsg{err: err}
	}
	defer cleanup()
	cat := catalog.New(engine)

	req := bcsvbridge.Request{
		SourcePath: m.fieldValue("input"),
		HashPath:   m.fieldValue("names"),
		OutputPath: m.fieldValue("output"),
		Endian:     endian,
		Delimiter:  delim,
		Mask:       bcsvbridge.Mask(mask),
		Signed:     m.fieldValue("signed") == "true",
	}
	if req.SourcePath == "" {
		return convertResultMsg{err: fmt.Errorf("input path is required")}
	}

	switch op.name {
	case "export":
		if req.OutputPath == "" {
			return convertResultMsg{err: fmt.Errorf("export needs an output path")}
		}
		if err := cat.Export(ctx, req); err != nil {
			return convertResultMsg{err: err}
		}
		return convertResultMsg{result: "workbook written to " + req.OutputPath}

	default:
		convert := cat.Decode
		if op.name == "encode" {
			convert = cat.Encode
		}
		buf := convert(ctx, req)
		if buf == nil {
			return convertResultMsg{err: fmt.Errorf("%s failed", op.name)}
		}
		defer buf.Release()
		view, err := buf.View()
		if err != nil {
			return convertResultMsg{err: err}
		}

		if req.OutputPath != "" {
			if err := os.WriteFile(req.OutputPath, view, 0o644); err != nil {
				return convertResultMsg{err: err}
			}
			return convertResultMsg{result: fmt.Sprintf("%d bytes written to %s", len(view), req.OutputPath)}
		}
		return convertResultMsg{result: preview(op.name, view)}
	}
}

// preview renders a truncated view of a conversion result: text as-is for
// decode, a hex dump line for encode.
func preview(op string, data []byte) string {
	if len(data) == 0 {
		return "(empty result)"
	}

	truncated := false
	if len(data) > previewLimit {
		data = data[:previewLimit]
		truncated = true
	}

	var out string
	if op == "decode" {
		out = string(data)
	} else {
		out = fmt.Sprintf("% x", data)
	}
	if truncated {
		out += "\n…"
	}
	return out
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("bcsvconv"))
	if m.engineFile != "" {
		b.WriteString(" " + m.engineFile)
	}
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectOp:
		b.WriteString("Select an operation:\n\n")
		for i, op := range operations {
			line := opStyle.Render(op.name) + "  " + hintStyle.Render(op.desc)
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> ") + line)
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter configure • q quit"))

	case stateInputArgs:
		op := operations[m.selected]
		b.WriteString(fmt.Sprintf("Configure %s\n\n", opStyle.Render(op.name)))
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(hintStyle.Render(op.fields[i].hint))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter run • esc back"))

	case stateShowResult:
		op := operations[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", opStyle.Render(op.name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func runInteractive(engineFile string) error {
	p := tea.NewProgram(newInteractiveModel(engineFile), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
