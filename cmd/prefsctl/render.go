package main

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"recprefs/internal/api"
	"recprefs/internal/client"
	"recprefs/internal/feed"
	"recprefs/internal/settings"
)

type theme struct {
	name    lipgloss.Style
	value   lipgloss.Style
	muted   lipgloss.Style
	warning lipgloss.Style
}

func newTheme(plain bool) theme {
	if plain {
		s := lipgloss.NewStyle()
		return theme{name: s, value: s, muted: s, warning: s}
	}
	return theme{
		name:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#cba6f7")),
		value:   lipgloss.NewStyle().Foreground(lipgloss.Color("#cdd6f4")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6c7086")),
		warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#f9e2af")),
	}
}

// pairs renders aligned "name  value" lines
func (t theme) pairs(w io.Writer, rows [][2]string) {
	width := 0
	for _, r := range rows {
		width = max(width, lipgloss.Width(r[0]))
	}
	names := make([]string, 0, len(rows))
	values := make([]string, 0, len(rows))
	for _, r := range rows {
		names = append(names, t.name.Width(width+2).Render(r[0]))
		v := r[1]
		if v == "" {
			values = append(values, t.muted.Render("(unset)"))
		} else {
			values = append(values, t.value.Render(v))
		}
	}
	fmt.Fprintln(w, lipgloss.JoinHorizontal(lipgloss.Top,
		strings.Join(names, "\n"),
		strings.Join(values, "\n"),
	))
}

func (t theme) settings(w io.Writer, list []api.SettingResponse) {
	rows := make([][2]string, 0, len(list))
	for _, s := range list {
		rows = append(rows, [2]string{string(s.Name), client.Value(s)})
	}
	t.pairs(w, rows)
}

func (t theme) setting(w io.Writer, s api.SettingResponse, verbose bool) {
	rows := [][2]string{{string(s.Name), client.Value(s)}}
	if verbose {
		def := client.Value(api.SettingResponse{Name: s.Name, Value: s.Default})
		rows = append(rows, [2]string{"kind", s.Kind}, [2]string{"default", def})
		if len(s.Choices) > 0 {
			choices := make([]string, 0, len(s.Choices))
			for _, c := range s.Choices {
				choices = append(choices, fmt.Sprint(c))
			}
			rows = append(rows, [2]string{"choices", strings.Join(choices, " | ")})
		}
	}
	t.pairs(w, rows)
}

func (t theme) hotkeys(w io.Writer, bound map[string]string) {
	rows := make([][2]string, 0, len(bound))
	for _, action := range settings.HotkeyActions {
		rows = append(rows, [2]string{action, bound[action]})
	}
	t.pairs(w, rows)
}

func (t theme) apps(w io.Writer, apps []string) {
	if len(apps) == 0 {
		fmt.Fprintln(w, t.muted.Render("no excluded applications"))
		return
	}
	apps = slices.Clone(apps)
	slices.Sort(apps)
	for _, id := range apps {
		fmt.Fprintln(w, t.value.Render(id))
	}
}

func (t theme) warn(w io.Writer, msg string) {
	fmt.Fprintln(w, t.warning.Render("warning: "+msg))
}

// change renders one feed message as a single line
func (t theme) change(w io.Writer, msg feed.Message) {
	switch msg.Type {
	case feed.TypeHello:
		fmt.Fprintln(w, t.muted.Render(fmt.Sprintf("connected as %s, %d settings", msg.ClientID, len(msg.Settings))))
	case feed.TypeChanged:
		value := string(msg.Value)
		if v, err := msg.Decode(); err == nil {
			value = settings.FormatValue(v)
		}
		line := t.name.Render(string(msg.Name)) + " = " + t.value.Render(value)
		if msg.Cause != "" && msg.Cause != msg.Name {
			line += t.muted.Render(" (via " + string(msg.Cause) + ")")
		}
		fmt.Fprintln(w, msg.At.Format("15:04:05")+" "+line)
	}
}
