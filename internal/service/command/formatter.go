package command

import (
	"fmt"
	"strings"

	"github.com/sandevgo/dissonance/internal/service/ui"
)

type ResponseFormatter struct{}

func NewResponseFormatter() *ResponseFormatter {
	return &ResponseFormatter{}
}

func (f *ResponseFormatter) Info(title string) string {
	return ui.TitleStyle.Render(title) + "\n"
}

func (f *ResponseFormatter) Success(message string) string {
	return ui.UsageStyle.Render("✓ "+message) + "\n"
}

func (f *ResponseFormatter) Error(err error) string {
	return ui.ErrorStyle.Render("✗ "+err.Error()) + "\n"
}

func (f *ResponseFormatter) Label(label, value string) string {
	return fmt.Sprintf("%s  ›  %s\n", ui.DescStyle.Render(label), value)
}

func (f *ResponseFormatter) Usage(command string) string {
	return fmt.Sprintf("%s %s\n", ui.DescStyle.Render("Usage:"), ui.UsageStyle.Render(command))
}

func (f *ResponseFormatter) Examples(examples []string) string {
	var sb strings.Builder
	sb.WriteString(ui.DescStyle.Render("Examples:") + "\n")
	for _, ex := range examples {
		sb.WriteString("  " + ui.UsageStyle.Render(ex) + "\n")
	}
	return sb.String()
}

func (f *ResponseFormatter) List(items []string) string {
	var sb strings.Builder
	for _, item := range items {
		sb.WriteString(fmt.Sprintf("› %s\n", item))
	}
	return sb.String()
}

func (f *ResponseFormatter) Tip(text string) string {
	return fmt.Sprintf("%s %s\n", ui.FlagStyle.Render("Tip:"), text)
}

func (f *ResponseFormatter) Combine(sections ...string) string {
	return strings.Join(sections, "")
}
