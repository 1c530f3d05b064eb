package cli

import (
	"fmt"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/linuxmatters/spectrograph/internal/audio"
	"github.com/linuxmatters/spectrograph/internal/renderer"
)

// Custom help styles - spectrogram theme
var (
	helpTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Magenta).
			MarginBottom(1)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(Rose).
			Italic(true).
			MarginBottom(1)

	helpSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(Rose).
				MarginTop(1)

	helpFlagStyle = lipgloss.NewStyle().
			Foreground(Hot).
			Bold(true)

	helpArgStyle = lipgloss.NewStyle().
			Foreground(Magenta).
			Bold(true)

	helpDefaultStyle = lipgloss.NewStyle().
				Foreground(Mauve).
				Italic(true)
)

// StyledHelpPrinter creates a custom help printer with Lipgloss styling.
// Ungrouped flags are listed first, then each kong group under its title.
func StyledHelpPrinter(options kong.HelpOptions) kong.HelpPrinter {
	return kong.HelpPrinter(func(options kong.HelpOptions, ctx *kong.Context) error {
		var sb strings.Builder

		// Title and description
		sb.WriteString(helpTitleStyle.Render(AppName))
		sb.WriteString("\n")
		sb.WriteString(helpDescStyle.Render(AppDescription))
		sb.WriteString("\n")

		// Usage
		sb.WriteString(helpSectionStyle.Render("Usage:"))
		sb.WriteString("\n  ")
		sb.WriteString(fmt.Sprintf("%s <input> [<output>] [flags]", ctx.Model.Name))
		sb.WriteString("\n")

		args := getArguments(ctx)
		sections := getFlagSections(ctx)

		// One column width for every section keeps help text aligned
		width := 0
		for _, arg := range args {
			width = max(width, len(arg.name))
		}
		for _, sec := range sections {
			for _, f := range sec.flags {
				width = max(width, len(f.flags))
			}
		}

		if len(args) > 0 {
			sb.WriteString("\n")
			sb.WriteString(helpSectionStyle.Render("Arguments:"))
			sb.WriteString("\n")
			for _, arg := range args {
				writeRow(&sb, helpArgStyle, arg.name, width, arg.help, "")
			}
		}

		for _, sec := range sections {
			sb.WriteString("\n")
			sb.WriteString(helpSectionStyle.Render(sec.title))
			sb.WriteString("\n")
			for _, f := range sec.flags {
				writeRow(&sb, helpFlagStyle, f.flags, width, f.help, f.defaultVal)
			}
		}

		// Formats section
		sb.WriteString("\n")
		sb.WriteString(helpSectionStyle.Render("Formats:"))
		sb.WriteString("\n")
		writeRow(&sb, helpArgStyle, "input", width, strings.Join(audio.SupportedExts(), " "), "")
		writeRow(&sb, helpArgStyle, "output", width, strings.Join(renderer.SupportedExts(), " "), "")

		sb.WriteString("\n")
		fmt.Fprint(ctx.Stdout, sb.String())
		return nil
	})
}

// writeRow writes one indented name/help line, padding name to width before
// styling so escape codes do not upset the alignment.
func writeRow(sb *strings.Builder, style lipgloss.Style, name string, width int, help, defaultVal string) {
	sb.WriteString("  ")
	sb.WriteString(style.Render(name))
	if help != "" || defaultVal != "" {
		sb.WriteString(strings.Repeat(" ", width-len(name)+2))
	}
	sb.WriteString(help)
	if defaultVal != "" {
		sb.WriteString(" ")
		sb.WriteString(helpDefaultStyle.Render("(default: " + defaultVal + ")"))
	}
	sb.WriteString("\n")
}

type argument struct {
	name string
	help string
}

type flag struct {
	flags      string
	help       string
	defaultVal string
}

type flagSection struct {
	title string
	flags []flag
}

func getArguments(ctx *kong.Context) []argument {
	var args []argument

	for _, arg := range ctx.Model.Node.Positional {
		args = append(args, argument{name: arg.Summary(), help: arg.Help})
	}

	return args
}

// getFlagSections returns the ungrouped flags under "Flags:" followed by one
// section per group, in declaration order.
func getFlagSections(ctx *kong.Context) []flagSection {
	sections := []flagSection{{
		title: "Flags:",
		flags: []flag{{flags: "-h, --help", help: "Show context-sensitive help."}},
	}}
	index := map[string]int{}

	for _, f := range ctx.Model.Node.Flags {
		if f.Name == "help" || f.Hidden {
			continue
		}

		i := 0
		if f.Group != nil {
			var ok bool
			if i, ok = index[f.Group.Key]; !ok {
				i = len(sections)
				index[f.Group.Key] = i
				sections = append(sections, flagSection{title: f.Group.Title})
			}
		}
		sections[i].flags = append(sections[i].flags, describeFlag(f))
	}

	return sections
}

func describeFlag(f *kong.Flag) flag {
	flagStr := "--" + f.Name
	if f.Short != 0 {
		flagStr = fmt.Sprintf("-%c, --%s", f.Short, f.Name)
	}
	if !f.IsBool() && f.PlaceHolder != "" {
		flagStr += "=" + strings.ToUpper(f.PlaceHolder)
	}

	// Only show meaningful defaults; zero worker counts are explained in the help
	defaultVal := ""
	if f.HasDefault && !f.IsBool() && f.Default != "" && f.Default != "0" {
		defaultVal = f.Default
	}

	return flag{flags: flagStr, help: f.Help, defaultVal: defaultVal}
}
