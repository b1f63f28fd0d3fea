// Package generator adapts an external program (usually an LLM CLI) into a
// ports.Generator. The prompt is written to the program's stdin and the
// command is extracted from what it prints.
package generator

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"text/template"

	"github.com/cockroachdb/errors"

	"github.com/doeshing/qa/internal/domain"
	"github.com/doeshing/qa/internal/ports"
)

const defaultPrompt = `You translate requests into a single shell command.
Reply with the command only.
{{- if .Rules}}

{{.Rules}}
{{- end}}

Request: {{.Query}}
`

var promptTemplate = template.Must(template.New("prompt").Parse(defaultPrompt))

// CommandGenerator runs Command with Args for each request.
type CommandGenerator struct {
	Command string
	Args    []string
}

// New returns nil when no command is configured, so callers can treat a
// missing generator as a plain nil interface.
func New(settings domain.GeneratorSettings) ports.Generator {
	if strings.TrimSpace(settings.Command) == "" {
		return nil
	}
	return &CommandGenerator{Command: settings.Command, Args: settings.Args}
}

// Name implements ports.Generator.
func (g *CommandGenerator) Name() string {
	return g.Command
}

// Generate implements ports.Generator.
func (g *CommandGenerator) Generate(ctx context.Context, req ports.GenerateRequest) (string, error) {
	prompt, err := RenderPrompt(req)
	if err != nil {
		return "", err
	}

	c := exec.CommandContext(ctx, g.Command, g.Args...)
	c.Stdin = strings.NewReader(prompt)
	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr
	if err := c.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return "", errors.Wrapf(err, "generator %s: %s", g.Command, msg)
		}
		return "", errors.Wrapf(err, "generator %s", g.Command)
	}

	command := ExtractCommand(stdout.String())
	if command == "" {
		return "", errors.Newf("generator %s returned no command", g.Command)
	}
	return command, nil
}

// RenderPrompt builds the generator input: rule text followed by the query.
func RenderPrompt(req ports.GenerateRequest) (string, error) {
	var b bytes.Buffer
	data := struct {
		Rules string
		Query string
	}{
		Rules: strings.TrimSpace(req.Rules.Format()),
		Query: strings.TrimSpace(req.Query),
	}
	if err := promptTemplate.Execute(&b, data); err != nil {
		return "", errors.Wrap(err, "render prompt")
	}
	return b.String(), nil
}

// ExtractCommand pulls a shell command out of free-form generator output. It
// tries, in order, the first fenced code block, a "command:" line, then the
// whole trimmed output.
func ExtractCommand(content string) string {
	if code := extractCodeBlock(content); code != "" {
		return code
	}
	if cmd := extractCommandLine(content); cmd != "" {
		return cmd
	}
	return strings.TrimSpace(content)
}

func extractCodeBlock(content string) string {
	start := strings.Index(content, "```")
	if start == -1 {
		return ""
	}
	suffix := content[start+3:]
	end := strings.Index(suffix, "```")
	if end == -1 {
		return ""
	}
	lines := strings.Split(suffix[:end], "\n")
	// language marker
	if len(lines) > 1 && !strings.ContainsAny(lines[0], " \t") {
		switch strings.TrimSpace(lines[0]) {
		case "", "sh", "bash", "zsh", "shell", "console":
			lines = lines[1:]
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func extractCommandLine(content string) string {
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(strings.ToLower(line), "command:") {
			return strings.TrimSpace(line[len("command:"):])
		}
	}
	return ""
}
