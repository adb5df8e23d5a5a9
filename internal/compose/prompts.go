package compose

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed prompts/daily.txt
var dailyPrompt string

//go:embed prompts/band.txt
var bandPrompt string

//go:embed prompts/rules.txt
var rulesPrompt string

//go:embed prompts/post-user.txt
var postUserPrompt string

//go:embed prompts/reply-system.txt
var replySystemPrompt string

//go:embed prompts/image.tmpl
var imageDirectiveTemplate string

//go:embed prompts/reply-user.tmpl
var replyUserTemplate string

var (
	imageDirectiveTmpl = template.Must(template.New("image").Parse(imageDirectiveTemplate))
	replyUserTmpl      = template.Must(template.New("reply").Parse(replyUserTemplate))
)

// SystemPrompt assembles the post system prompt for mode, adding the image
// directive only when imageContext is non-empty.
func SystemPrompt(mode Mode, imageContext string) (string, error) {
	var b strings.Builder
	if mode == ModeBand {
		b.WriteString(bandPrompt)
	} else {
		b.WriteString(dailyPrompt)
	}
	b.WriteString(rulesPrompt)
	if strings.TrimSpace(imageContext) != "" {
		directive, err := render(imageDirectiveTmpl, struct{ ImageContext string }{imageContext})
		if err != nil {
			return "", err
		}
		b.WriteString(directive)
	}
	return b.String(), nil
}

// UserPrompt is the fixed instruction to write exactly one post.
func UserPrompt() string {
	return strings.TrimSpace(postUserPrompt)
}

func replyPrompt(original string) (string, error) {
	return render(replyUserTmpl, struct{ Original string }{original})
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
