package composer

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/Atuoha/Ghost/internal/domain"
)

// Template is the rendered email content handed to the delivery provider.
type Template struct {
	Subject   string
	HTML      string
	Plaintext string
}

// Replacement describes one personalization token found in the rendered
// body: the token literal to match, the member field the value comes from,
// and the fallback text used when the member has no value (or for previews).
type Replacement struct {
	ID       string
	Field    string
	Token    string
	Fallback string
}

// ValueFor resolves the replacement value for one member.
func (r Replacement) ValueFor(m *domain.Member) string {
	if m == nil {
		return r.Fallback
	}

	var value string
	switch r.Field {
	case "name":
		value = strings.TrimSpace(m.Name)
	case "first_name":
		value = firstName(m.Name)
	case "email":
		value = strings.TrimSpace(m.Email)
	}

	if value == "" {
		return r.Fallback
	}
	return value
}

// Composer renders a post into an email template plus the personalization
// tokens it contains. With preview=true every token is replaced by its
// fallback so the result is stable, member-independent content.
type Composer interface {
	Serialize(ctx context.Context, post *domain.Post, preview bool) (*Template, []Replacement, error)
}

var knownReplacements = []Replacement{
	{ID: "first_name", Field: "first_name", Token: "{first_name}", Fallback: "there"},
	{ID: "name", Field: "name", Token: "{name}", Fallback: "there"},
	{ID: "email", Field: "email", Token: "{email}", Fallback: ""},
}

var htmlTagPattern = regexp.MustCompile(`<[^>]*>`)

// PostComposer is the default composer. It uses the post body as-is and
// recognizes the {first_name}/{name}/{email} token set.
type PostComposer struct{}

func NewPostComposer() *PostComposer {
	return &PostComposer{}
}

func (c *PostComposer) Serialize(ctx context.Context, post *domain.Post, preview bool) (*Template, []Replacement, error) {
	if post == nil {
		return nil, nil, fmt.Errorf("%w: post is required", domain.ErrValidation)
	}
	if err := post.Validate(); err != nil {
		return nil, nil, err
	}

	plaintext := post.Plaintext
	if strings.TrimSpace(plaintext) == "" {
		plaintext = stripHTML(post.HTML)
	}

	template := &Template{
		Subject:   post.Title,
		HTML:      post.HTML,
		Plaintext: plaintext,
	}

	replacements := make([]Replacement, 0, len(knownReplacements))
	for _, candidate := range knownReplacements {
		if strings.Contains(template.HTML, candidate.Token) || strings.Contains(template.Plaintext, candidate.Token) {
			replacements = append(replacements, candidate)
		}
	}

	if preview {
		for _, r := range replacements {
			template.HTML = strings.ReplaceAll(template.HTML, r.Token, r.Fallback)
			template.Plaintext = strings.ReplaceAll(template.Plaintext, r.Token, r.Fallback)
		}
	}

	return template, replacements, nil
}

func firstName(name string) string {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return ""
	}
	return strings.Fields(trimmed)[0]
}

func stripHTML(html string) string {
	return strings.TrimSpace(htmlTagPattern.ReplaceAllString(html, ""))
}
