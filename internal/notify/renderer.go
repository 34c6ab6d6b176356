package notify

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"sync"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"
)

//go:embed templates
var embedded embed.FS

const layoutName = "layout.html"

// Renderer turns Markdown templates into HTML e-mails.
type Renderer struct {
	fs     fs.FS
	md     goldmark.Markdown
	layout *template.Template
	cache  map[string]*parsedTemplate
	mu     sync.RWMutex
}

type parsedTemplate struct {
	body    *texttemplate.Template
	subject *texttemplate.Template
}

type frontMatter struct {
	Subject string `yaml:"subject"`
}

// NewRenderer creates a renderer over the built-in templates.
func NewRenderer() (*Renderer, error) {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, err
	}
	return NewRendererFS(sub)
}

// NewRendererFS creates a renderer over templates in fsys, which must also
// contain layout.html.
func NewRendererFS(fsys fs.FS) (*Renderer, error) {
	raw, err := fs.ReadFile(fsys, layoutName)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateNotFound, layoutName, err)
	}
	layout, err := template.New(layoutName).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRenderFailed, layoutName, err)
	}
	return &Renderer{
		fs:     fsys,
		md:     goldmark.New(),
		layout: layout,
		cache:  make(map[string]*parsedTemplate),
	}, nil
}

// Render renders msg into an Email.
func (r *Renderer) Render(msg Message) (*Email, error) {
	t, err := r.template(msg.Template)
	if err != nil {
		return nil, err
	}

	var subject, text bytes.Buffer
	if err := t.subject.Execute(&subject, msg.Data); err != nil {
		return nil, fmt.Errorf("%w: subject: %v", ErrRenderFailed, err)
	}
	if err := t.body.Execute(&text, msg.Data); err != nil {
		return nil, fmt.Errorf("%w: body: %v", ErrRenderFailed, err)
	}

	var content bytes.Buffer
	if err := r.md.Convert(text.Bytes(), &content); err != nil {
		return nil, fmt.Errorf("%w: markdown: %v", ErrRenderFailed, err)
	}

	var html bytes.Buffer
	if err := r.layout.Execute(&html, map[string]any{
		"Subject": subject.String(),
		"Content": template.HTML(content.String()),
	}); err != nil {
		return nil, fmt.Errorf("%w: layout: %v", ErrRenderFailed, err)
	}

	return &Email{
		To:      msg.To,
		Subject: subject.String(),
		HTML:    html.String(),
		Text:    text.String(),
	}, nil
}

func (r *Renderer) template(name string) (*parsedTemplate, error) {
	r.mu.RLock()
	t, ok := r.cache[name]
	r.mu.RUnlock()
	if ok {
		return t, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if t, ok := r.cache[name]; ok {
		return t, nil
	}

	raw, err := fs.ReadFile(r.fs, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrTemplateNotFound, name, err)
	}
	meta, body, err := splitFrontMatter(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	t = &parsedTemplate{}
	if t.body, err = texttemplate.New(name).Option("missingkey=zero").Parse(body); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrRenderFailed, name, err)
	}
	if t.subject, err = texttemplate.New(name + ":subject").Parse(meta.Subject); err != nil {
		return nil, fmt.Errorf("%w: %s subject: %v", ErrRenderFailed, name, err)
	}
	r.cache[name] = t
	return t, nil
}

// splitFrontMatter separates a leading "---" delimited YAML block from the
// Markdown body. Content without front matter is all body.
func splitFrontMatter(content []byte) (frontMatter, string, error) {
	var meta frontMatter
	delimiter := []byte("---")

	if !bytes.HasPrefix(content, delimiter) {
		return meta, string(content), nil
	}

	rest := bytes.TrimLeft(bytes.TrimPrefix(content, delimiter), "\r\n")
	end := bytes.Index(rest, delimiter)
	if end == -1 {
		return meta, "", fmt.Errorf("%w: closing delimiter not found", ErrInvalidFrontmatter)
	}

	if err := yaml.Unmarshal(rest[:end], &meta); err != nil {
		return meta, "", fmt.Errorf("%w: %v", ErrInvalidFrontmatter, err)
	}

	body := bytes.TrimPrefix(rest[end+len(delimiter):], []byte("\r"))
	body = bytes.TrimPrefix(body, []byte("\n"))
	return meta, string(body), nil
}
