package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*.yaml
var templateFS embed.FS

// PromptProvider renders a named prompt variant with the given data.
type PromptProvider interface {
	BuildPrompt(mode, variant string, data interface{}) (string, error)
	GetTemplates() map[string]map[string]*template.Template
}

type PromptManager struct {
	templates map[string]map[string]*template.Template // mode -> variant -> compiled prompt
}

// PromptTemplate is the on-disk shape of templates/<mode>.yaml.
type PromptTemplate struct {
	BasePrompt string            `yaml:"base_prompt"`
	Variants   map[string]string `yaml:"variants"`
}

func NewPromptManager() (*PromptManager, error) {
	pm := &PromptManager{
		templates: make(map[string]map[string]*template.Template),
	}

	if err := pm.loadPrompts(); err != nil {
		return nil, fmt.Errorf("failed to load prompt templates: %w", err)
	}

	return pm, nil
}

// BuildPrompt renders mode/variant; the result is trimmed of surrounding whitespace.
func (pm *PromptManager) BuildPrompt(mode, variant string, data interface{}) (string, error) {
	modeTemplates, exists := pm.templates[mode]
	if !exists {
		return "", fmt.Errorf("template not found for mode: %s", mode)
	}

	tmpl, exists := modeTemplates[variant]
	if !exists {
		return "", fmt.Errorf("variant '%s' not found for mode '%s'", variant, mode)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s/%s: %w", mode, variant, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func (pm *PromptManager) GetTemplates() map[string]map[string]*template.Template {
	return pm.templates
}

// prompt modes and variants shipped in templates/
const (
	ModeQuestions   = "questions"
	ModeFeedback    = "feedback"
	ModeInterviewer = "interviewer"

	VariantDefault      = "default"
	VariantFirstMessage = "first_message"
)

var funcs = template.FuncMap{
	"lower": strings.ToLower,
	"inc":   func(i int) int { return i + 1 },
}

func (pm *PromptManager) loadPrompts() error {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return fmt.Errorf("failed to read templates directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		mode := strings.TrimSuffix(entry.Name(), ".yaml")
		variants, err := compileFile(mode, "templates/"+entry.Name())
		if err != nil {
			return err
		}
		pm.templates[mode] = variants
	}
	return nil
}

// compileFile prefixes every variant with the file's base_prompt. Unknown keys in the
// render data are errors so a renamed field cannot silently produce an empty prompt.
func compileFile(mode, path string) (map[string]*template.Template, error) {
	raw, err := templateFS.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template file %s: %w", path, err)
	}

	var file PromptTemplate
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("failed to parse template file %s: %w", path, err)
	}

	compiled := make(map[string]*template.Template, len(file.Variants))
	for variant, body := range file.Variants {
		if file.BasePrompt != "" {
			body = file.BasePrompt + "\n\n" + body
		}
		tmpl, err := template.New(mode + "/" + variant).Funcs(funcs).Option("missingkey=error").Parse(body)
		if err != nil {
			return nil, fmt.Errorf("failed to compile %s/%s: %w", mode, variant, err)
		}
		compiled[variant] = tmpl
	}
	return compiled, nil
}
