package tui

import (
	"fmt"
	"sort"
	"sync"

	"github.com/AlecAivazis/survey/v2"
	theme "github.com/goliatone/go-theme"
)

// Token keys read from a theme manifest.
const (
	TokenPromptIcon    = "tui.prompt.icon"
	TokenHelpIcon      = "tui.help.icon"
	TokenInfoPrefix    = "tui.notice.info"
	TokenErrorPrefix   = "tui.notice.error"
	TokenSuccessPrefix = "tui.notice.success"
)

// DefaultThemeName names the built-in manifest.
const DefaultThemeName = "formdraft"

// Theme is the resolved terminal styling.
type Theme struct {
	Name          string
	Variant       string
	PromptIcon    string
	HelpIcon      string
	InfoPrefix    string
	ErrorPrefix   string
	SuccessPrefix string
}

// Icons returns the survey icon override for the theme.
func (t Theme) Icons() func(*survey.IconSet) {
	return func(icons *survey.IconSet) {
		if t.PromptIcon != "" {
			icons.Question.Text = t.PromptIcon
		}
		if t.HelpIcon != "" {
			icons.Help.Text = t.HelpIcon
		}
	}
}

// DefaultManifest is the built-in theme. The "plain" variant drops the
// decorations for terminals without unicode.
func DefaultManifest() *theme.Manifest {
	return &theme.Manifest{
		Name:    DefaultThemeName,
		Version: "1.0.0",
		Tokens: map[string]string{
			TokenPromptIcon:    "?",
			TokenHelpIcon:      "i",
			TokenInfoPrefix:    "•",
			TokenErrorPrefix:   "✗",
			TokenSuccessPrefix: "✓",
		},
		Variants: map[string]theme.Variant{
			"plain": {
				Tokens: map[string]string{
					TokenInfoPrefix:    "-",
					TokenErrorPrefix:   "!",
					TokenSuccessPrefix: "+",
				},
			},
		},
	}
}

type manifestRegistrar interface {
	Register(*theme.Manifest) error
}

// ManifestSelector resolves themes from registered manifests. Manifests are
// also registered with a go-theme registry, which validates them.
type ManifestSelector struct {
	mu        sync.RWMutex
	registry  manifestRegistrar
	manifests map[string]*theme.Manifest
}

var _ theme.ThemeSelector = (*ManifestSelector)(nil)

// NewManifestSelector returns a selector preloaded with the default manifest
// and any extra manifests.
func NewManifestSelector(manifests ...*theme.Manifest) (*ManifestSelector, error) {
	s := &ManifestSelector{
		registry:  theme.NewRegistry(),
		manifests: make(map[string]*theme.Manifest),
	}
	for _, m := range append([]*theme.Manifest{DefaultManifest()}, manifests...) {
		if err := s.Register(m); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Register adds or replaces a manifest.
func (s *ManifestSelector) Register(m *theme.Manifest) error {
	if m == nil || m.Name == "" {
		return fmt.Errorf("tui: manifest requires a name")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.manifests[m.Name]; !exists {
		if err := s.registry.Register(m); err != nil {
			return fmt.Errorf("tui: register theme %s: %w", m.Name, err)
		}
	}
	s.manifests[m.Name] = m
	return nil
}

// Names lists the registered themes.
func (s *ManifestSelector) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.manifests))
	for name := range s.manifests {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Select resolves name and variant. An empty name selects the default theme
// and an unknown variant is an error.
func (s *ManifestSelector) Select(name, variant string, _ ...theme.QueryOption) (*theme.Selection, error) {
	if name == "" {
		name = DefaultThemeName
	}
	s.mu.RLock()
	m, ok := s.manifests[name]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTheme, name)
	}
	if variant != "" {
		if _, ok := m.Variants[variant]; !ok {
			return nil, fmt.Errorf("%w: %s/%s", ErrUnknownTheme, name, variant)
		}
	}
	return &theme.Selection{Theme: name, Variant: variant, Manifest: m}, nil
}

// RendererConfig flattens a selection, variant tokens winning over the base
// ones.
func RendererConfig(sel *theme.Selection) *theme.RendererConfig {
	if sel == nil || sel.Manifest == nil {
		return nil
	}
	tokens := make(map[string]string, len(sel.Manifest.Tokens))
	for k, v := range sel.Manifest.Tokens {
		tokens[k] = v
	}
	if variant, ok := sel.Manifest.Variants[sel.Variant]; ok {
		for k, v := range variant.Tokens {
			tokens[k] = v
		}
	}
	vars := make(map[string]string, len(tokens))
	for k, v := range tokens {
		vars["--"+k] = v
	}
	return &theme.RendererConfig{
		Theme:   sel.Theme,
		Variant: sel.Variant,
		Tokens:  tokens,
		CSSVars: vars,
	}
}

// ThemeFromConfig reads the terminal tokens out of cfg. A nil cfg yields the
// default theme.
func ThemeFromConfig(cfg *theme.RendererConfig) Theme {
	if cfg == nil {
		cfg = RendererConfig(&theme.Selection{Theme: DefaultThemeName, Manifest: DefaultManifest()})
	}
	return Theme{
		Name:          cfg.Theme,
		Variant:       cfg.Variant,
		PromptIcon:    cfg.Tokens[TokenPromptIcon],
		HelpIcon:      cfg.Tokens[TokenHelpIcon],
		InfoPrefix:    cfg.Tokens[TokenInfoPrefix],
		ErrorPrefix:   cfg.Tokens[TokenErrorPrefix],
		SuccessPrefix: cfg.Tokens[TokenSuccessPrefix],
	}
}

// ResolveTheme selects name/variant from sel and returns the terminal theme.
func ResolveTheme(sel theme.ThemeSelector, name, variant string) (Theme, error) {
	selection, err := sel.Select(name, variant)
	if err != nil {
		return Theme{}, err
	}
	return ThemeFromConfig(RendererConfig(selection)), nil
}
