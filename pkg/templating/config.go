package templating

// TemplateConfig holds all configuration options for the templating engine.
type TemplateConfig struct {
	// UndefinedPlaceholder is written in place of a variable that is not set.
	// Loop keys also hold this value during the output-suppressed scan of a
	// loop over an empty collection.
	UndefinedPlaceholder string `json:"undefined_placeholder"`

	// MaxIncludeDepth caps how deeply include directives may nest. Exceeding
	// it fails the render, which is how include cycles surface.
	MaxIncludeDepth int `json:"max_include_depth"`
}

// DefaultConfig returns a TemplateConfig with safe default values.
func DefaultConfig() *TemplateConfig {
	return &TemplateConfig{
		UndefinedPlaceholder: "UNDEFINED",
		MaxIncludeDepth:      32,
	}
}

// normalized fills zero values with defaults.
func (c TemplateConfig) normalized() TemplateConfig {
	def := DefaultConfig()
	if c.UndefinedPlaceholder == "" {
		c.UndefinedPlaceholder = def.UndefinedPlaceholder
	}
	if c.MaxIncludeDepth <= 0 {
		c.MaxIncludeDepth = def.MaxIncludeDepth
	}
	return c
}
