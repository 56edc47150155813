package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLayout(); err != nil {
		return err
	}
	if err := c.validateTranscribe(); err != nil {
		return err
	}
	if err := c.validateTranslate(); err != nil {
		return err
	}
	if err := c.validateDanmaku(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validatePublish(); err != nil {
		return err
	}
	return nil
}

func validateStyle(name string, s Style) error {
	if s.Font == "" {
		return fmt.Errorf("layout.%s.font must be set", name)
	}
	if s.Size <= 0 {
		return fmt.Errorf("layout.%s.size must be positive", name)
	}
	if s.Alignment < 1 || s.Alignment > 9 {
		return fmt.Errorf("layout.%s.alignment must be between 1 and 9", name)
	}
	if s.MarginL < 0 || s.MarginR < 0 || s.MarginV < 0 {
		return fmt.Errorf("layout.%s margins must not be negative", name)
	}
	return nil
}

func (c *Config) validateLayout() error {
	if err := validateStyle("chinese", c.Layout.Chinese); err != nil {
		return err
	}
	if err := validateStyle("english", c.Layout.English); err != nil {
		return err
	}
	if c.Layout.WatermarkText != "" {
		if err := validateStyle("watermark", c.Layout.Watermark); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateTranscribe() error {
	switch c.Transcribe.Provider {
	case "local", "openai":
		return nil
	default:
		return fmt.Errorf("transcribe.provider must be local or openai, got %q", c.Transcribe.Provider)
	}
}

func (c *Config) validateTranslate() error {
	switch c.Translate.Provider {
	case "manual", "openai", "anthropic", "gemini":
	default:
		return fmt.Errorf("translate.provider must be manual, openai, anthropic or gemini, got %q", c.Translate.Provider)
	}
	if c.Translate.SourceLanguage == c.Translate.TargetLanguage {
		return errors.New("translate.source_language and translate.target_language must differ")
	}
	return nil
}

func (c *Config) validateDanmaku() error {
	switch c.Danmaku.Density {
	case "low", "medium", "high":
		return nil
	default:
		return fmt.Errorf("danmaku.density must be low, medium or high, got %q", c.Danmaku.Density)
	}
}

func (c *Config) validateRender() error {
	if c.Render.CRF < 0 || c.Render.CRF > 51 {
		return fmt.Errorf("render.crf must be between 0 and 51, got %d", c.Render.CRF)
	}
	for _, v := range c.Render.Variants {
		switch v {
		case "bilingual", "chinese", "danmaku":
		default:
			return fmt.Errorf("render.variants: unknown variant %q", v)
		}
	}
	return nil
}

func (c *Config) validatePublish() error {
	if !c.Publish.Enabled() {
		return nil
	}
	if c.Publish.Bucket == "" {
		return errors.New("publish.bucket is required when publish.endpoint is set")
	}
	return nil
}
