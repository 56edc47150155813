package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLayout()
	c.normalizeDownload()
	c.normalizeTranscribe()
	c.normalizeTranslate()
	c.normalizeDanmaku()
	c.normalizeRender()
	c.normalizePublish()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.OutputRoot) == "" {
		c.Paths.OutputRoot = defaultOutputRoot
	}
	if c.Paths.OutputRoot, err = expandPath(c.Paths.OutputRoot); err != nil {
		return fmt.Errorf("paths.output_root: %w", err)
	}
	if c.Paths.CacheDB, err = expandPath(strings.TrimSpace(c.Paths.CacheDB)); err != nil {
		return fmt.Errorf("paths.cache_db: %w", err)
	}
	if c.Paths.WatermarkPNG, err = expandPath(strings.TrimSpace(c.Paths.WatermarkPNG)); err != nil {
		return fmt.Errorf("paths.watermark_png: %w", err)
	}
	return nil
}

func (c *Config) normalizeLayout() {
	l := &c.Layout
	if l.PlayResX <= 0 {
		l.PlayResX = defaultPlayResX
	}
	if l.PlayResY <= 0 {
		l.PlayResY = defaultPlayResY
	}
	if strings.TrimSpace(l.PrimaryColour) == "" {
		l.PrimaryColour = defaultPrimaryColour
	}
	if strings.TrimSpace(l.OutlineColour) == "" {
		l.OutlineColour = defaultOutlineColour
	}
	if strings.TrimSpace(l.BackColour) == "" {
		l.BackColour = defaultBackColour
	}
	if l.ChineseOnlyMarginV <= 0 {
		l.ChineseOnlyMarginV = defaultChineseMargin
	}
	l.Chinese.Font = strings.TrimSpace(l.Chinese.Font)
	l.English.Font = strings.TrimSpace(l.English.Font)
	l.Watermark.Font = strings.TrimSpace(l.Watermark.Font)
	l.WatermarkText = strings.TrimSpace(l.WatermarkText)
}

func (c *Config) normalizeDownload() {
	c.Download.Binary = strings.TrimSpace(c.Download.Binary)
	if c.Download.Binary == "" {
		c.Download.Binary = defaultYTDLPBinary
	}
	c.Download.Format = strings.TrimSpace(c.Download.Format)
	if c.Download.Format == "" {
		c.Download.Format = defaultYTDLPFormat
	}
	if c.Download.TimeoutSeconds <= 0 {
		c.Download.TimeoutSeconds = defaultYTDLPTimeout
	}
}

func (c *Config) normalizeTranscribe() {
	c.Transcribe.Provider = strings.ToLower(strings.TrimSpace(c.Transcribe.Provider))
	if c.Transcribe.Provider == "" {
		c.Transcribe.Provider = "local"
	}
	c.Transcribe.WhisperBinary = strings.TrimSpace(c.Transcribe.WhisperBinary)
	if c.Transcribe.WhisperBinary == "" {
		c.Transcribe.WhisperBinary = defaultWhisperBinary
	}
	if c.Transcribe.ChunkMinutes <= 0 {
		c.Transcribe.ChunkMinutes = defaultChunkMinutes
	}
	if c.Transcribe.Concurrency <= 0 {
		c.Transcribe.Concurrency = defaultConcurrency
	}
	c.Transcribe.AudioFilter = strings.TrimSpace(c.Transcribe.AudioFilter)
}

func (c *Config) normalizeTranslate() {
	c.Translate.Provider = strings.ToLower(strings.TrimSpace(c.Translate.Provider))
	if c.Translate.Provider == "" {
		c.Translate.Provider = defaultTranslateProvider
	}
	if strings.TrimSpace(c.Translate.SourceLanguage) == "" {
		c.Translate.SourceLanguage = defaultSourceLanguage
	}
	if strings.TrimSpace(c.Translate.TargetLanguage) == "" {
		c.Translate.TargetLanguage = defaultTargetLanguage
	}
	if c.Translate.BatchSize <= 0 {
		c.Translate.BatchSize = defaultBatchSize
	}
	if c.Translate.Concurrency <= 0 {
		c.Translate.Concurrency = defaultConcurrency
	}
	if c.Translate.ManualTimeoutSeconds <= 0 {
		c.Translate.ManualTimeoutSeconds = defaultManualTimeout
	}
	if c.Translate.PollIntervalSeconds <= 0 {
		c.Translate.PollIntervalSeconds = defaultPollInterval
	}
}

func (c *Config) normalizeDanmaku() {
	c.Danmaku.Density = strings.ToLower(strings.TrimSpace(c.Danmaku.Density))
	if c.Danmaku.Density == "" {
		c.Danmaku.Density = defaultDensity
	}
	if c.Danmaku.MinGapSeconds <= 0 {
		c.Danmaku.MinGapSeconds = defaultMinGapSeconds
	}
	if c.Danmaku.DisplaySeconds <= 0 {
		c.Danmaku.DisplaySeconds = defaultDisplaySeconds
	}
	if strings.TrimSpace(c.Danmaku.Font) == "" {
		c.Danmaku.Font = defaultDanmakuFont
	}
	if c.Danmaku.FontSize <= 0 {
		c.Danmaku.FontSize = defaultDanmakuFontSize
	}
}

func (c *Config) normalizeRender() {
	c.Render.Preset = strings.TrimSpace(c.Render.Preset)
	if c.Render.Preset == "" {
		c.Render.Preset = defaultPreset
	}
	if strings.TrimSpace(c.Render.AudioBitrate) == "" {
		c.Render.AudioBitrate = defaultAudioBitrate
	}
	if c.Render.Parallel <= 0 {
		c.Render.Parallel = defaultParallel
	}
	variants := make([]string, 0, len(c.Render.Variants))
	seen := make(map[string]bool, len(c.Render.Variants))
	for _, v := range c.Render.Variants {
		v = strings.ToLower(strings.TrimSpace(v))
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		variants = append(variants, v)
	}
	c.Render.Variants = variants
}

func (c *Config) normalizePublish() {
	c.Publish.Endpoint = strings.TrimSpace(c.Publish.Endpoint)
	c.Publish.Bucket = strings.TrimSpace(c.Publish.Bucket)
	c.Publish.Prefix = strings.Trim(strings.TrimSpace(c.Publish.Prefix), "/")
	if c.Publish.AccessKeyEnv == "" {
		c.Publish.AccessKeyEnv = defaultAccessKeyEnv
	}
	if c.Publish.SecretKeyEnv == "" {
		c.Publish.SecretKeyEnv = defaultSecretKeyEnv
	}
}
