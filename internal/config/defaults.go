package config

const (
	defaultConfigPath   = "~/.config/bilisub/config.toml"
	defaultOutputRoot   = "output"
	defaultCacheDB      = "~/.cache/bilisub/translations.db"
	defaultWatermarkPNG = ""

	defaultPlayResX = 1920
	defaultPlayResY = 1080

	defaultChineseFont     = "PingFang SC"
	defaultChineseSize     = 22
	defaultBilingualMargin = 60
	defaultChineseMargin   = 40
	defaultEnglishFont     = "Arial"
	defaultEnglishSize     = 18
	defaultEnglishMargin   = 20
	defaultPrimaryColour   = "&Hffffff"
	defaultOutlineColour   = "&H000000"
	defaultBackColour      = "&H80000000"
	defaultOutline         = 2
	defaultAlignment       = 2
	defaultSideMargin      = 10

	defaultWatermarkText    = "董卓主演脱口秀"
	defaultWatermarkFont    = "PingFang SC"
	defaultWatermarkSize    = 24
	defaultWatermarkAlign   = 9
	defaultWatermarkMarginL = 10
	defaultWatermarkMarginR = 15
	defaultWatermarkMarginV = 15

	defaultYTDLPBinary    = "yt-dlp"
	defaultYTDLPFormat    = "bestvideo[height>=1080][vcodec^=vp9]+bestaudio[acodec^=opus]/bestvideo[height>=1080]+bestaudio/best[height>=1080]"
	defaultYTDLPTimeout   = 300
	defaultWhisperBinary  = "whisper"
	defaultWhisperModel   = "base"
	defaultTranscribeLang = "en"
	defaultChunkMinutes   = 10
	defaultAudioFilter    = "highpass=f=200,lowpass=f=3000"

	defaultTranslateProvider = "manual"
	defaultSourceLanguage    = "English"
	defaultTargetLanguage    = "Chinese"
	defaultBatchSize         = 50
	defaultConcurrency       = 3
	defaultManualTimeout     = 3600
	defaultPollInterval      = 2

	defaultDensity         = "medium"
	defaultMinGapSeconds   = 2.0
	defaultDisplaySeconds  = 3.0
	defaultDanmakuFont     = "Microsoft YaHei"
	defaultDanmakuFontSize = 25

	defaultPreset       = "medium"
	defaultCRF          = 23
	defaultAudioBitrate = "192k"
	defaultParallel     = 2

	defaultAccessKeyEnv = "BILISUB_S3_ACCESS_KEY"
	defaultSecretKeyEnv = "BILISUB_S3_SECRET_KEY"
	defaultPublishPath  = "bilisub"
)

// Default returns a configuration populated with the built-in layout and
// pipeline settings.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputRoot:   defaultOutputRoot,
			CacheDB:      defaultCacheDB,
			WatermarkPNG: defaultWatermarkPNG,
		},
		Layout: Layout{
			PlayResX:      defaultPlayResX,
			PlayResY:      defaultPlayResY,
			PrimaryColour: defaultPrimaryColour,
			OutlineColour: defaultOutlineColour,
			BackColour:    defaultBackColour,
			Chinese: Style{
				Font:      defaultChineseFont,
				Size:      defaultChineseSize,
				Outline:   defaultOutline,
				Alignment: defaultAlignment,
				MarginL:   defaultSideMargin,
				MarginR:   defaultSideMargin,
				MarginV:   defaultBilingualMargin,
			},
			ChineseOnlyMarginV: defaultChineseMargin,
			English: Style{
				Font:      defaultEnglishFont,
				Size:      defaultEnglishSize,
				Outline:   defaultOutline,
				Alignment: defaultAlignment,
				MarginL:   defaultSideMargin,
				MarginR:   defaultSideMargin,
				MarginV:   defaultEnglishMargin,
			},
			WatermarkText: defaultWatermarkText,
			Watermark: Style{
				Font:      defaultWatermarkFont,
				Size:      defaultWatermarkSize,
				Bold:      true,
				Outline:   1,
				Alignment: defaultWatermarkAlign,
				MarginL:   defaultWatermarkMarginL,
				MarginR:   defaultWatermarkMarginR,
				MarginV:   defaultWatermarkMarginV,
			},
		},
		Download: Download{
			Binary:         defaultYTDLPBinary,
			Format:         defaultYTDLPFormat,
			TimeoutSeconds: defaultYTDLPTimeout,
		},
		Transcribe: Transcribe{
			Provider:      "local",
			Model:         defaultWhisperModel,
			Language:      defaultTranscribeLang,
			WhisperBinary: defaultWhisperBinary,
			ChunkMinutes:  defaultChunkMinutes,
			Concurrency:   defaultConcurrency,
			AudioFilter:   defaultAudioFilter,
		},
		Translate: Translate{
			Provider:             defaultTranslateProvider,
			SourceLanguage:       defaultSourceLanguage,
			TargetLanguage:       defaultTargetLanguage,
			BatchSize:            defaultBatchSize,
			Concurrency:          defaultConcurrency,
			ManualTimeoutSeconds: defaultManualTimeout,
			PollIntervalSeconds:  defaultPollInterval,
			Cache:                true,
			Glossary: map[string]string{
				"Trump": "特朗普",
			},
		},
		Danmaku: Danmaku{
			Enabled:        true,
			Density:        defaultDensity,
			IncludeEmoji:   true,
			MinGapSeconds:  defaultMinGapSeconds,
			DisplaySeconds: defaultDisplaySeconds,
			Font:           defaultDanmakuFont,
			FontSize:       defaultDanmakuFontSize,
		},
		Render: Render{
			Preset:       defaultPreset,
			CRF:          defaultCRF,
			AudioBitrate: defaultAudioBitrate,
			Parallel:     defaultParallel,
			Variants:     []string{"bilingual", "chinese", "danmaku"},
		},
		Publish: Publish{
			Prefix:       defaultPublishPath,
			AccessKeyEnv: defaultAccessKeyEnv,
			SecretKeyEnv: defaultSecretKeyEnv,
			UseSSL:       true,
		},
	}
}
