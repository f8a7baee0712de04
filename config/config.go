package config

import (
	"strings"
	"time"

	"github.com/pitabwire/frame/config"

	"github.com/reelearn/reelearn/internal/catalog"
	"github.com/reelearn/reelearn/internal/ingest"
	"github.com/reelearn/reelearn/pkg/fragment"
	"github.com/reelearn/reelearn/pkg/retry"
)

// ServiceConfig holds the configuration of the reelearn service.
type ServiceConfig struct {
	config.ConfigurationDefault

	// Fragmenter
	FragmentMinDuration        float64 `envDefault:"10"  env:"FRAGMENT_MIN_DURATION"`
	FragmentMaxDuration        float64 `envDefault:"30"  env:"FRAGMENT_MAX_DURATION"`
	FragmentOptimalDuration    float64 `envDefault:"20"  env:"FRAGMENT_OPTIMAL_DURATION"`
	FragmentMaxSentences       int     `envDefault:"2"   env:"FRAGMENT_MAX_SENTENCES"`
	FragmentMaxGap             float64 `envDefault:"0"   env:"FRAGMENT_MAX_GAP"`
	FragmentGapBridge          float64 `envDefault:"5"   env:"FRAGMENT_GAP_BRIDGE"`
	FragmentCoherenceThreshold float64 `envDefault:"0"   env:"FRAGMENT_COHERENCE_THRESHOLD"`
	NoSpeechThreshold          float64 `envDefault:"0.5" env:"NO_SPEECH_THRESHOLD"`

	// Languages
	DefaultLanguage    string `envDefault:"en"      env:"DEFAULT_LANGUAGE"`
	SupportedLanguages string `envDefault:"en,ru"   env:"SUPPORTED_LANGUAGES"`
	LanguageCatalog    string `envDefault:""        env:"LANGUAGE_CATALOG"`
	PunktDataDir       string `envDefault:"./punkt" env:"PUNKT_DATA_DIR"`

	// Uploads
	UploadRetries       int `envDefault:"3" env:"UPLOAD_RETRIES"`
	UploadRetryDelaySec int `envDefault:"2" env:"UPLOAD_RETRY_DELAY_SEC"`
	UploadConcurrency   int `envDefault:"4" env:"UPLOAD_CONCURRENCY"`

	// Search
	ElasticsearchAddresses string  `envDefault:"http://localhost:9200" env:"ELASTICSEARCH_ADDRESSES"`
	ElasticsearchIndex     string  `envDefault:"reelearn_fragments"    env:"ELASTICSEARCH_INDEX"`
	ResultsPerVideo        int     `envDefault:"2"                     env:"RESULTS_PER_VIDEO"`
	SearchMinScore         float64 `envDefault:"1.0"                   env:"SEARCH_MIN_SCORE"`
	SearchHistorySize      int     `envDefault:"50"                    env:"SEARCH_HISTORY_SIZE"`

	// Storage
	BlobBucketURL string `envDefault:"file:///var/lib/reelearn/videos" env:"BLOB_BUCKET_URL"`
	BlobPublicURL string `envDefault:""                                env:"BLOB_PUBLIC_URL"`
	TempDir       string `envDefault:""                                env:"TEMP_DIR"`

	// FFmpeg
	FFmpegBinary  string `envDefault:"ffmpeg" env:"FFMPEG_BINARY"`
	FFmpegThreads int    `envDefault:"0"      env:"FFMPEG_THREADS"`
	FFmpegPreset  string `envDefault:"medium" env:"FFMPEG_PRESET"`
	FFmpegCRF     int    `envDefault:"23"     env:"FFMPEG_CRF"`

	// Speech recognition
	ASRBackend    string `envDefault:"openai"                    env:"ASR_BACKEND"`
	OpenAIAPIKey  string `envDefault:""                          env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `envDefault:"https://api.openai.com/v1" env:"OPENAI_BASE_URL"`
	ASRModel      string `envDefault:"whisper-1"                 env:"ASR_MODEL"`
	TranscriptDir string `envDefault:""                          env:"TRANSCRIPT_DIR"`

	// Ingest jobs arriving over the queue.
	IngestQueueName string `envDefault:"reelearn.ingest"       env:"INGEST_QUEUE_NAME"`
	IngestQueueURL  string `envDefault:"mem://reelearn.ingest" env:"INGEST_QUEUE_URL"`
}

// Fragmenter returns the fragment boundary thresholds.
func (c *ServiceConfig) Fragmenter() fragment.Config {
	return fragment.Config{
		MinDuration:        c.FragmentMinDuration,
		MaxDuration:        c.FragmentMaxDuration,
		OptimalDuration:    c.FragmentOptimalDuration,
		MaxSentences:       c.FragmentMaxSentences,
		MaxGap:             c.FragmentMaxGap,
		GapBridge:          c.FragmentGapBridge,
		CoherenceThreshold: c.FragmentCoherenceThreshold,
	}
}

// RetryPolicy returns the cut-and-upload retry policy.
func (c *ServiceConfig) RetryPolicy() retry.Policy {
	return retry.Policy{
		Attempts: c.UploadRetries,
		Delay:    time.Duration(c.UploadRetryDelaySec) * time.Second,
		Name:     "cut_and_store",
	}
}

// Ingest returns the ingestion pipeline settings.
func (c *ServiceConfig) Ingest() ingest.Config {
	return ingest.Config{
		Fragmenter:        c.Fragmenter(),
		NoSpeechThreshold: c.NoSpeechThreshold,
		Retry:             c.RetryPolicy(),
		UploadConcurrency: c.UploadConcurrency,
		PunktDataDir:      c.PunktDataDir,
		TempDir:           c.TempDir,
	}
}

// LanguageFallback is the catalog used when no catalog file is configured.
func (c *ServiceConfig) LanguageFallback() *catalog.Catalog {
	return catalog.FromList(c.DefaultLanguage, splitList(c.SupportedLanguages))
}

// ElasticsearchAddressList splits ELASTICSEARCH_ADDRESSES.
func (c *ServiceConfig) ElasticsearchAddressList() []string {
	return splitList(c.ElasticsearchAddresses)
}

// ASROptions returns the option map passed to the transcriber backend.
func (c *ServiceConfig) ASROptions() map[string]string {
	return map[string]string{
		"openai_api_key":  c.OpenAIAPIKey,
		"openai_base_url": c.OpenAIBaseURL,
		"model":           c.ASRModel,
		"transcript_dir":  c.TranscriptDir,
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
