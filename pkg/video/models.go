package video

import (
	"encoding/json"

	"github.com/pitabwire/frame/data"
)

// Status is the processing state of a video.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Video is an uploaded or referenced source video.
type Video struct {
	data.BaseModel

	Name        string   `gorm:"type:varchar(255);not null"                  json:"name"`
	Description string   `gorm:"type:text"                                   json:"description,omitempty"`
	Source      string   `gorm:"type:varchar(2048);not null"                 json:"source"`
	Tags        TagsJSON `gorm:"type:jsonb;default:'[]'"                     json:"tags"`
	Status      Status   `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	Error       string   `gorm:"type:text"                                   json:"error,omitempty"`
}

func (Video) TableName() string { return "videos" }

// Fragment is a persisted, uploaded fragment of a video.
type Fragment struct {
	data.BaseModel

	VideoID          string   `gorm:"type:varchar(50);not null;index:idx_fragment_video" json:"video_id"`
	Video            *Video   `gorm:"foreignKey:VideoID"                                 json:"-"`
	Position         int      `gorm:"not null;default:0"                                 json:"position"`
	Start            float64  `gorm:"not null"                                           json:"start"`
	End              float64  `gorm:"not null"                                           json:"end"`
	Text             string   `gorm:"type:text;not null"                                 json:"text"`
	Sentences        TagsJSON `gorm:"type:jsonb;default:'[]'"                            json:"sentences"`
	Language         string   `gorm:"type:varchar(8)"                                    json:"language"`
	Tags             TagsJSON `gorm:"type:jsonb;default:'[]'"                            json:"tags"`
	MediaReference   string   `gorm:"type:varchar(1024);not null"                        json:"media_reference"`
	SpeechConfidence float64  `gorm:"default:0"                                          json:"speech_confidence"`
	NoSpeechProb     float64  `gorm:"default:0"                                          json:"no_speech_prob"`
}

func (Fragment) TableName() string { return "fragments" }

// TagsJSON is a custom GORM type for JSONB storage of string lists.
type TagsJSON []string

func (t TagsJSON) Value() (interface{}, error) {
	if t == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(t)
}

func (t *TagsJSON) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	default:
		*t = TagsJSON{}
		return nil
	}
}
