package video

import (
	"testing"
)

func TestTagsJSONScan(t *testing.T) {
	tests := []struct {
		name string
		src  interface{}
		want int
	}{
		{"bytes", []byte(`["a","b"]`), 2},
		{"string", `["a"]`, 1},
		{"null", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tags TagsJSON
			if err := tags.Scan(tt.src); err != nil {
				t.Fatalf("Scan: %v", err)
			}
			if len(tags) != tt.want {
				t.Errorf("len = %d, want %d", len(tags), tt.want)
			}
		})
	}

	var tags TagsJSON
	if err := tags.Scan([]byte("{broken")); err == nil {
		t.Error("expected error for malformed JSON")
	}
}

func TestTagsJSONValue(t *testing.T) {
	v, err := TagsJSON(nil).Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if string(v.([]byte)) != "[]" {
		t.Errorf("nil value = %s, want []", v)
	}

	v, err = TagsJSON{"geo", "rivers"}.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if string(v.([]byte)) != `["geo","rivers"]` {
		t.Errorf("value = %s", v)
	}
}

func TestToRecord(t *testing.T) {
	f := Fragment{
		Start:          1,
		End:            9,
		Text:           "hello",
		MediaReference: "fragments/v/1.000_9.000.mp4",
		Tags:           TagsJSON{"geo"},
	}
	f.ID = "frag-1"

	rec := ToRecord(f)
	if rec.ID != "frag-1" || rec.Text != "hello" || rec.MediaReference != f.MediaReference {
		t.Errorf("record = %+v", rec)
	}
	if rec.Video != nil {
		t.Error("record without a loaded video should have nil Video")
	}

	v := &Video{Name: "Lecture", Description: "Rivers"}
	v.ID = "video-1"
	f.Video = v
	rec = ToRecord(f)
	if rec.Video == nil || rec.Video.ID != "video-1" || rec.Video.Name != "Lecture" {
		t.Errorf("video = %+v", rec.Video)
	}
}

func TestToDocument(t *testing.T) {
	f := Fragment{VideoID: "video-1", Start: 2, End: 12, Text: "rivers", Language: "en", Tags: TagsJSON{"geo"}, SpeechConfidence: 0.8}
	f.ID = "frag-1"

	doc := ToDocument(f)
	if doc.FragmentID != "frag-1" || doc.VideoID != "video-1" || doc.Language != "en" {
		t.Errorf("document = %+v", doc)
	}
	if doc.SpeechConfidence != 0.8 || len(doc.Tags) != 1 {
		t.Errorf("document = %+v", doc)
	}
}
