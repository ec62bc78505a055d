package models

import (
	"encoding/json"
	"testing"
)

func TestResponseRecordUnmarshalFlatObject(t *testing.T) {
	payload := `{
		"locationTitle": "Warehouse 4",
		"i1": "yes",
		"i2": "no",
		"d1": {"fileName": "permit.pdf", "filePath": "submissions/1/permit.pdf", "fileSize": 2048},
		"d2": {"fileName": "report.pdf", "fileSize": 1024, "isTemporary": true}
	}`

	var rec ResponseRecord
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		t.Fatalf("Failed to unmarshal response record: %v", err)
	}

	if rec.LocationTitle != "Warehouse 4" {
		t.Errorf("Expected location title, got %q", rec.LocationTitle)
	}
	if len(rec.Answers) != 4 {
		t.Errorf("Expected 4 answers, got %d", len(rec.Answers))
	}
	if rec.Answers["i1"].Value != AnswerYes {
		t.Errorf("Expected yes answer, got %q", rec.Answers["i1"].Value)
	}
	if doc := rec.Answers["d1"].Document; doc == nil || doc.FilePath == "" {
		t.Errorf("Expected stored document answer, got %+v", doc)
	}
	if doc := rec.Answers["d2"].Document; doc == nil || !doc.IsTemporary || doc.FilePath != "" {
		t.Errorf("Expected temporary document answer, got %+v", doc)
	}
}

func TestResponseRecordRoundTrip(t *testing.T) {
	rec := ResponseRecord{
		LocationTitle: "Plant 2",
		Answers: map[string]Answer{
			"i1": {Value: AnswerNo},
			"d1": {Document: &DocumentAnswer{FileName: "permit.pdf", FileSize: 10}},
		},
	}

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Failed to marshal: %v", err)
	}

	var back ResponseRecord
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if back.LocationTitle != rec.LocationTitle {
		t.Errorf("Location title lost in round trip: %q", back.LocationTitle)
	}
	if back.Answers["i1"].Value != AnswerNo {
		t.Errorf("Yes/no answer lost in round trip")
	}
	if back.Answers["d1"].Document == nil || back.Answers["d1"].Document.FileName != "permit.pdf" {
		t.Errorf("Document answer lost in round trip")
	}
}

func TestKnownItemKind(t *testing.T) {
	for _, kind := range []ItemKind{ItemKindDocument, ItemKindYesNo, ItemKindChoice} {
		if !KnownItemKind(kind) {
			t.Errorf("Expected %q to be a known kind", kind)
		}
	}
	if KnownItemKind("signature") {
		t.Error("Unknown kind should be rejected")
	}
}
