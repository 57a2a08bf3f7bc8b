package profiles

import (
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/v2/bson"

	"github.com/jonesrussell/stock-publisher/internal/models"
)

// The Get/Put/Delete filters address fields inside the stored document by
// dotted path. Marshal a document the way the driver would store it and
// check those paths actually resolve, so a bson tag change on the model
// cannot silently orphan every lookup.
func TestMongoFilterPathsResolveAgainstStoredDocument(t *testing.T) {
	doc := profileDocument{
		UserID: "user-1",
		Profile: models.Profile{
			ID:      "site-a",
			Name:    "Site A",
			SiteURL: "https://site-a.example",
		},
	}

	data, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("bson.Marshal() error: %v", err)
	}
	raw := bson.Raw(data)

	if got := raw.Lookup(userIDPath).StringValue(); got != "user-1" {
		t.Errorf("%s = %q, want %q", userIDPath, got, "user-1")
	}

	idVal := raw.Lookup(strings.Split(profileIDPath, ".")...)
	if idVal.IsZero() {
		t.Fatalf("%s does not resolve in the stored document", profileIDPath)
	}
	if got := idVal.StringValue(); got != "site-a" {
		t.Errorf("%s = %q, want %q", profileIDPath, got, "site-a")
	}
}

func TestMongoDocumentRoundTrip(t *testing.T) {
	doc := profileDocument{
		UserID: "user-1",
		Profile: models.Profile{
			ID:         "site-a",
			Name:       "Site A",
			SiteURL:    "https://site-a.example",
			SheetName:  "sheet-a",
			CategoryID: 7,
			Authors: []models.Author{
				{Username: "alice", UserID: 1, AppPassword: "pw"},
			},
		},
	}

	data, err := bson.Marshal(doc)
	if err != nil {
		t.Fatalf("bson.Marshal() error: %v", err)
	}

	var got profileDocument
	if err := bson.Unmarshal(data, &got); err != nil {
		t.Fatalf("bson.Unmarshal() error: %v", err)
	}

	if got.UserID != doc.UserID {
		t.Errorf("UserID = %q, want %q", got.UserID, doc.UserID)
	}
	if got.Profile.ID != doc.Profile.ID {
		t.Errorf("Profile.ID = %q, want %q", got.Profile.ID, doc.Profile.ID)
	}
	if got.Profile.CategoryID != doc.Profile.CategoryID {
		t.Errorf("Profile.CategoryID = %d, want %d", got.Profile.CategoryID, doc.Profile.CategoryID)
	}
	if len(got.Profile.Authors) != 1 || got.Profile.Authors[0].Username != "alice" {
		t.Errorf("Profile.Authors = %+v, want the alice author back", got.Profile.Authors)
	}
}
