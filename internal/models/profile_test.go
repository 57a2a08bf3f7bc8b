package models_test

import (
	"testing"

	"github.com/jonesrussell/stock-publisher/internal/models"
)

func TestProfileValidate(t *testing.T) {
	base := func() models.Profile {
		return models.Profile{
			ID:      "site-a",
			SiteURL: "https://site-a.example",
			Authors: []models.Author{{Username: "alice", AppPassword: "pw"}},
		}
	}

	testCases := []struct {
		name    string
		mutate  func(*models.Profile)
		wantErr bool
	}{
		{name: "valid", mutate: func(_ *models.Profile) {}},
		{name: "missing id", mutate: func(p *models.Profile) { p.ID = "" }, wantErr: true},
		{name: "missing site url", mutate: func(p *models.Profile) { p.SiteURL = "" }, wantErr: true},
		{name: "non-http site url", mutate: func(p *models.Profile) { p.SiteURL = "ftp://x" }, wantErr: true},
		{name: "min gap above max", mutate: func(p *models.Profile) { p.MinGapMinutes = 60; p.MaxGapMinutes = 30 }, wantErr: true},
		{name: "valid custom gaps", mutate: func(p *models.Profile) { p.MinGapMinutes = 30; p.MaxGapMinutes = 60 }},
		{name: "author without password", mutate: func(p *models.Profile) { p.Authors[0].AppPassword = "" }, wantErr: true},
		{name: "negative gap", mutate: func(p *models.Profile) { p.MinGapMinutes = -1 }, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			p := base()
			tc.mutate(&p)
			if err := p.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestDisplayNameFallsBackToID(t *testing.T) {
	p := models.Profile{ID: "site-a"}
	if got := p.DisplayName(); got != "site-a" {
		t.Errorf("DisplayName() = %q, want site-a", got)
	}
	p.Name = "Site A"
	if got := p.DisplayName(); got != "Site A" {
		t.Errorf("DisplayName() = %q, want Site A", got)
	}
}

func TestSectionsDefaultToAll(t *testing.T) {
	p := models.Profile{}
	if got := p.Sections(); len(got) != len(models.AllReportSections) {
		t.Errorf("Sections() = %d entries, want all %d", len(got), len(models.AllReportSections))
	}
	p.ReportSections = []string{"introduction", "faq"}
	if got := p.Sections(); len(got) != 2 {
		t.Errorf("Sections() = %v, want the configured subset", got)
	}
}
