// Package models defines the domain types shared across the stock-publisher
// service.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// AllReportSections lists every content section the report generator knows
// how to produce, in presentation order. Profiles may enable a subset.
var AllReportSections = []string{
	"introduction",
	"metrics_summary",
	"detailed_forecast_table",
	"company_profile",
	"valuation_metrics",
	"total_valuation",
	"profitability_growth",
	"analyst_insights",
	"financial_health",
	"technical_analysis_summary",
	"short_selling_info",
	"stock_price_statistics",
	"dividends_shareholder_returns",
	"conclusion_outlook",
	"risk_factors",
	"faq",
}

// Author is a publishing identity on the destination WordPress site.
// Credentials use application passwords sent via HTTP Basic auth.
type Author struct {
	ID          string `bson:"id"           json:"id"            yaml:"id"`
	Username    string `bson:"wp_username"  json:"wp_username"   yaml:"wp_username"`
	UserID      int    `bson:"wp_user_id"   json:"wp_user_id"    yaml:"wp_user_id"`
	AppPassword string `bson:"app_password" json:"app_password"  yaml:"app_password"`
}

// Profile is a configured publishing target: one destination site, its
// authors, its ticker source and its scheduling rules. Profiles are created
// and edited externally; the publishing run treats them as read-only.
type Profile struct {
	ID             string   `bson:"profile_id,omitempty" json:"profile_id"      yaml:"profile_id"`
	Name           string   `bson:"profile_name"         json:"profile_name"    yaml:"profile_name"`
	SiteURL        string   `bson:"site_url"             json:"site_url"        yaml:"site_url"`
	SheetName      string   `bson:"sheet_name"           json:"sheet_name"      yaml:"sheet_name"`
	CategoryID     int      `bson:"category_id"          json:"category_id"     yaml:"category_id"`
	MinGapMinutes  int      `bson:"min_scheduling_gap_minutes" json:"min_scheduling_gap_minutes" yaml:"min_scheduling_gap_minutes"`
	MaxGapMinutes  int      `bson:"max_scheduling_gap_minutes" json:"max_scheduling_gap_minutes" yaml:"max_scheduling_gap_minutes"`
	Authors        []Author `bson:"authors"              json:"authors"         yaml:"authors"`
	ReportSections []string `bson:"report_sections"      json:"report_sections" yaml:"report_sections"`
	ImageTheme     string   `bson:"image_theme"          json:"image_theme"     yaml:"image_theme"`
}

// DisplayName returns the profile name, falling back to the id.
func (p *Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// Sections returns the enabled report sections, defaulting to all of them.
func (p *Profile) Sections() []string {
	if len(p.ReportSections) == 0 {
		return AllReportSections
	}
	return p.ReportSections
}

// Validate checks the fields a publishing run depends on. Gap bounds are
// validated here, at load time, so the scheduler can assume min <= max.
func (p *Profile) Validate() error {
	if p.ID == "" {
		return errors.New("profile_id is required")
	}
	if p.SiteURL == "" {
		return fmt.Errorf("profile %q: site_url is required", p.ID)
	}
	if !strings.HasPrefix(p.SiteURL, "http://") && !strings.HasPrefix(p.SiteURL, "https://") {
		return fmt.Errorf("profile %q: site_url must be an http(s) URL", p.ID)
	}
	if p.MinGapMinutes < 0 || p.MaxGapMinutes < 0 {
		return fmt.Errorf("profile %q: scheduling gaps must be non-negative", p.ID)
	}
	if p.MinGapMinutes > 0 && p.MaxGapMinutes > 0 && p.MinGapMinutes > p.MaxGapMinutes {
		return fmt.Errorf("profile %q: min_scheduling_gap_minutes %d exceeds max %d",
			p.ID, p.MinGapMinutes, p.MaxGapMinutes)
	}
	for i, a := range p.Authors {
		if a.Username == "" || a.AppPassword == "" {
			return fmt.Errorf("profile %q: authors[%d] needs wp_username and app_password", p.ID, i)
		}
	}
	return nil
}
