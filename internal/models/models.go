package models

import "time"

// Tour is a registered Civitatis activity page being watched.
type Tour struct {
	ID        string `gorm:"type:uuid;primaryKey"`
	Name      string `gorm:"type:varchar(200);not null"`
	URL       string `gorm:"type:varchar(500);uniqueIndex;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// SlotRecord is one scraped schedule slot for a tour on a date. Rows for a
// (tour, date) pair are replaced wholesale on every successful scrape.
type SlotRecord struct {
	ID         string `gorm:"type:uuid;primaryKey"`
	TourID     string `gorm:"type:uuid;index:idx_slots_tour_date;not null"`
	Date       string `gorm:"type:varchar(10);index:idx_slots_tour_date;not null"` // YYYY-MM-DD
	Time       string `gorm:"type:varchar(10);not null"`
	Operator   string `gorm:"type:varchar(100)"`
	ProviderID string `gorm:"type:varchar(20)"`
	Price      string `gorm:"type:varchar(20)"`
	Quota      string `gorm:"type:varchar(50)"`
	ScrapedAt  time.Time
}

// ScrapeRunStatus tracks sweep progress.
type ScrapeRunStatus string

const (
	RunRunning ScrapeRunStatus = "running"
	RunSuccess ScrapeRunStatus = "success"
	RunFailed  ScrapeRunStatus = "failed"
)

// ScrapeRun is the log record of one sweep over all registered tours.
type ScrapeRun struct {
	ID           string          `gorm:"type:uuid;primaryKey"`
	Status       ScrapeRunStatus `gorm:"type:varchar(20)"`
	StartedAt    time.Time
	FinishedAt   *time.Time
	ToursScraped int
	DatesScraped int
	ErrorMessage string `gorm:"type:text"`
}
