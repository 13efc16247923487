package domain

import "time"

// Record is one item of the remote collection, keyed by ID.
type Record struct {
	ID               string     `json:"id"`
	ThreadID         string     `json:"threadId"`
	From             string     `json:"from"`
	Subject          string     `json:"subject"`
	Date             time.Time  `json:"date"`
	Snippet          string     `json:"snippet"`
	LabelIDs         []string   `json:"labelIds"`
	SizeEstimate     int64      `json:"sizeEstimate"`
	HasUnsubscribe   bool       `json:"hasUnsubscribe"`
	UnsubscribeLink  *string    `json:"unsubscribeLink,omitempty"`
	RateScore        *int       `json:"rateScore,omitempty"`
	RateCalculatedAt *time.Time `json:"rateCalculatedAt,omitempty"`
	FetchedAt        time.Time  `json:"fetchedAt"`
}

// SenderProfile aggregates what the user historically did with mail from one address.
type SenderProfile struct {
	Email       string    `json:"email"`
	DeleteCount int       `json:"deleteCount"`
	KeepCount   int       `json:"keepCount"`
	OpenCount   int       `json:"openCount"`
	TotalCount  int       `json:"totalCount"`
	LastSeen    time.Time `json:"lastSeen"`
}

// Ratios returns the delete, keep and open ratios. All are zero when the
// profile has no history.
func (p SenderProfile) Ratios() (deleteRatio, keepRatio, openRatio float64) {
	if p.TotalCount <= 0 {
		return 0, 0, 0
	}
	total := float64(p.TotalCount)
	return float64(p.DeleteCount) / total, float64(p.KeepCount) / total, float64(p.OpenCount) / total
}

// ScoreUpdate is a partial write of the derived score fields of one record.
type ScoreUpdate struct {
	ID    string
	Score int
}

// Reserved metadata keys.
const (
	MetaLastLoadTime     = "last_load_time"
	MetaTotalRecordCount = "total_record_count"
)

// Batch is one page of records as delivered by the network. Received counts
// every item in the response, including ones that could not be converted, so
// that end-of-data detection is not fooled by dropped items.
type Batch struct {
	Records  []Record
	Received int
}
