package domain

import "time"

type Category string

const (
	CategoryDelete  Category = "delete"
	CategoryNeutral Category = "neutral"
	CategoryKeep    Category = "keep"
)

// Category thresholds. A score strictly below DeleteBelow is a delete
// candidate, strictly above KeepAbove is worth keeping.
const (
	DeleteBelow = 40
	KeepAbove   = 60
)

// CategoryFor maps a 0-100 score onto its category.
func CategoryFor(score int) Category {
	switch {
	case score < DeleteBelow:
		return CategoryDelete
	case score > KeepAbove:
		return CategoryKeep
	default:
		return CategoryNeutral
	}
}

type ScoreSource string

const (
	ScoreSourceHeuristic ScoreSource = "heuristic"
	ScoreSourceRemote    ScoreSource = "remote"
)

// RateScore is the relevance judgement for a single record.
type RateScore struct {
	Score        int         `json:"score"`
	Category     Category    `json:"category"`
	Confidence   float64     `json:"confidence"`
	Reasons      []string    `json:"reasons,omitempty"`
	Source       ScoreSource `json:"source"`
	CalculatedAt time.Time   `json:"calculatedAt"`
}

// SenderBehavior is the summary of a SenderProfile sent to the remote scorer.
type SenderBehavior struct {
	Email       string  `json:"email"`
	DeleteRate  float64 `json:"deleteRate"`
	KeepRate    float64 `json:"keepRate"`
	OpenRate    float64 `json:"openRate"`
	TotalEmails int     `json:"totalEmails"`
}

// BehaviorOf summarizes a profile. A nil profile yields an empty behavior for email.
func BehaviorOf(email string, p *SenderProfile) SenderBehavior {
	b := SenderBehavior{Email: email}
	if p == nil {
		return b
	}
	b.DeleteRate, b.KeepRate, b.OpenRate = p.Ratios()
	b.TotalEmails = p.TotalCount
	return b
}
