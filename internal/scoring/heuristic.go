package scoring

import (
	"math"
	"strings"
	"time"

	"mail_loader/internal/domain"
)

const (
	baseline = 50

	historyWeight  = 30
	historySkew    = 0.7
	highOpenRatio  = 0.8
	lowOpenRatio   = 0.1
	highOpenBonus  = 15
	lowOpenPenalty = 10

	unsubscribePenalty = 15
	promoPenalty       = 15
	urgencyBonus       = 15

	recentAge      = 7 * 24 * time.Hour
	recentBonus    = 10
	staleAge       = 90 * 24 * time.Hour
	stalePenalty   = 10
	confidenceBase = 0.3
	// confidenceFull is the number of historical actions at which confidence reaches 1.
	confidenceFull = 20

	quickUnsubscribePenalty = 10
	quickStaleAge           = 30 * 24 * time.Hour
	quickStalePenalty       = 5
)

var promotionalTerms = []string{
	"% off", "sale", "discount", "deal", "offer", "coupon", "promo",
	"free shipping", "limited time", "newsletter", "black friday", "save ",
}

var urgencyTerms = []string{
	"urgent", "important", "action required", "invoice", "payment", "receipt",
	"security alert", "password", "verify", "deadline", "reminder",
}

// ScoreFunc computes a score for one record given its sender's profile,
// which may be nil for an unseen sender.
type ScoreFunc func(r domain.Record, p *domain.SenderProfile, now time.Time) domain.RateScore

// VariantFunc returns the score function registered under name, falling back
// to ComputeHeuristicScore.
func VariantFunc(name string) ScoreFunc {
	if name == "quick" {
		return ComputeQuickScore
	}
	return ComputeHeuristicScore
}

// ComputeHeuristicScore is the offline relevance score. It weighs the
// sender's history, the shape of the record and its age around a neutral 50.
func ComputeHeuristicScore(r domain.Record, p *domain.SenderProfile, now time.Time) domain.RateScore {
	score, reasons := senderHistory(p)

	if r.HasUnsubscribe {
		score -= unsubscribePenalty
		reasons = append(reasons, "bulk mail with unsubscribe option")
	}

	subject := strings.ToLower(r.Subject)
	if containsAny(subject, promotionalTerms) {
		score -= promoPenalty
		reasons = append(reasons, "promotional subject")
	}
	if containsAny(subject, urgencyTerms) {
		score += urgencyBonus
		reasons = append(reasons, "important subject")
	}

	if !r.Date.IsZero() {
		switch age := now.Sub(r.Date); {
		case age < recentAge:
			score += recentBonus
			reasons = append(reasons, "recent")
		case age > staleAge:
			score -= stalePenalty
			reasons = append(reasons, "older than 90 days")
		}
	}

	return finish(score, reasons, p, now)
}

// ComputeQuickScore is the lighter variant: sender history, a smaller
// unsubscribe penalty and a mild penalty past 30 days. No subject analysis.
func ComputeQuickScore(r domain.Record, p *domain.SenderProfile, now time.Time) domain.RateScore {
	score, reasons := senderHistory(p)

	if r.HasUnsubscribe {
		score -= quickUnsubscribePenalty
		reasons = append(reasons, "bulk mail with unsubscribe option")
	}
	if !r.Date.IsZero() && now.Sub(r.Date) > quickStaleAge {
		score -= quickStalePenalty
		reasons = append(reasons, "older than 30 days")
	}

	return finish(score, reasons, p, now)
}

func senderHistory(p *domain.SenderProfile) (int, []string) {
	score := baseline
	var reasons []string
	if p == nil || p.TotalCount <= 0 {
		return score, reasons
	}

	deleteRatio, keepRatio, openRatio := p.Ratios()
	if keepRatio > historySkew {
		score += int(math.Round(historyWeight * keepRatio))
		reasons = append(reasons, "usually kept")
	}
	if deleteRatio > historySkew {
		score -= int(math.Round(historyWeight * deleteRatio))
		reasons = append(reasons, "usually deleted")
	}
	switch {
	case openRatio > highOpenRatio:
		score += highOpenBonus
		reasons = append(reasons, "usually opened")
	case openRatio < lowOpenRatio:
		score -= lowOpenPenalty
		reasons = append(reasons, "rarely opened")
	}
	return score, reasons
}

func finish(score int, reasons []string, p *domain.SenderProfile, now time.Time) domain.RateScore {
	score = clamp(score, 0, 100)
	return domain.RateScore{
		Score:        score,
		Category:     domain.CategoryFor(score),
		Confidence:   confidence(p),
		Reasons:      reasons,
		Source:       domain.ScoreSourceHeuristic,
		CalculatedAt: now,
	}
}

func confidence(p *domain.SenderProfile) float64 {
	if p == nil || p.TotalCount <= 0 {
		return confidenceBase
	}
	c := confidenceBase + (1-confidenceBase)*float64(p.TotalCount)/confidenceFull
	return math.Min(c, 1)
}

func containsAny(s string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(s, t) {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
