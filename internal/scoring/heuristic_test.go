package scoring

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mail_loader/internal/domain"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func TestComputeHeuristicScore_PromotionalFromDeletedSender(t *testing.T) {
	profile := &domain.SenderProfile{Email: "deals@shop.com", DeleteCount: 8, KeepCount: 2, OpenCount: 1, TotalCount: 10}
	record := domain.Record{
		ID:             "m1",
		From:           "Shop <deals@shop.com>",
		Subject:        "50% OFF now",
		HasUnsubscribe: true,
		Date:           now.Add(-2 * 24 * time.Hour),
	}

	got := ComputeHeuristicScore(record, profile, now)

	// 50 - 24 (delete skew) - 15 (promo) - 15 (unsubscribe) + 10 (recent)
	assert.Equal(t, 6, got.Score)
	assert.Equal(t, domain.CategoryDelete, got.Category)
	assert.Equal(t, domain.ScoreSourceHeuristic, got.Source)
	assert.Contains(t, got.Reasons, "usually deleted")
	assert.Contains(t, got.Reasons, "promotional subject")
}

func TestComputeHeuristicScore_Neutral(t *testing.T) {
	got := ComputeHeuristicScore(domain.Record{ID: "m1", Subject: "lunch?", Date: now.Add(-30 * 24 * time.Hour)}, nil, now)

	assert.Equal(t, 50, got.Score)
	assert.Equal(t, domain.CategoryNeutral, got.Category)
	assert.Equal(t, confidenceBase, got.Confidence)
	assert.Empty(t, got.Reasons)
}

func TestComputeHeuristicScore_KeptSender(t *testing.T) {
	profile := &domain.SenderProfile{KeepCount: 9, OpenCount: 9, TotalCount: 10}
	record := domain.Record{Subject: "Action required: invoice", Date: now.Add(-time.Hour)}

	got := ComputeHeuristicScore(record, profile, now)

	// 50 + 27 + 15 (opened) + 15 (urgent) + 10 (recent) clamps to 100
	assert.Equal(t, 100, got.Score)
	assert.Equal(t, domain.CategoryKeep, got.Category)
}

func TestComputeHeuristicScore_Stale(t *testing.T) {
	got := ComputeHeuristicScore(domain.Record{Date: now.Add(-100 * 24 * time.Hour)}, nil, now)
	assert.Equal(t, 40, got.Score)
	assert.Equal(t, domain.CategoryNeutral, got.Category)
}

func TestComputeHeuristicScore_RarelyOpened(t *testing.T) {
	profile := &domain.SenderProfile{DeleteCount: 5, KeepCount: 5, TotalCount: 10}
	got := ComputeHeuristicScore(domain.Record{}, profile, now)
	assert.Equal(t, 40, got.Score)
}

func TestComputeQuickScore(t *testing.T) {
	record := domain.Record{HasUnsubscribe: true, Subject: "50% OFF", Date: now.Add(-45 * 24 * time.Hour)}

	got := ComputeQuickScore(record, nil, now)
	assert.Equal(t, 35, got.Score)
	assert.Equal(t, domain.CategoryDelete, got.Category)

	assert.Equal(t, 35, VariantFunc("quick")(record, nil, now).Score)
	assert.Equal(t, 20, VariantFunc("full")(record, nil, now).Score)
}

func TestCategoryThresholds(t *testing.T) {
	cases := map[int]domain.Category{
		0: domain.CategoryDelete, 35: domain.CategoryDelete, 39: domain.CategoryDelete,
		40: domain.CategoryNeutral, 50: domain.CategoryNeutral, 60: domain.CategoryNeutral,
		61: domain.CategoryKeep, 65: domain.CategoryKeep, 100: domain.CategoryKeep,
	}
	for score, want := range cases {
		assert.Equal(t, want, domain.CategoryFor(score), "score %d", score)
	}
}

func TestConfidence_GrowsWithHistory(t *testing.T) {
	assert.Equal(t, confidenceBase, confidence(nil))
	assert.Equal(t, confidenceBase, confidence(&domain.SenderProfile{}))

	few := confidence(&domain.SenderProfile{TotalCount: 2})
	many := confidence(&domain.SenderProfile{TotalCount: 10})
	assert.Greater(t, few, confidenceBase)
	assert.Greater(t, many, few)
	assert.Equal(t, 1.0, confidence(&domain.SenderProfile{TotalCount: 500}))
}

func TestComputeHeuristicScore_AlwaysBounded(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	subjects := []string{"", "URGENT payment", "Big SALE", "hello", "newsletter: important deal"}

	for i := 0; i < 2000; i++ {
		total := rng.IntN(50)
		var profile *domain.SenderProfile
		if rng.IntN(4) > 0 {
			del := 0
			if total > 0 {
				del = rng.IntN(total + 1)
			}
			profile = &domain.SenderProfile{
				TotalCount:  total,
				DeleteCount: del,
				KeepCount:   total - del,
				OpenCount:   rng.IntN(total + 1),
			}
		}
		record := domain.Record{
			Subject:        subjects[rng.IntN(len(subjects))],
			HasUnsubscribe: rng.IntN(2) == 0,
			Date:           now.Add(-time.Duration(rng.IntN(400)) * 24 * time.Hour),
		}

		for _, fn := range []ScoreFunc{ComputeHeuristicScore, ComputeQuickScore} {
			got := fn(record, profile, now)
			require.GreaterOrEqual(t, got.Score, 0)
			require.LessOrEqual(t, got.Score, 100)
			require.Equal(t, domain.CategoryFor(got.Score), got.Category)
			require.GreaterOrEqual(t, got.Confidence, 0.0)
			require.LessOrEqual(t, got.Confidence, 1.0)
		}
	}
}

func TestSenderKey(t *testing.T) {
	assert.Equal(t, "user@example.com", SenderKey("User Name <User+news@Example.COM>"))
	assert.Equal(t, "a@b.com", SenderKey("a@b.com"))
	assert.Equal(t, "not an address", SenderKey("  Not An Address "))
	assert.Equal(t, "", SenderKey(""))
}
