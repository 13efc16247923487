package remote

// SummaryResponse is returned by GET /summary.
type SummaryResponse struct {
	EstimatedTotal int `json:"estimatedTotal"`
}

// RecordsResponse is returned by GET /records.
type RecordsResponse struct {
	Records []APIRecord `json:"records"`
}

type APIRecord struct {
	ID              string   `json:"id"`
	ThreadID        string   `json:"threadId"`
	From            string   `json:"from"`
	Subject         string   `json:"subject"`
	Date            string   `json:"date"`
	Snippet         string   `json:"snippet"`
	LabelIDs        []string `json:"labelIds"`
	SizeEstimate    int64    `json:"sizeEstimate"`
	HasUnsubscribe  bool     `json:"hasUnsubscribe"`
	UnsubscribeLink *string  `json:"unsubscribeLink"`
}

// ScoreRequest is the body of POST /score.
type ScoreRequest struct {
	Record         APIRecord      `json:"record"`
	SenderBehavior SenderBehavior `json:"senderBehavior"`
}

type SenderBehavior struct {
	DeleteRate  float64 `json:"deleteRate"`
	KeepRate    float64 `json:"keepRate"`
	OpenRate    float64 `json:"openRate"`
	TotalEmails int     `json:"totalEmails"`
}

type ScoreResponse struct {
	Score      int      `json:"score"`
	Category   string   `json:"category"`
	Confidence float64  `json:"confidence"`
	Reasons    []string `json:"reasons"`
}
