package salon

// Offer-history statuses as stored in the offer management table.
const (
	OfferSent       = "送信済み"
	OfferScheduling = "日程調整中"
)

// OfferHistoryEntry records that a posting was offered to a user. Used as an
// exclusion set during matching and as the audit trail for scheduling.
type OfferHistoryEntry struct {
	UserID    string
	PostingID string
	SentDate  string
	Status    string
}

// Interview holds the scheduling details a user submits for an offer.
type Interview struct {
	Method string `json:"interviewMethod"`
	Date1  string `json:"date1"`
	Start1 string `json:"startTime1"`
	End1   string `json:"endTime1"`
	Date2  string `json:"date2"`
	Start2 string `json:"startTime2"`
	End2   string `json:"endTime2"`
	Date3  string `json:"date3"`
	Start3 string `json:"startTime3"`
	End3   string `json:"endTime3"`
}

// OfferedPostingIDs collects the posting ids already offered to a user.
func OfferedPostingIDs(history []*OfferHistoryEntry) []string {
	ids := make([]string, 0, len(history))
	for _, entry := range history {
		ids = append(ids, entry.PostingID)
	}
	return ids
}
