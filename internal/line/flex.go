package line

import (
	"encoding/json"
	"fmt"

	"github.com/lumina-beauty/lumina-offer/internal/salon"
)

// OfferCard renders the salon offer bubble. The scheduling LIFF id is baked
// into the card's primary action so the user lands on the date picker with
// the salon preselected.
func OfferCard(posting *salon.Posting, offerText, scheduleLiffID string) Message {
	liffURL := fmt.Sprintf("https://liff.line.me/%s?salonId=%s", scheduleLiffID, posting.ID)

	row := func(label, value string) map[string]any {
		return map[string]any{
			"type": "box", "layout": "baseline", "spacing": "sm",
			"contents": []map[string]any{
				{"type": "text", "text": label, "color": "#aaaaaa", "size": "sm", "flex": 2},
				{"type": "text", "text": value, "wrap": true, "color": "#666666", "size": "sm", "flex": 5},
			},
		}
	}

	bubble := map[string]any{
		"type": "bubble",
		"hero": map[string]any{
			"type": "image", "url": posting.ImageURL,
			"size": "full", "aspectRatio": "20:13", "aspectMode": "cover",
		},
		"body": map[string]any{
			"type": "box", "layout": "vertical",
			"contents": []any{
				map[string]any{"type": "text", "text": posting.Name, "weight": "bold", "size": "xl"},
				map[string]any{
					"type": "box", "layout": "vertical", "margin": "lg", "spacing": "sm",
					"contents": []map[string]any{
						row("勤務地", posting.Address),
						row("募集役職", posting.DisplayRole()),
						row("募集形態", posting.RecruitType),
						row("メッセージ", offerText),
					},
				},
			},
		},
		"footer": map[string]any{
			"type": "box", "layout": "vertical", "spacing": "sm", "flex": 0,
			"contents": []map[string]any{
				{
					"type": "button", "style": "primary", "height": "sm", "color": "#FF6B6B",
					"action": map[string]any{
						"type": "uri", "label": "サロンから話を聞いてみる", "uri": liffURL,
					},
				},
			},
		},
	}

	contents, _ := json.Marshal(bubble)

	return FlexMessage(fmt.Sprintf("%sからのオファー", posting.Name), contents)
}
