package salon

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// masterRow is one row of the posting master export, keyed by the Japanese
// sheet headers the operations team maintains.
type masterRow struct {
	ID           string  `mapstructure:"店舗ID"`
	Name         string  `mapstructure:"店舗名"`
	Address      string  `mapstructure:"住所"`
	ImageURL     string  `mapstructure:"画像URL"`
	Latitude     float64 `mapstructure:"緯度"`
	Longitude    float64 `mapstructure:"経度"`
	Status       string  `mapstructure:"募集状況"`
	Roles        string  `mapstructure:"役職"`
	License      string  `mapstructure:"美容師免許"`
	TargetGender string  `mapstructure:"ターゲット性別"`
	TargetAge    string  `mapstructure:"ターゲット年代"`
	RecruitType  string  `mapstructure:"募集"`
	Perks        string  `mapstructure:"待遇"`
	Features     string  `mapstructure:"特徴"`
}

// PostingsFromRows converts decoded master rows into postings. Ids may be
// rendered as numbers in the export, so decoding is weakly typed. A row
// without an id fails the import with an error naming the row.
func PostingsFromRows(rows []map[string]any) (*Postings, error) {
	postings := &Postings{Items: make([]*Posting, 0, len(rows))}

	for i, raw := range rows {
		var row masterRow
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &row,
		})
		if err != nil {
			return nil, err
		}
		if err := decoder.Decode(raw); err != nil {
			return nil, fmt.Errorf("decode master row %d: %w", i+1, err)
		}

		if strings.TrimSpace(row.ID) == "" {
			return nil, fmt.Errorf("master row %d has no 店舗ID", i+1)
		}

		postings.Items = append(postings.Items, &Posting{
			ID:           strings.TrimSpace(row.ID),
			Name:         row.Name,
			Address:      row.Address,
			ImageURL:     row.ImageURL,
			Latitude:     row.Latitude,
			Longitude:    row.Longitude,
			Status:       row.Status,
			Roles:        row.Roles,
			License:      row.License,
			TargetGender: row.TargetGender,
			TargetAge:    row.TargetAge,
			RecruitType:  row.RecruitType,
			Perks:        row.Perks,
			Features:     row.Features,
		})
	}

	return postings, nil
}
