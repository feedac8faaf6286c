package dashboard

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices go over the wire as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Payload is the content of one dashboard slot. Each item type has exactly
// one concrete payload type.
type Payload interface {
	ItemType() ItemType
}

type NewsPayload struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	URL     string `json:"url"`
	Source  string `json:"source"`
}

type PricesPayload struct {
	PricesUSD map[string]decimal.Decimal `json:"prices_usd"`
	Source    string                     `json:"source,omitempty"`
	Note      string                     `json:"note,omitempty"`
}

type InsightPayload struct {
	Text   string `json:"text"`
	Source string `json:"source"`
	Model  string `json:"model"`
	Error  string `json:"error,omitempty"`
}

type MemePayload struct {
	Title     string  `json:"title"`
	ImageURL  *string `json:"image_url"`
	PostURL   *string `json:"post_url"`
	Subreddit *string `json:"subreddit"`
	Source    string  `json:"source"`
}

func (NewsPayload) ItemType() ItemType    { return News }
func (PricesPayload) ItemType() ItemType  { return Prices }
func (InsightPayload) ItemType() ItemType { return Insight }
func (MemePayload) ItemType() ItemType    { return Meme }

func EncodePayload(p Payload) (json.RawMessage, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", p.ItemType(), err)
	}
	return b, nil
}

func DecodePayload(t ItemType, raw json.RawMessage) (Payload, error) {
	var (
		p   Payload
		err error
	)
	switch t {
	case News:
		var v NewsPayload
		err = json.Unmarshal(raw, &v)
		p = v
	case Prices:
		var v PricesPayload
		err = json.Unmarshal(raw, &v)
		p = v
	case Insight:
		var v InsightPayload
		err = json.Unmarshal(raw, &v)
		p = v
	case Meme:
		var v MemePayload
		err = json.Unmarshal(raw, &v)
		p = v
	default:
		return nil, fmt.Errorf("unknown item type %q", t)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", t, err)
	}
	return p, nil
}
