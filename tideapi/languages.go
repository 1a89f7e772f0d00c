package tideapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

func (c *Client) Languages(ctx context.Context) ([]LanguageCode, error) {
	if len(c.languages) > 0 {
		return c.languages, nil
	}

	params := url.Values{}
	params.Set("tide_request", "languages")

	doc, err := c.provider.RetrieveDocument(ctx, c.url, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch languages: %w", err)
	}

	items, ok := doc.Lookup("tide", "languages", "lang")
	if !ok {
		return nil, newError(KindMalformedResponse, "no language list in response", "", nil)
	}

	var languages []LanguageCode
	for _, item := range items.Items() {
		languages = append(languages, LanguageCode{
			Code: item.Attr("code"),
			Name: item.Attr("name"),
		})
	}

	if len(languages) > 0 {
		c.languages = languages
	}
	return languages, nil
}

// RefLevels lists the reference levels available at a location. It is not
// cached.
func (c *Client) RefLevels(ctx context.Context, latitude, longitude float64, lang string) ([]ReferenceLevel, error) {
	if lang == "" {
		lang = DefaultLanguage
	}

	params := url.Values{}
	params.Set("tide_request", "standardlevels")
	params.Set("lang", lang)
	params.Set("lat", formatCoordinate(latitude))
	params.Set("lon", formatCoordinate(longitude))

	doc, err := c.provider.RetrieveDocument(ctx, c.url, params)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch reference levels: %w", err)
	}

	items, ok := doc.Lookup("tide", "standardlevels", "reflevel")
	if !ok {
		return nil, newError(KindMalformedResponse, "no reference levels in response", "", nil)
	}

	var levels []ReferenceLevel
	for _, item := range items.Items() {
		levels = append(levels, ReferenceLevel{
			Code:        item.Attr("code"),
			Name:        item.Attr("name"),
			Description: item.Attr("descr"),
		})
	}
	return levels, nil
}

func formatCoordinate(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
