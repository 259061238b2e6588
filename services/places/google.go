package places

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"Campfire/config/environment"
	"Campfire/models"

	"github.com/goccy/go-json"
)

const (
	detailsFieldMask = "id,displayName,formattedAddress,types,primaryType,priceLevel,rating,userRatingCount," +
		"editorialSummary,dineIn,takeout,delivery,reservable,location,googleMapsUri"
	areaFieldMask         = "places.id,places.location"
	autocompleteFieldMask = "suggestions.placePrediction.placeId,suggestions.placePrediction.text," +
		"suggestions.placePrediction.structuredFormat"
)

// GoogleProvider talks to the Places API (New) over HTTP
type GoogleProvider struct {
	apiKey   string
	baseURL  string
	language string
	client   *http.Client

	// lowercased area -> googleLatLng
	centres sync.Map
}

func NewGoogleProvider(cfg environment.PlacesConfig) *GoogleProvider {
	return &GoogleProvider{
		apiKey:   cfg.GoogleAPIKey,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		language: cfg.Language,
		client:   &http.Client{Timeout: cfg.Timeout},
	}
}

func (g *GoogleProvider) Name() string { return models.ProviderGoogle }

type googleText struct {
	Text string `json:"text"`
}

type googleLatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type googlePlace struct {
	ID               string        `json:"id"`
	DisplayName      *googleText   `json:"displayName"`
	FormattedAddress string        `json:"formattedAddress"`
	Types            []string      `json:"types"`
	PrimaryType      string        `json:"primaryType"`
	PriceLevel       string        `json:"priceLevel"`
	Rating           *float64      `json:"rating"`
	UserRatingCount  *int          `json:"userRatingCount"`
	EditorialSummary *googleText   `json:"editorialSummary"`
	DineIn           *bool         `json:"dineIn"`
	Takeout          *bool         `json:"takeout"`
	Delivery         *bool         `json:"delivery"`
	Reservable       *bool         `json:"reservable"`
	Location         *googleLatLng `json:"location"`
	GoogleMapsURI    string        `json:"googleMapsUri"`
}

func (p googlePlace) toModel() models.Place {
	place := models.Place{
		PlaceID:         p.ID,
		Address:         p.FormattedAddress,
		Categories:      p.Types,
		PriceLevel:      p.PriceLevel,
		Rating:          p.Rating,
		UserRatingCount: p.UserRatingCount,
		PrimaryType:     p.PrimaryType,
		ServesDineIn:    p.DineIn,
		ServesTakeout:   p.Takeout,
		ServesDelivery:  p.Delivery,
		Reservable:      p.Reservable,
		MapsLink:        p.GoogleMapsURI,
	}
	if p.DisplayName != nil {
		place.Name = p.DisplayName.Text
	}
	if p.EditorialSummary != nil {
		place.EditorialSummary = p.EditorialSummary.Text
	}
	if p.Location != nil {
		place.Location = &models.GeoLocation{Latitude: p.Location.Latitude, Longitude: p.Location.Longitude}
	}
	return place
}

func (g *GoogleProvider) GetDetails(ctx context.Context, placeID string) (*models.Place, error) {
	endpoint := g.baseURL + "/places/" + url.PathEscape(placeID)
	if g.language != "" {
		endpoint += "?languageCode=" + url.QueryEscape(g.language)
	}

	var raw googlePlace
	if err := g.do(ctx, http.MethodGet, endpoint, detailsFieldMask, nil, &raw); err != nil {
		return nil, err
	}
	place := raw.toModel()
	return &place, nil
}

type searchNearbyRequest struct {
	IncludedTypes       []string `json:"includedTypes"`
	MaxResultCount      int      `json:"maxResultCount"`
	LanguageCode        string   `json:"languageCode,omitempty"`
	RankPreference      string   `json:"rankPreference"`
	LocationRestriction struct {
		Circle struct {
			Center googleLatLng `json:"center"`
			Radius float64      `json:"radius"`
		} `json:"circle"`
	} `json:"locationRestriction"`
}

type placesResponse struct {
	Places []googlePlace `json:"places"`
}

// SearchNearby resolves the area to a centre point with a text search, then
// runs a circular nearby search around it
func (g *GoogleProvider) SearchNearby(ctx context.Context, q SearchQuery) ([]models.Place, error) {
	centre, err := g.areaCentre(ctx, q.Area())
	if err != nil {
		return nil, err
	}

	body := searchNearbyRequest{
		IncludedTypes:  IncludedTypes(q.Types),
		MaxResultCount: q.MaxResults,
		LanguageCode:   g.language,
		RankPreference: "POPULARITY",
	}
	body.LocationRestriction.Circle.Center = centre
	body.LocationRestriction.Circle.Radius = float64(q.Radius)

	mask := "places." + strings.ReplaceAll(detailsFieldMask, ",", ",places.")
	var resp placesResponse
	if err := g.do(ctx, http.MethodPost, g.baseURL+"/places:searchNearby", mask, body, &resp); err != nil {
		return nil, err
	}

	out := make([]models.Place, 0, len(resp.Places))
	for _, p := range resp.Places {
		out = append(out, p.toModel())
	}
	return out, nil
}

type searchTextRequest struct {
	TextQuery      string `json:"textQuery"`
	MaxResultCount int    `json:"maxResultCount"`
	LanguageCode   string `json:"languageCode,omitempty"`
}

func (g *GoogleProvider) areaCentre(ctx context.Context, area string) (googleLatLng, error) {
	key := strings.ToLower(area)
	if c, ok := g.centres.Load(key); ok {
		return c.(googleLatLng), nil
	}

	var resp placesResponse
	req := searchTextRequest{TextQuery: area, MaxResultCount: 1, LanguageCode: g.language}
	if err := g.do(ctx, http.MethodPost, g.baseURL+"/places:searchText", areaFieldMask, req, &resp); err != nil {
		return googleLatLng{}, fmt.Errorf("locate %q: %w", area, err)
	}
	if len(resp.Places) == 0 || resp.Places[0].Location == nil {
		return googleLatLng{}, fmt.Errorf("locate %q: %w", area, ErrNotFound)
	}
	centre := *resp.Places[0].Location
	g.centres.Store(key, centre)
	return centre, nil
}

type autocompleteRequest struct {
	Input                string   `json:"input"`
	IncludedPrimaryTypes []string `json:"includedPrimaryTypes"`
	LanguageCode         string   `json:"languageCode,omitempty"`
}

type autocompleteResponse struct {
	Suggestions []struct {
		PlacePrediction *struct {
			PlaceID          string     `json:"placeId"`
			Text             googleText `json:"text"`
			StructuredFormat struct {
				MainText      googleText `json:"mainText"`
				SecondaryText googleText `json:"secondaryText"`
			} `json:"structuredFormat"`
		} `json:"placePrediction"`
	} `json:"suggestions"`
}

func (g *GoogleProvider) Autocomplete(ctx context.Context, input, city string) ([]models.PlaceSuggestion, error) {
	req := autocompleteRequest{
		Input:                strings.TrimSpace(input + " in " + city),
		IncludedPrimaryTypes: []string{"restaurant", "cafe", "bar", "bakery", "meal_takeaway"},
		LanguageCode:         g.language,
	}
	var resp autocompleteResponse
	if err := g.do(ctx, http.MethodPost, g.baseURL+"/places:autocomplete", autocompleteFieldMask, req, &resp); err != nil {
		return nil, err
	}

	out := make([]models.PlaceSuggestion, 0, len(resp.Suggestions))
	for _, s := range resp.Suggestions {
		p := s.PlacePrediction
		if p == nil || p.PlaceID == "" {
			continue
		}
		name := p.StructuredFormat.MainText.Text
		if name == "" {
			name = p.Text.Text
		}
		out = append(out, models.PlaceSuggestion{
			PlaceID:     p.PlaceID,
			Name:        name,
			Description: p.StructuredFormat.SecondaryText.Text,
		})
	}
	return out, nil
}

func (g *GoogleProvider) do(ctx context.Context, method, endpoint, fieldMask string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode places request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("build places request: %w", err)
	}
	req.Header.Set("X-Goog-Api-Key", g.apiKey)
	req.Header.Set("X-Goog-FieldMask", fieldMask)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("places request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("places api %s: %s", resp.Status, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode places response: %w", err)
	}
	return nil
}
