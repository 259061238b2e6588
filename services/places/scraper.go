package places

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"Campfire/config/environment"
	"Campfire/logging"
	"Campfire/models"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

const mapsBaseURL = "https://www.google.com/maps"

var (
	// maps links embed the place id and coordinates in the data= segment
	placeIDPattern = regexp.MustCompile(`!19s(ChIJ[^!?&/]+)`)
	featurePattern = regexp.MustCompile(`!1s(0x[0-9a-f]+:0x[0-9a-f]+)`)
	latPattern     = regexp.MustCompile(`!3d(-?\d+(?:\.\d+)?)`)
	lngPattern     = regexp.MustCompile(`!4d(-?\d+(?:\.\d+)?)`)
	digitsPattern  = regexp.MustCompile(`[^\d]`)
)

// MapsScraper reads Google Maps result pages with headless Chrome. It needs
// no API key but is slow, so searches scroll a bounded number of times.
type MapsScraper struct {
	baseURL  string
	language string
	timeout  time.Duration
	scrolls  int
}

func NewMapsScraper(cfg environment.PlacesConfig) *MapsScraper {
	return &MapsScraper{
		baseURL:  mapsBaseURL,
		language: cfg.Language,
		timeout:  cfg.Timeout,
		scrolls:  5,
	}
}

func (m *MapsScraper) Name() string { return models.ProviderMapsScraper }

func (m *MapsScraper) SearchNearby(ctx context.Context, q SearchQuery) ([]models.Place, error) {
	query := searchPhrase(q.Types) + " in " + q.Area()
	places, err := m.searchPage(ctx, query)
	if err != nil {
		return nil, err
	}
	if q.MaxResults > 0 && len(places) > q.MaxResults {
		places = places[:q.MaxResults]
	}
	return places, nil
}

func (m *MapsScraper) Autocomplete(ctx context.Context, input, city string) ([]models.PlaceSuggestion, error) {
	places, err := m.searchPage(ctx, input+" in "+city)
	if err != nil {
		return nil, err
	}
	out := make([]models.PlaceSuggestion, 0, len(places))
	for _, p := range places {
		if p.PlaceID == "" {
			continue
		}
		out = append(out, models.PlaceSuggestion{PlaceID: p.PlaceID, Name: p.Name, Description: p.Address})
		if len(out) == 5 {
			break
		}
	}
	return out, nil
}

func (m *MapsScraper) GetDetails(ctx context.Context, placeID string) (*models.Place, error) {
	pageURL := fmt.Sprintf("%s/place/?q=place_id:%s&hl=%s", m.baseURL, url.QueryEscape(placeID), m.lang())

	var pageHTML string
	err := m.run(ctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitVisible(`h1`, chromedp.ByQuery),
		chromedp.OuterHTML("body", &pageHTML),
	)
	if err != nil {
		return nil, fmt.Errorf("load place page %s: %w", placeID, err)
	}

	place, err := extractDetails(pageHTML)
	if err != nil {
		return nil, err
	}
	if !place.HasName() {
		return nil, ErrNotFound
	}
	place.PlaceID = placeID
	return place, nil
}

func (m *MapsScraper) searchPage(ctx context.Context, query string) ([]models.Place, error) {
	pageURL := fmt.Sprintf("%s/search/%s/?hl=%s", m.baseURL, url.PathEscape(query), m.lang())

	var pageHTML string
	logging.Ctx(ctx).Debug().Str("url", pageURL).Msg("Scraping maps search page")
	err := m.run(ctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitVisible(`div[role="feed"]`, chromedp.ByQuery),
		scrollFeed(m.scrolls),
		chromedp.OuterHTML("body", &pageHTML),
	)
	if err != nil {
		return nil, fmt.Errorf("load search page %q: %w", query, err)
	}
	return extractPlaces(pageHTML)
}

func (m *MapsScraper) run(ctx context.Context, actions ...chromedp.Action) error {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("lang", m.lang()),
	)...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancel := context.WithTimeout(browserCtx, m.timeout)
	defer cancel()

	return chromedp.Run(browserCtx, actions...)
}

func (m *MapsScraper) lang() string {
	if m.language == "" {
		return "en"
	}
	return m.language
}

func scrollFeed(times int) chromedp.Tasks {
	var tasks chromedp.Tasks
	for i := 0; i < times; i++ {
		tasks = append(tasks,
			chromedp.Evaluate(`document.querySelector('div[role="feed"]').scrollBy(0, 800);`, nil),
			chromedp.Sleep(500*time.Millisecond),
		)
	}
	return tasks
}

func searchPhrase(types []string) string {
	for _, t := range IncludedTypes(types)[1:] {
		switch t {
		case "fine_dining_restaurant":
			return "fine dining restaurants"
		case "bar":
			return "bars and restaurants"
		}
	}
	return "restaurants"
}

// extractPlaces reads the result cards of a maps search page
func extractPlaces(html string) ([]models.Place, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	var places []models.Place
	doc.Find(".Nv2PK").Each(func(i int, s *goquery.Selection) {
		name := strings.TrimSpace(s.Find(".qBF1Pd").First().Text())
		if name == "" {
			return
		}
		link := s.Find("a[href]").First().AttrOr("href", "")
		place := models.Place{
			PlaceID:         placeIDFromLink(link),
			Name:            name,
			Rating:          parseRating(s.Find(".MW4etd").First().Text()),
			UserRatingCount: parseCount(s.Find(".UY7F9").First().Text()),
			MapsLink:        link,
			ImageURL:        s.Find("img").First().AttrOr("src", ""),
			Location:        locationFromLink(link),
		}

		// second info row: "Category · $$ · Address"
		var parts []string
		s.Find(".W4Efsd .W4Efsd").First().Find("span").Each(func(_ int, span *goquery.Selection) {
			if span.Children().Length() > 0 {
				return
			}
			if text := strings.Trim(strings.TrimSpace(span.Text()), "·"); strings.TrimSpace(text) != "" {
				parts = append(parts, strings.TrimSpace(text))
			}
		})
		for _, part := range parts {
			switch {
			case place.PriceLevel == "" && isPriceMarker(part):
				place.PriceLevel = priceLevelFromMarker(part)
			case len(place.Categories) == 0:
				place.Categories = []string{part}
				place.PrimaryType = categoryToType(part)
			case place.Address == "":
				place.Address = part
			}
		}
		places = append(places, place)
	})
	return places, nil
}

// extractDetails reads a single place page
func extractDetails(html string) (*models.Place, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse place page: %w", err)
	}

	place := &models.Place{
		Name:    strings.TrimSpace(doc.Find("h1.DUwDvf").First().Text()),
		Address: strings.TrimSpace(doc.Find(`button[data-item-id="address"] .Io6YTe`).First().Text()),
	}
	if place.Name == "" {
		place.Name = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	place.Rating = parseRating(doc.Find(`div.F7nice span[aria-hidden="true"]`).First().Text())
	place.UserRatingCount = parseCount(doc.Find(`div.F7nice span[aria-label]`).Last().Text())
	if category := strings.TrimSpace(doc.Find("button.DkEaL").First().Text()); category != "" {
		place.Categories = []string{category}
		place.PrimaryType = categoryToType(category)
	}
	if marker := strings.TrimSpace(doc.Find(`span[aria-label^="Price"]`).First().Text()); isPriceMarker(marker) {
		place.PriceLevel = priceLevelFromMarker(marker)
	}
	place.EditorialSummary = strings.TrimSpace(doc.Find(".PYvSYb").First().Text())

	// service options render as "Dine-in", "Takeout", "Delivery" chips,
	// crossed out when unavailable
	doc.Find(`div[aria-label*="Service options"] li, .E0DTEd`).Each(func(_ int, s *goquery.Selection) {
		label := strings.ToLower(strings.TrimSpace(s.Text()))
		available := s.Find(`[aria-label*="No "], .G8aQO`).Length() == 0 && !strings.HasPrefix(label, "no ")
		switch {
		case strings.Contains(label, "dine-in"):
			place.ServesDineIn = &available
		case strings.Contains(label, "takeout"), strings.Contains(label, "takeaway"):
			place.ServesTakeout = &available
		case strings.Contains(label, "delivery"):
			place.ServesDelivery = &available
		case strings.Contains(label, "reservation"):
			place.Reservable = &available
		}
	})
	return place, nil
}

func placeIDFromLink(link string) string {
	if link == "" {
		return ""
	}
	if decoded, err := url.QueryUnescape(link); err == nil {
		link = decoded
	}
	if m := placeIDPattern.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	if m := featurePattern.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	return ""
}

func locationFromLink(link string) *models.GeoLocation {
	lat := latPattern.FindStringSubmatch(link)
	lng := lngPattern.FindStringSubmatch(link)
	if lat == nil || lng == nil {
		return nil
	}
	la, err1 := strconv.ParseFloat(lat[1], 64)
	lo, err2 := strconv.ParseFloat(lng[1], 64)
	if err1 != nil || err2 != nil {
		return nil
	}
	return &models.GeoLocation{Latitude: la, Longitude: lo}
}

func parseRating(text string) *float64 {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	if text == "" {
		return nil
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || v < 0 || v > 5 {
		return nil
	}
	return &v
}

func parseCount(text string) *int {
	digits := digitsPattern.ReplaceAllString(text, "")
	if digits == "" {
		return nil
	}
	v, err := strconv.Atoi(digits)
	if err != nil {
		return nil
	}
	return &v
}

func isPriceMarker(s string) bool {
	s = strings.TrimSpace(s)
	return s != "" && strings.Trim(s, "$€£") == ""
}

func priceLevelFromMarker(marker string) string {
	switch len([]rune(strings.TrimSpace(marker))) {
	case 1:
		return models.PriceLevelInexpensive
	case 2:
		return models.PriceLevelModerate
	case 3:
		return models.PriceLevelExpensive
	default:
		return models.PriceLevelVeryExpensive
	}
}

// categoryToType turns a display category ("Cocktail bar") into a place
// type ("cocktail_bar")
func categoryToType(category string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(category)), " ", "_")
}
