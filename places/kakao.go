package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const kakaoSearchURL = "https://dapi.kakao.com/v2/local/search/keyword.json"

var ErrMissingAPIKey = errors.New("kakao REST API key is not configured")

// Place — нормализованный результат поиска места.
type Place struct {
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	RoadAddress *string  `json:"road_address,omitempty"`
	Latitude    float64  `json:"latitude"`
	Longitude   float64  `json:"longitude"`
	Phone       *string  `json:"phone,omitempty"`
	Distance    *int     `json:"distance,omitempty"` // метры, только при поиске от координат
}

// SearchOptions — необязательные координаты для сортировки по расстоянию.
type SearchOptions struct {
	Longitude *float64
	Latitude  *float64
	Radius    *int // метры
}

// Searcher — контракт поиска мест; вне ядра доменных правил.
type Searcher interface {
	Search(ctx context.Context, query string, opts *SearchOptions) ([]Place, error)
}

// KakaoClient ищет места через Kakao Local API.
type KakaoClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

func NewKakaoClient(apiKey string, timeout time.Duration) *KakaoClient {
	return &KakaoClient{
		apiKey:     apiKey,
		baseURL:    kakaoSearchURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type kakaoDocument struct {
	PlaceName       string `json:"place_name"`
	AddressName     string `json:"address_name"`
	RoadAddressName string `json:"road_address_name"`
	X               string `json:"x"` // долгота
	Y               string `json:"y"` // широта
	Phone           string `json:"phone"`
	Distance        string `json:"distance"`
}

type kakaoSearchResponse struct {
	Documents []kakaoDocument `json:"documents"`
}

func (c *KakaoClient) Search(ctx context.Context, query string, opts *SearchOptions) ([]Place, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	params := url.Values{}
	params.Set("query", query)
	params.Set("size", "15")
	params.Set("sort", "accuracy")
	if opts != nil && opts.Longitude != nil && opts.Latitude != nil {
		params.Set("x", strconv.FormatFloat(*opts.Longitude, 'f', -1, 64))
		params.Set("y", strconv.FormatFloat(*opts.Latitude, 'f', -1, 64))
		params.Set("sort", "distance")
		if opts.Radius != nil {
			params.Set("radius", strconv.Itoa(*opts.Radius))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build kakao request: %w", err)
	}
	req.Header.Set("Authorization", "KakaoAK "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("kakao place search failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("kakao place search returned status %d", resp.StatusCode)
	}

	var result kakaoSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode kakao response: %w", err)
	}

	resultPlaces := make([]Place, 0, len(result.Documents))
	for _, doc := range result.Documents {
		place, err := doc.toPlace()
		if err != nil {
			// Документ с некорректными координатами пропускаем.
			continue
		}
		resultPlaces = append(resultPlaces, place)
	}
	return resultPlaces, nil
}

func (d kakaoDocument) toPlace() (Place, error) {
	longitude, err := strconv.ParseFloat(d.X, 64)
	if err != nil {
		return Place{}, fmt.Errorf("invalid longitude %q: %w", d.X, err)
	}
	latitude, err := strconv.ParseFloat(d.Y, 64)
	if err != nil {
		return Place{}, fmt.Errorf("invalid latitude %q: %w", d.Y, err)
	}

	place := Place{
		Name:      d.PlaceName,
		Address:   d.AddressName,
		Latitude:  latitude,
		Longitude: longitude,
	}
	if d.RoadAddressName != "" {
		road := d.RoadAddressName
		place.RoadAddress = &road
	}
	if d.Phone != "" {
		phone := d.Phone
		place.Phone = &phone
	}
	if d.Distance != "" {
		if distance, err := strconv.Atoi(d.Distance); err == nil {
			place.Distance = &distance
		}
	}
	return place, nil
}

// StaticMapURL — ссылка на статичную карту OpenStreetMap с маркером.
func StaticMapURL(lat, lon float64, width, height int) string {
	return fmt.Sprintf(
		"https://staticmap.openstreetmap.de/staticmap.php?center=%f,%f&zoom=16&size=%dx%d&maptype=mapnik&markers=%f,%f,red-pushpin",
		lat, lon, width, height, lat, lon,
	)
}

// PlaceKeyword строит поисковый запрос по названию вида спорта и региону.
func PlaceKeyword(sportName string, region *string) string {
	keyword := sportName + " court"
	if region != nil && *region != "" {
		return *region + " " + keyword
	}
	return keyword
}
