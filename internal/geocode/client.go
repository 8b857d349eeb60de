package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound возвращается, когда геокодер не нашёл ни одного совпадения.
// Это ошибка входных данных: пользователь может уточнить адрес.
var ErrNotFound = errors.New("место не найдено")

// ErrUnavailable возвращается при инфраструктурном сбое провайдера
// (сеть, авторизация, квота). Пользователь исправить её не может.
var ErrUnavailable = errors.New("сервис геокодирования недоступен")

// Point хранит результат геокодирования с именованными координатами.
// Преобразование в массив [lng, lat] выполняется только в models.NewGeoPoint.
type Point struct {
	Lng float64
	Lat float64
}

// Client запрашивает координаты у OpenCage Geocoding API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient создаёт клиента геокодера.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// openCageResponse описывает ровно те поля ответа, которые нам нужны.
type openCageResponse struct {
	Results []struct {
		Geometry struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"geometry"`
	} `json:"results"`
	Status struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"status"`
}

// Resolve выполняет один синхронный запрос к геокодеру и возвращает
// координаты лучшего совпадения. Ранжирование провайдера принимается
// как есть: берём первый результат. Повторных попыток нет — политика
// ретраев принадлежит вызывающему коду (у нас её нет).
func (c *Client) Resolve(ctx context.Context, freeText string) (Point, error) {
	if strings.TrimSpace(freeText) == "" {
		return Point{}, fmt.Errorf("geocode: пустой запрос: %w", ErrNotFound)
	}

	query := url.Values{}
	query.Set("q", freeText)
	query.Set("key", c.apiKey)
	query.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return Point{}, fmt.Errorf("geocode: не удалось собрать запрос: %w", errors.Join(ErrUnavailable, err))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Point{}, fmt.Errorf("geocode: запрос к провайдеру не прошёл: %w", errors.Join(ErrUnavailable, err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Point{}, fmt.Errorf("geocode: провайдер вернул статус %d: %w", resp.StatusCode, ErrUnavailable)
	}

	var parsed openCageResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Point{}, fmt.Errorf("geocode: не удалось разобрать ответ: %w", errors.Join(ErrUnavailable, err))
	}

	if len(parsed.Results) == 0 {
		return Point{}, ErrNotFound
	}

	geom := parsed.Results[0].Geometry
	return Point{Lng: geom.Lng, Lat: geom.Lat}, nil
}
