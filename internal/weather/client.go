// Package weather получает текущие погодные условия для ценообразования.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/handymanapp/handyman-backend/internal/pricing"
)

// Client ходит в OpenWeatherMap за текущей погодой.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient создаёт экземпляр клиента. Пустой apiKey допустим:
// в этом случае Current вернёт nil и цена считается без погодного множителя.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// currentResponse - нужная нам часть ответа OpenWeatherMap.
type currentResponse struct {
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
}

// Current возвращает погодные условия в точке или nil, если сервис недоступен
// либо ключ не настроен. Погода необязательна для расчёта цены.
func (c *Client) Current(ctx context.Context, lat, lon float64) (*pricing.Weather, error) {
	if c.apiKey == "" {
		return nil, nil
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("weather: не удалось создать запрос: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather: запрос не выполнен: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather: сервис вернул статус %d", resp.StatusCode)
	}

	var parsed currentResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("weather: не удалось разобрать ответ: %w", err)
	}

	conditions := &pricing.Weather{TemperatureC: parsed.Main.Temp}
	if len(parsed.Weather) > 0 {
		conditions.Condition = parsed.Weather[0].Main
	}

	return conditions, nil
}
