// Package pricing считает стоимость заявки: базовая ставка по типу работ,
// множители сложности, погоды и спроса, минимальные цены.
package pricing

import (
	"math"

	"github.com/handymanapp/handyman-backend/internal/models"
)

// Ставки за квадратный фут для площадных работ.
var perSqFtRates = map[string]float64{
	models.JobTypeSnowRemoval: 0.20,
	models.JobTypeLawnCare:    0.15,
}

// Фиксированные базовые ставки для остальных типов работ.
var flatBaseRates = map[string]float64{
	models.JobTypeHandyman:   50.0,
	models.JobTypePlumbing:   75.0,
	models.JobTypeElectrical: 85.0,
	models.JobTypeCarpentry:  60.0,
	models.JobTypeOther:      50.0,
}

// Минимальная цена по типу работ.
var minimumPrices = map[string]float64{
	models.JobTypeSnowRemoval: 40.0,
	models.JobTypeLawnCare:    35.0,
	models.JobTypeHandyman:    50.0,
	models.JobTypePlumbing:    75.0,
	models.JobTypeElectrical:  85.0,
	models.JobTypeCarpentry:   60.0,
	models.JobTypeOther:       40.0,
}

// Множители сложности.
var severityMultipliers = map[string]float64{
	models.SeverityLight:    1.0,
	models.SeverityModerate: 1.3,
	models.SeverityHeavy:    1.7,
	models.SeveritySevere:   2.2,
}

// Weather описывает текущие погодные условия в точке заявки.
type Weather struct {
	Condition    string
	TemperatureC float64
}

// Quote содержит разбивку рассчитанной цены.
// Инвариант: FinalPrice = EstimatedPrice * SurgeMultiplier (с округлением до цента).
type Quote struct {
	BasePrice          float64 `json:"base_price"`
	SeverityMultiplier float64 `json:"severity_multiplier"`
	WeatherMultiplier  float64 `json:"weather_multiplier"`
	SurgeMultiplier    float64 `json:"surge_multiplier"`
	EstimatedPrice     float64 `json:"estimated_price"`
	FinalPrice         float64 `json:"final_price"`
}

// Engine считает стоимость заявок.
type Engine struct {
	surgeMax float64
}

// NewEngine создаёт движок ценообразования с потолком surge множителя.
func NewEngine(surgeMax float64) *Engine {
	return &Engine{surgeMax: surgeMax}
}

// Estimate рассчитывает цену заявки. nearbyProviders - количество допущенных
// исполнителей рядом с точкой заявки, от него зависит surge множитель.
func (e *Engine) Estimate(jobType string, severity *string, squareFootage *float64, weather *Weather, nearbyProviders int) Quote {
	base := e.basePrice(jobType, squareFootage)

	severityMult := 1.0
	if severity != nil {
		if m, ok := severityMultipliers[*severity]; ok {
			severityMult = m
		}
	}

	weatherMult := weatherMultiplier(jobType, weather)
	surge := e.SurgeMultiplier(nearbyProviders)

	estimated := roundCents(base * severityMult * weatherMult)
	if min, ok := minimumPrices[jobType]; ok && estimated < min {
		estimated = min
	}

	return Quote{
		BasePrice:          roundCents(base),
		SeverityMultiplier: severityMult,
		WeatherMultiplier:  weatherMult,
		SurgeMultiplier:    surge,
		EstimatedPrice:     estimated,
		FinalPrice:         roundCents(estimated * surge),
	}
}

// SurgeMultiplier возвращает множитель спроса по количеству доступных
// исполнителей рядом: чем их меньше, тем дороже заявка.
func (e *Engine) SurgeMultiplier(nearbyProviders int) float64 {
	switch {
	case nearbyProviders >= 10:
		return 1.0
	case nearbyProviders >= 5:
		return 1.2
	case nearbyProviders >= 3:
		return 1.5
	case nearbyProviders >= 1:
		return 1.8
	default:
		return e.surgeMax
	}
}

// basePrice возвращает базовую цену по типу работ.
func (e *Engine) basePrice(jobType string, squareFootage *float64) float64 {
	if rate, ok := perSqFtRates[jobType]; ok {
		if squareFootage != nil && *squareFootage > 0 {
			return rate * *squareFootage
		}
		return minimumPrices[jobType]
	}

	if base, ok := flatBaseRates[jobType]; ok {
		return base
	}
	return flatBaseRates[models.JobTypeOther]
}

// weatherMultiplier возвращает погодный множитель для типа работ.
// Снегопад и мороз удорожают уборку снега, дождь - работы на участке.
func weatherMultiplier(jobType string, weather *Weather) float64 {
	if weather == nil {
		return 1.0
	}

	switch jobType {
	case models.JobTypeSnowRemoval:
		if weather.Condition == "Snow" {
			return 1.5
		}
		if weather.TemperatureC <= 0 {
			return 1.3
		}
	case models.JobTypeLawnCare:
		if weather.Condition == "Rain" || weather.Condition == "Drizzle" || weather.Condition == "Thunderstorm" {
			return 1.2
		}
	}

	return 1.0
}

// roundCents округляет сумму до цента.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
