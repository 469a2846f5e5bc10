package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/handymanapp/handyman-backend/internal/models"
)

func ptrFloat(v float64) *float64 { return &v }
func ptrStr(v string) *string     { return &v }

func TestEngine_Estimate_SnowRemovalBySquareFootage(t *testing.T) {
	engine := NewEngine(2.2)

	quote := engine.Estimate(models.JobTypeSnowRemoval, ptrStr(models.SeverityHeavy), ptrFloat(1000), nil, 10)

	// 1000 кв. футов * 0.20 = 200, сложность heavy 1.7
	assert.Equal(t, 200.0, quote.BasePrice)
	assert.Equal(t, 1.7, quote.SeverityMultiplier)
	assert.Equal(t, 1.0, quote.WeatherMultiplier)
	assert.Equal(t, 1.0, quote.SurgeMultiplier)
	assert.Equal(t, 340.0, quote.EstimatedPrice)
	assert.Equal(t, 340.0, quote.FinalPrice)
}

func TestEngine_Estimate_FlatRateJobTypes(t *testing.T) {
	engine := NewEngine(2.2)

	tests := []struct {
		jobType string
		base    float64
	}{
		{models.JobTypeHandyman, 50.0},
		{models.JobTypePlumbing, 75.0},
		{models.JobTypeElectrical, 85.0},
		{models.JobTypeCarpentry, 60.0},
		{models.JobTypeOther, 50.0},
	}

	for _, tt := range tests {
		quote := engine.Estimate(tt.jobType, nil, nil, nil, 10)
		assert.Equal(t, tt.base, quote.BasePrice, tt.jobType)
		assert.Equal(t, tt.base, quote.EstimatedPrice, tt.jobType)
	}
}

func TestEngine_Estimate_MinimumPriceFloor(t *testing.T) {
	engine := NewEngine(2.2)

	// 50 кв. футов * 0.20 = 10, но минимум для уборки снега 40
	quote := engine.Estimate(models.JobTypeSnowRemoval, ptrStr(models.SeverityLight), ptrFloat(50), nil, 10)
	assert.Equal(t, 40.0, quote.EstimatedPrice)
}

func TestEngine_Estimate_WeatherMultipliers(t *testing.T) {
	engine := NewEngine(2.2)

	tests := []struct {
		name    string
		jobType string
		weather *Weather
		want    float64
	}{
		{"снегопад для уборки снега", models.JobTypeSnowRemoval, &Weather{Condition: "Snow", TemperatureC: -5}, 1.5},
		{"мороз без снегопада", models.JobTypeSnowRemoval, &Weather{Condition: "Clear", TemperatureC: -10}, 1.3},
		{"плюсовая температура", models.JobTypeSnowRemoval, &Weather{Condition: "Clear", TemperatureC: 5}, 1.0},
		{"дождь для работ на участке", models.JobTypeLawnCare, &Weather{Condition: "Rain", TemperatureC: 15}, 1.2},
		{"гроза для работ на участке", models.JobTypeLawnCare, &Weather{Condition: "Thunderstorm", TemperatureC: 20}, 1.2},
		{"погода не влияет на сантехнику", models.JobTypePlumbing, &Weather{Condition: "Snow", TemperatureC: -5}, 1.0},
		{"нет данных о погоде", models.JobTypeSnowRemoval, nil, 1.0},
	}

	for _, tt := range tests {
		quote := engine.Estimate(tt.jobType, nil, ptrFloat(1000), tt.weather, 10)
		assert.Equal(t, tt.want, quote.WeatherMultiplier, tt.name)
	}
}

func TestEngine_SurgeMultiplier(t *testing.T) {
	engine := NewEngine(2.2)

	tests := []struct {
		nearby int
		want   float64
	}{
		{15, 1.0},
		{10, 1.0},
		{7, 1.2},
		{5, 1.2},
		{3, 1.5},
		{2, 1.8},
		{1, 1.8},
		{0, 2.2},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, engine.SurgeMultiplier(tt.nearby))
	}
}

func TestEngine_Estimate_FinalPriceInvariant(t *testing.T) {
	engine := NewEngine(2.2)

	quote := engine.Estimate(models.JobTypeLawnCare, ptrStr(models.SeverityModerate), ptrFloat(800), &Weather{Condition: "Rain"}, 0)

	// 800 * 0.15 = 120, сложность 1.3, дождь 1.2, surge 2.2
	assert.Equal(t, 187.2, quote.EstimatedPrice)
	assert.Equal(t, 2.2, quote.SurgeMultiplier)
	assert.InDelta(t, quote.EstimatedPrice*quote.SurgeMultiplier, quote.FinalPrice, 0.01)
}

func TestEngine_Estimate_UnknownSeverityIgnored(t *testing.T) {
	engine := NewEngine(2.2)

	quote := engine.Estimate(models.JobTypeHandyman, ptrStr("catastrophic"), nil, nil, 10)
	assert.Equal(t, 1.0, quote.SeverityMultiplier)
	assert.Equal(t, 50.0, quote.EstimatedPrice)
}
