package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/handymanapp/handyman-backend/internal/models"
)

// Константы валидации
const (
	MinTitleLength       = 3
	MaxTitleLength       = 200
	MaxDescriptionLength = 5000
	MinFullNameLength    = 2
	MaxFullNameLength    = 100
	MaxAddressLength     = 300
	MaxCityLength        = 100
	MaxStateLength       = 100
	MaxZipCodeLength     = 20
	MaxReviewLength      = 2000
	MinRating            = 1
	MaxRating            = 5
	MinPrice             = 0.0
	MaxPrice             = 1000000.0
	MinHourlyRate        = 0.0
	MaxHourlyRate        = 10000.0
	MaxSearchRadiusKM    = 100.0
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.TrimSpace(email)
	email = strings.ToLower(email)

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	localPart := parts[0]
	domainPart := parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}

	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("доменная часть email должна быть от 1 до 255 символов")
	}

	emailRegex := regexp.MustCompile(`^[a-z0-9._+-]+$`)
	if !emailRegex.MatchString(localPart) {
		return fmt.Errorf("локальная часть email содержит недопустимые символы")
	}

	domainRegex := regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	if !domainRegex.MatchString(domainPart) {
		return fmt.Errorf("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateFullName проверяет имя.
func ValidateFullName(fullName string) error {
	if err := ValidateNonEmpty("имя", fullName); err != nil {
		return err
	}
	return ValidateLength("имя", strings.TrimSpace(fullName), MinFullNameLength, MaxFullNameLength)
}

// ValidateJobTitle проверяет заголовок заявки.
func ValidateJobTitle(title string) error {
	if err := ValidateNonEmpty("заголовок заявки", title); err != nil {
		return err
	}
	return ValidateLength("заголовок заявки", strings.TrimSpace(title), MinTitleLength, MaxTitleLength)
}

// ValidateJobDescription проверяет описание заявки.
func ValidateJobDescription(description *string) error {
	if description == nil || *description == "" {
		return nil
	}
	return ValidateLength("описание заявки", strings.TrimSpace(*description), 0, MaxDescriptionLength)
}

// ValidateJobType проверяет тип работы по справочнику.
func ValidateJobType(jobType string) error {
	if _, ok := models.ValidJobTypes[jobType]; !ok {
		return fmt.Errorf("неизвестный тип работы: %s", jobType)
	}
	return nil
}

// ValidateJobTypes проверяет список типов работ исполнителя.
func ValidateJobTypes(jobTypes []string) error {
	if len(jobTypes) == 0 {
		return fmt.Errorf("нужно указать хотя бы один тип работ")
	}

	seen := make(map[string]bool)
	for _, jt := range jobTypes {
		if err := ValidateJobType(jt); err != nil {
			return err
		}
		if seen[jt] {
			return fmt.Errorf("тип работы '%s' указан дважды", jt)
		}
		seen[jt] = true
	}

	return nil
}

// ValidateSeverity проверяет уровень сложности.
func ValidateSeverity(severity *string) error {
	if severity == nil || *severity == "" {
		return nil
	}
	if _, ok := models.ValidSeverityLevels[*severity]; !ok {
		return fmt.Errorf("неизвестный уровень сложности: %s", *severity)
	}
	return nil
}

// ValidateCoordinates проверяет широту и долготу.
func ValidateCoordinates(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("широта должна быть в диапазоне от -90 до 90")
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("долгота должна быть в диапазоне от -180 до 180")
	}
	return nil
}

// ValidateRadius проверяет радиус поиска в километрах.
func ValidateRadius(radiusKM float64) error {
	if radiusKM <= 0 {
		return fmt.Errorf("радиус поиска должен быть положительным")
	}
	if radiusKM > MaxSearchRadiusKM {
		return fmt.Errorf("радиус поиска не может превышать %.0f км", MaxSearchRadiusKM)
	}
	return nil
}

// ValidatePrice проверяет денежную величину.
func ValidatePrice(fieldName string, price float64) error {
	if price < MinPrice {
		return fmt.Errorf("%s не может быть отрицательной", fieldName)
	}
	if price > MaxPrice {
		return fmt.Errorf("%s не может превышать %.0f", fieldName, MaxPrice)
	}
	return nil
}

// ValidateSurgeMultiplier проверяет множитель спроса.
func ValidateSurgeMultiplier(multiplier float64) error {
	if multiplier < 0 {
		return fmt.Errorf("множитель спроса не может быть отрицательным")
	}
	return nil
}

// ValidateHourlyRate проверяет почасовую ставку.
func ValidateHourlyRate(rate *float64) error {
	if rate != nil {
		if *rate < MinHourlyRate {
			return fmt.Errorf("почасовая ставка не может быть отрицательной")
		}
		if *rate > MaxHourlyRate {
			return fmt.Errorf("почасовая ставка не может превышать %.0f", MaxHourlyRate)
		}
	}
	return nil
}

// ValidateRating проверяет оценку работы.
func ValidateRating(rating int) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("оценка должна быть от %d до %d", MinRating, MaxRating)
	}
	return nil
}

// ValidateReview проверяет текст отзыва.
func ValidateReview(review *string) error {
	if review == nil || *review == "" {
		return nil
	}
	return ValidateLength("отзыв", strings.TrimSpace(*review), 0, MaxReviewLength)
}

// ValidateDocumentType проверяет тип документа верификации.
func ValidateDocumentType(documentType string) error {
	if _, ok := models.ValidDocumentTypes[documentType]; !ok {
		return fmt.Errorf("неизвестный тип документа: %s", documentType)
	}
	return nil
}

// ValidateAddress проверяет поля адреса.
func ValidateAddress(address, city, state, zipCode string) error {
	if err := ValidateNonEmpty("адрес", address); err != nil {
		return err
	}
	if err := ValidateLength("адрес", address, 0, MaxAddressLength); err != nil {
		return err
	}
	if err := ValidateNonEmpty("город", city); err != nil {
		return err
	}
	if err := ValidateLength("город", city, 0, MaxCityLength); err != nil {
		return err
	}
	if err := ValidateNonEmpty("регион", state); err != nil {
		return err
	}
	if err := ValidateLength("регион", state, 0, MaxStateLength); err != nil {
		return err
	}
	if err := ValidateNonEmpty("почтовый индекс", zipCode); err != nil {
		return err
	}
	return ValidateLength("почтовый индекс", zipCode, 0, MaxZipCodeLength)
}

// ValidatePhone проверяет телефонный номер.
func ValidatePhone(phone string) error {
	if err := ValidateNonEmpty("телефон", phone); err != nil {
		return err
	}

	phoneRegex := regexp.MustCompile(`^\+?[0-9\s\-()]{5,20}$`)
	if !phoneRegex.MatchString(strings.TrimSpace(phone)) {
		return fmt.Errorf("некорректный формат телефона")
	}

	return nil
}
