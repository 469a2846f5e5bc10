package models

// JobType константы типов работ
const (
	JobTypeSnowRemoval = "snow_removal"
	JobTypeLawnCare    = "lawn_care"
	JobTypeHandyman    = "handyman"
	JobTypePlumbing    = "plumbing"
	JobTypeElectrical  = "electrical"
	JobTypeCarpentry   = "carpentry"
	JobTypeOther       = "other"
)

// SeverityLevel константы сложности работ
const (
	SeverityLight    = "light"
	SeverityModerate = "moderate"
	SeverityHeavy    = "heavy"
	SeveritySevere   = "severe"
)

// JobStatus константы статусов заявок
const (
	JobStatusPending    = "pending"
	JobStatusAssigned   = "assigned"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusCancelled  = "cancelled"
	JobStatusExpired    = "expired"
)

// ProviderStatus константы статусов исполнителей
const (
	ProviderStatusPending   = "pending"
	ProviderStatusVerified  = "verified"
	ProviderStatusSuspended = "suspended"
	ProviderStatusRejected  = "rejected"
)

// DocumentType константы типов документов верификации
const (
	DocumentTypeID            = "id"
	DocumentTypeLicense       = "license"
	DocumentTypeInsurance     = "insurance"
	DocumentTypeCertification = "certification"
)

// Роли в JWT токене
const (
	RoleUser     = "user"
	RoleProvider = "provider"
	RoleAdmin    = "admin"
)

// ValidJobTypes список валидных типов работ
var ValidJobTypes = map[string]struct{}{
	JobTypeSnowRemoval: {},
	JobTypeLawnCare:    {},
	JobTypeHandyman:    {},
	JobTypePlumbing:    {},
	JobTypeElectrical:  {},
	JobTypeCarpentry:   {},
	JobTypeOther:       {},
}

// ValidSeverityLevels список валидных уровней сложности
var ValidSeverityLevels = map[string]struct{}{
	SeverityLight:    {},
	SeverityModerate: {},
	SeverityHeavy:    {},
	SeveritySevere:   {},
}

// ValidJobStatuses список валидных статусов заявок
var ValidJobStatuses = map[string]struct{}{
	JobStatusPending:    {},
	JobStatusAssigned:   {},
	JobStatusInProgress: {},
	JobStatusCompleted:  {},
	JobStatusCancelled:  {},
	JobStatusExpired:    {},
}

// ValidProviderStatuses список валидных статусов исполнителей
var ValidProviderStatuses = map[string]struct{}{
	ProviderStatusPending:   {},
	ProviderStatusVerified:  {},
	ProviderStatusSuspended: {},
	ProviderStatusRejected:  {},
}

// ValidDocumentTypes список валидных типов документов
var ValidDocumentTypes = map[string]struct{}{
	DocumentTypeID:            {},
	DocumentTypeLicense:       {},
	DocumentTypeInsurance:     {},
	DocumentTypeCertification: {},
}

// jobStatusTransitions задаёт разрешённые переходы жизненного цикла заявки.
// Терминальные статусы (completed, cancelled, expired) переходов не имеют.
var jobStatusTransitions = map[string]map[string]struct{}{
	JobStatusPending: {
		JobStatusAssigned:  {},
		JobStatusCancelled: {},
		JobStatusExpired:   {},
	},
	JobStatusAssigned: {
		JobStatusInProgress: {},
		JobStatusCancelled:  {},
	},
	JobStatusInProgress: {
		JobStatusCompleted: {},
	},
}

// CanTransitionJobStatus сообщает, разрешён ли переход заявки из одного статуса в другой.
func CanTransitionJobStatus(from, to string) bool {
	next, ok := jobStatusTransitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// IsTerminalJobStatus сообщает, является ли статус заявки терминальным.
func IsTerminalJobStatus(status string) bool {
	_, ok := jobStatusTransitions[status]
	return !ok
}
