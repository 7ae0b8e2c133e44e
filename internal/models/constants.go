package models

const (
	StatusActive    = "active"
	StatusCanceled  = "canceled"
	StatusCompleted = "completed"
)

// Availability states of the booking interaction flow.
const (
	AvailUnknown     = "unknown"
	AvailChecking    = "checking"
	AvailAvailable   = "available"
	AvailUnavailable = "unavailable"
)

// Submission states of the booking interaction flow.
const (
	SubmitIdle       = "idle"
	SubmitInProgress = "submitting"
	SubmitSucceeded  = "succeeded"
	SubmitFailed     = "failed"
)

// DeskTypes an administrator may assign when placing a desk.
var DeskTypes = []string{"standard", "standing", "corner", "executive"}

// DeskFeatures are the known feature tags.
var DeskFeatures = []string{
	"monitor", "docking", "ergonomic", "adjustable",
	"privacy", "power", "usb", "ethernet",
}

const (
	// DefaultFlowTTL время жизни состояния сессии бронирования в Redis
	DefaultFlowTTL = 24 * 60 * 60 // 24 часа в секундах

	// DesksCacheTTL время жизни кэша списка столов
	DesksCacheTTL = 5 * 60 // 5 минут в секундах

	// RoomsCacheTTL время жизни кэша списка комнат
	RoomsCacheTTL = 30 * 60 // 30 минут в секундах

	// RateLimitRequests количество запросов сессии в окне
	RateLimitRequests = 30

	// RateLimitWindow окно ограничения частоты запросов
	RateLimitWindow = 60 // 1 минута в секундах

	// DefaultExportRangeDays диапазон экспорта расписания по умолчанию
	DefaultExportRangeDays = 14
)

func ValidDeskType(t string) bool {
	for _, known := range DeskTypes {
		if known == t {
			return true
		}
	}
	return false
}
