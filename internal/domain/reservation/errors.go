package reservation

import "github.com/sanosuguru/go-restaurant-seating/internal/domain/apperr"

// Reservation ドメインのエラー定義
// メッセージは API 利用者向けのため英語で返す
var (
	ErrMissingData          = apperr.Validation("missing_data", "Body must have data property")
	ErrMissingField         = apperr.Validation("missing_field", "A required property is missing.")
	ErrPeopleNotNumber      = apperr.Validation("people_not_number", "The people field must be a number.")
	ErrPeopleTooFew         = apperr.Validation("people_too_few", "The reservation must be for at least 1 person.")
	ErrInvalidDate          = apperr.Validation("invalid_date", "The reservation_date field must be a valid date.")
	ErrInvalidTime          = apperr.Validation("invalid_time", "The reservation_time field must be a valid time.")
	ErrPastReservation      = apperr.Validation("past_reservation", "The reservation must be in the future.")
	ErrClosedDay            = apperr.Validation("closed_day", "The restaurant is closed on that day.")
	ErrBeforeOpening        = apperr.Validation("before_opening", "The reservation must be after opening time.")
	ErrAfterClosing         = apperr.Validation("after_closing", "The reservation must be before closing time.")
	ErrInvalidMobileNumber  = apperr.Validation("invalid_mobile_number", "The mobile_number field must be a valid phone number.")
	ErrInvalidInitialStatus = apperr.Validation("invalid_initial_status", "Cannot create a reservation with that status.")
	ErrInvalidStatus        = apperr.Validation("invalid_status", "The status must be booked, seated, finished, or cancelled.")
	ErrImmutable            = apperr.Validation("reservation_immutable", "The reservation cannot be updated.")
	ErrTransitionNotAllowed = apperr.Validation("transition_not_allowed", "The status transition is not allowed.")
	ErrAlreadySeated        = apperr.Validation("reservation_already_seated", "The reservation is already seated.")
	ErrNotSeated            = apperr.Validation("reservation_not_seated", "The reservation is not seated.")
	ErrSeatingInProgress    = apperr.Conflict("seating_in_progress", "The reservation is being seated. Please retry.")
	ErrInvalidSearch        = apperr.Validation("invalid_search", "The mobile_number query must contain digits.")
	ErrReservationNotFound  = apperr.NotFound("reservation_not_found", "Reservation cannot be found.")
)

// NotFound は ID 入りの ErrReservationNotFound を返す
func NotFound(id int64) error {
	return ErrReservationNotFound.WithMessage("Reservation %d cannot be found.", id)
}
