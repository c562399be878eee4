package booking

type ListBookingsQuery struct {
	From string `form:"from" validate:"required,day"`
	To   string `form:"to" validate:"required,day"`
}

type CreateBookingRequest struct {
	Day         string `json:"day" validate:"required,day"`
	StartMinute *int   `json:"start_minute" validate:"required"`
	EndMinute   *int   `json:"end_minute" validate:"required"`
	Note        string `json:"note" validate:"max=200"`
}

type ListBookingsResponse struct {
	Bookings []Booking `json:"bookings"`
}

type BookingResponse struct {
	Booking Booking `json:"booking"`
}
