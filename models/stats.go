package models

// DashboardStats aggregates marketplace counters for administrators
type DashboardStats struct {
	Users    UserStats    `json:"users"`
	Services ServiceStats `json:"services"`
	Bookings BookingStats `json:"bookings"`
	Payments PaymentStats `json:"payments"`
}

type UserStats struct {
	Total     int `json:"total"`
	Clients   int `json:"clients"`
	Providers int `json:"providers"`
	Admins    int `json:"admins"`
}

type ServiceStats struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

type BookingStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Completed int `json:"completed"`
	Cancelled int `json:"cancelled"`
}

type PaymentStats struct {
	PaidBookings int     `json:"paid_bookings"`
	TotalRevenue float64 `json:"total_revenue"`
}
