package seatgeek

// SeatGeek API response types.

// eventsResponse is the top-level response from /events.
type eventsResponse struct {
	Events []apiEvent `json:"events"`
}

type apiEvent struct {
	Title         string         `json:"title"`
	URL           string         `json:"url"`
	DatetimeLocal string         `json:"datetime_local"`
	DatetimeUTC   string         `json:"datetime_utc"`
	Venue         apiVenue       `json:"venue"`
	Performers    []apiPerformer `json:"performers"`
}

type apiVenue struct {
	Name string `json:"name"`
	City string `json:"city"`
}

type apiPerformer struct {
	Name    string `json:"name"`
	Primary bool   `json:"primary"`
}
