package ticketmaster

// Ticketmaster Discovery v2 response types.

// eventsResponse is the top-level response from /events.
type eventsResponse struct {
	Embedded embeddedEvents `json:"_embedded"`
}

type embeddedEvents struct {
	Events []apiEvent `json:"events"`
}

type apiEvent struct {
	Name     string         `json:"name"`
	URL      string         `json:"url"`
	Dates    eventDates     `json:"dates"`
	Embedded embeddedVenues `json:"_embedded"`
}

type eventDates struct {
	Start startDates `json:"start"`
}

type startDates struct {
	LocalDate string `json:"localDate"`
	LocalTime string `json:"localTime"`
	DateTime  string `json:"dateTime"`
}

type embeddedVenues struct {
	Venues []apiVenue `json:"venues"`
}

type apiVenue struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}
