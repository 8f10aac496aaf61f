package songkick

// Songkick API response types.

// calendarResponse is the top-level response from the metro calendar.
type calendarResponse struct {
	ResultsPage resultsPage `json:"resultsPage"`
}

type resultsPage struct {
	Results results `json:"results"`
	Status  string  `json:"status"`
}

type results struct {
	Event []apiEvent `json:"event"`
}

type apiEvent struct {
	DisplayName string           `json:"displayName"`
	URI         string           `json:"uri"`
	Start       startBlock       `json:"start"`
	Venue       apiVenue         `json:"venue"`
	Performance []apiPerformance `json:"performance"`
}

type startBlock struct {
	Date     string `json:"date"`
	Datetime string `json:"datetime"`
}

type apiVenue struct {
	DisplayName string `json:"displayName"`
}

type apiPerformance struct {
	DisplayName string `json:"displayName"`
	Billing     string `json:"billing"`
}
