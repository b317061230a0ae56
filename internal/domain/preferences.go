package domain

import "time"

const DateLayout = "2006-01-02"

// Preferences is everything a session persists locally: the access token and
// the canteen and order date picked before browsing menus. The cart itself is
// never persisted.
type Preferences struct {
	Token        string
	CanteenID    int64
	SelectedDate time.Time

	UpdatedAt time.Time
}

func (p Preferences) HasToken() bool {
	return p.Token != ""
}

func (p Preferences) HasCanteen() bool {
	return p.CanteenID > 0
}

func (p Preferences) HasDate() bool {
	return !p.SelectedDate.IsZero()
}

// OrderDate formats SelectedDate the way the backend expects it.
func (p Preferences) OrderDate() string {
	if p.SelectedDate.IsZero() {
		return ""
	}
	return p.SelectedDate.Format(DateLayout)
}

func ParseOrderDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}
