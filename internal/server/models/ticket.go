package models

import "time"

const TicketStatusOpen = "open"

type Ticket struct {
	ID         string
	FromUserID string
	Category   string
	Subject    string
	Body       string
	Email      string
	Status     string
	CreatedAt  time.Time
}
