package model

import (
	"time"
)

// HelpRequest is an open community-helper request a user can accept or
// decline for ResQ coins.
type HelpRequest struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Situation string    `db:"situation" json:"situation"`
	Location  string    `db:"location" json:"location"`
	Reward    int       `db:"reward" json:"reward"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// HelperStats is a user's accumulated community-helper standing.
type HelperStats struct {
	UserID       string `db:"user_id" json:"user_id"`
	Coins        int    `db:"coins" json:"coins"`
	TotalAssists int    `db:"total_assists" json:"total_assists"`
	Tier         string `db:"-" json:"tier"`
}
