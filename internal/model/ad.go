package model

import "time"

// Ad is a classified listing created by a registered user.
//
// Price is stored in cents (int64) to avoid floating point money.
// PhotoPath is optional, same storage scheme as User.PhotoPath.
type Ad struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       int64     `json:"price"` // cents
	PhotoPath   string    `json:"photoPath,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
