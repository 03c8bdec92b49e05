package domain

import "time"

// Party is a supplier or customer record. The same id is shared with the
// user profile that registered it, which is the only link between the two.
type Party struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	TabdkNo   string    `json:"tabdkNo"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
}
