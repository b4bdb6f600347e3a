package domain

import "time"

// User is identified by its Telegram id; there is no separate surrogate key.
type User struct {
	TgID             int64
	Username         string
	RegistrationDate time.Time
}
