package models

import "time"

// UserRecord maps a Telegram identity to stored Google credentials and the
// user's spreadsheet. Credentials are an opaque blob; nothing outside the
// sheets adapter inspects their contents.
type UserRecord struct {
	TelegramID    int64     `bson:"telegram_id" json:"telegram_id"`
	Credentials   []byte    `bson:"credentials,omitempty" json:"-"`
	SpreadsheetID string    `bson:"spreadsheet_id,omitempty" json:"spreadsheet_id,omitempty"`
	Authenticated bool      `bson:"authenticated" json:"authenticated"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

// Ready reports whether the user has completed the authorization flow and has
// a ledger to write into.
func (u *UserRecord) Ready() bool {
	return u != nil && u.Authenticated && len(u.Credentials) > 0 && u.SpreadsheetID != ""
}
