package sessions

import "time"

// Session is a refresh session of a dashboard client. Sub is an opaque
// anonymous subject; Admin records whether the admin capability was granted.
type Session struct {
	ID           string    `bson:"_id,omitempty" json:"id"`
	RefreshToken string    `bson:"refreshToken" json:"refreshToken"`
	Sub          string    `bson:"sub" json:"sub"`
	Admin        bool      `bson:"admin" json:"admin"`
	ExpiresAt    time.Time `bson:"expiresAt" json:"expiresAt"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

func (s *Session) expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}
