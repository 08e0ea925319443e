package identity

import (
	"time"

	id "bridges/pkg/domain"
)

// Account is the persisted identity record. Counters are not stored here;
// they live in the counter ledger and are joined in by Profile.
type Account struct {
	ID        id.UserID
	Username  string
	IsPrivate bool
	CreatedAt time.Time
}

// Profile is the public view of an identity with its denormalized counters.
type Profile struct {
	ID             id.UserID `json:"id"`
	Username       string    `json:"username"`
	IsPrivate      bool      `json:"isPrivate"`
	FollowersCount int64     `json:"followersCount"`
	FollowingCount int64     `json:"followingCount"`
	ContentCount   int64     `json:"contentCount"`
	CreatedAt      time.Time `json:"createdAt"`
}
