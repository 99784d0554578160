package model

import "time"

const UserTableName = "users"

const (
	UserStatusOnline  = "online"
	UserStatusOffline = "offline"
)

type User struct {
	UserID   string `bson:"user_id" json:"user_id"`
	Email    string `bson:"email" json:"email"`
	Username string `bson:"username" json:"username"`
	Avatar   string `bson:"avatar,omitempty" json:"avatar,omitempty"`

	Status         string     `bson:"status" json:"status"` // online/offline
	StatusMessage  string     `bson:"status_message,omitempty" json:"status_message,omitempty"`
	LastConnection *time.Time `bson:"last_connection,omitempty" json:"last_connection,omitempty"`

	// Users this user has blocked; checked both directions before a direct send.
	BlockedUsers []string `bson:"blocked_users,omitempty" json:"blocked_users,omitempty"`

	CreateTime time.Time `bson:"create_time" json:"create_time"`
	UpdateTime time.Time `bson:"update_time" json:"update_time"`
}

func (*User) TableName() string { return UserTableName }

// HasBlocked reports whether this user has blocked the given user id.
func (u *User) HasBlocked(userID string) bool {
	for _, id := range u.BlockedUsers {
		if id == userID {
			return true
		}
	}
	return false
}
