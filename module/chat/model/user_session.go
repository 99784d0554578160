package model

import "time"

const UserSessionTableName = "user_sessions"

const (
	SessionStatusOnline  = "online"
	SessionStatusOffline = "offline"
	SessionStatusKicked  = "kicked"
	SessionStatusExpired = "expired"
)

// UserSession is the durable session record behind a bearer token. The
// gateway locates it by token hash; revoking it must also terminate the
// live connection tied to the token.
type UserSession struct {
	SessionID string `bson:"session_id" json:"session_id"` // UUID
	UserID    string `bson:"user_id" json:"user_id"`

	DeviceType string `bson:"device_type,omitempty" json:"device_type,omitempty"` // web/ios/android/pc
	IP         string `bson:"ip,omitempty" json:"ip,omitempty"`
	UserAgent  string `bson:"user_agent,omitempty" json:"user_agent,omitempty"`

	AccessTokenHash string `bson:"access_token_hash" json:"access_token_hash"`
	IsValid         bool   `bson:"is_valid" json:"is_valid"`
	Status          string `bson:"status" json:"status"`
	Reason          string `bson:"reason,omitempty" json:"reason,omitempty"`

	LoginTime  time.Time  `bson:"login_time" json:"login_time"`
	LastActive time.Time  `bson:"last_active" json:"last_active"`
	ExpireAt   time.Time  `bson:"expire_at" json:"expire_at"` // TTL index
	LogoutTime *time.Time `bson:"logout_time,omitempty" json:"logout_time,omitempty"`

	CreateTime time.Time `bson:"create_time" json:"create_time"`
	UpdateTime time.Time `bson:"update_time" json:"update_time"`
}

func (*UserSession) TableName() string { return UserSessionTableName }
