package model

import "time"

const GroupTableName = "groups"

const (
	RoleCreator   = "creator"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
	RoleMember    = "member"
)

type GroupMember struct {
	UserID   string    `bson:"user_id" json:"user_id"`
	Role     string    `bson:"role" json:"role"`
	JoinedAt time.Time `bson:"joined_at" json:"joined_at"`
	AddedBy  string    `bson:"added_by,omitempty" json:"added_by,omitempty"`
}

type GroupSettings struct {
	OnlyAdminsCanPost     bool `bson:"only_admins_can_post" json:"only_admins_can_post"`
	OnlyAdminsCanEditInfo bool `bson:"only_admins_can_edit_info" json:"only_admins_can_edit_info"`
}

type Group struct {
	GroupID     string `bson:"group_id" json:"group_id"`
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Avatar      string `bson:"avatar,omitempty" json:"avatar,omitempty"`
	CreatorID   string `bson:"creator_id" json:"creator_id"`

	Members       []GroupMember `bson:"members" json:"members"`
	LastMessageID string        `bson:"last_message_id,omitempty" json:"last_message_id,omitempty"`
	Settings      GroupSettings `bson:"settings" json:"settings"`
	IsActive      bool          `bson:"is_active" json:"is_active"`

	CreateTime time.Time `bson:"create_time" json:"create_time"`
	UpdateTime time.Time `bson:"update_time" json:"update_time"`
}

func (*Group) TableName() string { return GroupTableName }

func (g *Group) IsMember(userID string) bool {
	for _, m := range g.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

func (g *Group) MemberRole(userID string) string {
	for _, m := range g.Members {
		if m.UserID == userID {
			return m.Role
		}
	}
	return ""
}

// CanModerate reports whether the user holds a moderator-or-higher role.
func (g *Group) CanModerate(userID string) bool {
	switch g.MemberRole(userID) {
	case RoleCreator, RoleAdmin, RoleModerator:
		return true
	}
	return false
}

// CanPost applies settings.only_admins_can_post.
func (g *Group) CanPost(userID string) bool {
	if !g.Settings.OnlyAdminsCanPost {
		return g.IsMember(userID)
	}
	return g.CanModerate(userID)
}
