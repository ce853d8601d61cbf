package domain

import "encoding/json"

// User is the identity resolved from the backend profile endpoint.
type User struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	Username       string `json:"username,omitempty"`
	ProfilePicture string `json:"profilePicture,omitempty"`
	IsAdmin        bool   `json:"isAdmin"`
	Department     string `json:"department,omitempty"`
	Points         int    `json:"points,omitempty"`
}

// UnmarshalJSON accepts both "id" and the backend's "_id" field.
func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(u)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if u.ID == "" {
		u.ID = aux.MongoID
	}
	return nil
}

// Role reports the navigation role of u. A nil user is anonymous.
func (u *User) Role() Role {
	switch {
	case u == nil:
		return RoleAnonymous
	case u.IsAdmin:
		return RoleAdmin
	default:
		return RoleUser
	}
}

// Clone returns an independent copy of u.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}

// AuthResult is the body returned by the login and register endpoints.
// The embedded user is informational only.
type AuthResult struct {
	Token string `json:"token"`
	User  *User  `json:"user,omitempty"`
}

// ProfileUpdate carries the multipart fields of a profile edit.
type ProfileUpdate struct {
	Name        string
	Username    string
	PictureName string
	Picture     []byte
}

// Validate checks the fields the profile form requires.
func (p ProfileUpdate) Validate() error {
	if p.Name == "" {
		return WrapRequiredField("name")
	}
	if len(p.Picture) > 0 && p.PictureName == "" {
		return WrapValidationError("profilePicture", nil)
	}
	return nil
}
