package models

// TokenTypeBearer is the token_type returned with every issued token.
const TokenTypeBearer = "bearer"

// User represents a user in the database.
type User struct {
	ID           int64  `db:"id" json:"id"`
	Username     string `db:"username" json:"username"`
	Email        string `db:"email" json:"email"`
	PasswordHash string `db:"password_hash" json:"-"`
}

// OwnerID reports the user itself as owner, so self-only operations can share
// the ownership guard with tasks.
func (u User) OwnerID() int64 {
	return u.ID
}

// RegisterRequest defines the structure for a user registration request.
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=1,max=64"`
	Email    string `json:"email" binding:"required,email,max=128"`
	Password string `json:"password" binding:"required,max=72"`
}

// LoginRequest defines the structure for a user login request. It binds from
// either a form body or JSON.
type LoginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

// RefreshRequest carries the refresh token used to mint a new access token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// TokenPair is returned by login and refresh. RefreshToken is empty on refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

// UpdateUserRequest is a partial update; nil fields are left unchanged.
type UpdateUserRequest struct {
	Username *string `json:"username" binding:"omitempty,min=1,max=64"`
	Email    *string `json:"email" binding:"omitempty,email,max=128"`
	Password *string `json:"password" binding:"omitempty,min=1,max=72"`
}

// UpdateUserResponse defines the structure for a successful user update.
type UpdateUserResponse struct {
	Message string `json:"message"`
	User    *User  `json:"user"`
}

// UserPatch holds the mutable user columns. The password arrives already hashed.
type UserPatch struct {
	Username     *string
	Email        *string
	PasswordHash *string
}

// ApplyTo copies every set field of p onto u.
func (p UserPatch) ApplyTo(u *User) {
	if p.Username != nil {
		u.Username = *p.Username
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.PasswordHash != nil {
		u.PasswordHash = *p.PasswordHash
	}
}
