package domain

type UserProfile struct {
	Typename    string `json:"__typename,omitempty"`
	ID          string `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	FirstName   string `json:"firstName,omitempty"`
	LastName    string `json:"lastName,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	CreatedAt   string `json:"createdAt,omitempty"`
	// Token is only returned by updateUserProfile.
	Token string `json:"token,omitempty"`
}

// ProfileInput is the UpdateUserInput of updateUserProfile. Usernames never
// change, so there is no field for one.
type ProfileInput struct {
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	PhoneNumber     string `json:"phoneNumber"`
	Password        string `json:"password,omitempty"`
	ConfirmPassword string `json:"confirmPassword,omitempty"`
}

// AuthPayload is what login and register return.
type AuthPayload struct {
	Typename string `json:"__typename,omitempty"`
	ID       string `json:"id"`
	Email    string `json:"email"`
	Token    string `json:"token"`
	Username string `json:"username"`
}

type RegisterInput struct {
	Username        string `json:"username"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
	FirstName       string `json:"firstName,omitempty"`
	LastName        string `json:"lastName,omitempty"`
	PhoneNumber     string `json:"phoneNumber,omitempty"`
}

type RemoveUserResult struct {
	Typename string `json:"__typename,omitempty"`
	ID       string `json:"id"`
	Message  string `json:"message"`
}
