package domain

type User struct {
	ID             string   `json:"_id" bson:"_id"`
	Username       string   `json:"Username" bson:"Username"`
	Password       string   `json:"Password,omitempty" bson:"Password"` // bcrypt hash, cleared before responses
	Email          string   `json:"Email" bson:"Email"`
	Birthday       string   `json:"Birthday,omitempty" bson:"Birthday,omitempty"`
	FavoriteMovies []string `json:"FavoriteMovies" bson:"FavoriteMovies"`
}

// Sanitized returns a copy without the password hash.
func (u *User) Sanitized() *User {
	c := u.Clone()
	c.Password = ""
	return c
}

func (u *User) Clone() *User {
	c := *u
	c.FavoriteMovies = append([]string{}, u.FavoriteMovies...)
	return &c
}

func (u *User) HasFavorite(movieID string) bool {
	for _, id := range u.FavoriteMovies {
		if id == movieID {
			return true
		}
	}
	return false
}

// UserProfile is the read view of a user with favorites resolved into catalog entries.
type UserProfile struct {
	ID             string   `json:"_id"`
	Username       string   `json:"Username"`
	Email          string   `json:"Email"`
	Birthday       string   `json:"Birthday,omitempty"`
	FavoriteMovies []*Movie `json:"FavoriteMovies"`
}

// Profile builds the read view from catalog, keeping the order of u.FavoriteMovies.
// Ids missing from catalog are dropped.
func (u *User) Profile(catalog map[string]*Movie) *UserProfile {
	favorites := make([]*Movie, 0, len(u.FavoriteMovies))
	for _, id := range u.FavoriteMovies {
		if m, ok := catalog[id]; ok {
			favorites = append(favorites, m)
		}
	}
	return &UserProfile{
		ID:             u.ID,
		Username:       u.Username,
		Email:          u.Email,
		Birthday:       u.Birthday,
		FavoriteMovies: favorites,
	}
}

// UserRequest is the body of registration and full profile updates.
type UserRequest struct {
	Username string `json:"Username" validate:"required,min=5,alphanum"`
	Password string `json:"Password" validate:"required"`
	Email    string `json:"Email" validate:"required,email"`
	Birthday string `json:"Birthday" validate:"omitempty,datetime=2006-01-02"`
}

type LoginRequest struct {
	Username string `json:"Username"`
	Password string `json:"Password"`
}

type LoginResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type FavoritesPayload struct {
	Username       string   `json:"Username"`
	FavoriteMovies []string `json:"FavoriteMovies"`
}
