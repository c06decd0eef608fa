package backend

import "slices"

// Groups are the muscle groups offered by the exercise form. Backends may
// return other free text groups, which are kept as is.
var Groups = []string{"chest", "back", "legs", "shoulders", "arms", "core", "cardio"}

func IsKnownGroup(group string) bool {
	return slices.Contains(Groups, group)
}

type User struct {
	ID        int
	Username  string
	Email     string
	Exercises []Exercise
}

type Exercise struct {
	ID    int
	Name  string
	Group string
	// Date is the calendar day of the exercise, formatted as YYYY-MM-DD.
	Date      string
	Completed bool
}

type Credentials struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type RegisterProfile struct {
	Username string   `json:"username" validate:"required"`
	Email    string   `json:"email" validate:"required,email"`
	Password string   `json:"password" validate:"required"`
	Weight   *float64 `json:"weight,omitempty" validate:"omitempty,gt=0"`
	Height   *float64 `json:"height,omitempty" validate:"omitempty,gt=0"`
	Age      *int     `json:"age,omitempty" validate:"omitempty,gt=0"`
}

type ExerciseFields struct {
	Name  string `json:"name" validate:"required"`
	Group string `json:"group" validate:"required"`
	Date  string `json:"date" validate:"required,datetime=2006-01-02"`
}

type LoginResult struct {
	Message string
	Token   string
	// Session holds the cookies the backend set on login. They are relayed to the browser unchanged.
	Session Session
}

type DayCount struct {
	Date  string
	Count int
}

type GroupCount struct {
	Group string
	Count int
}

type Stats struct {
	Total    int
	PerDay   []DayCount
	PerGroup []GroupCount
}
