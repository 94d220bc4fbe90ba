package user

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Activity points granted per action.
const (
	ActivityPost    = 5
	ActivityComment = 2
	ActivityReply   = 1
	ActivityLike    = 1
)

// levelThresholds[i] is the activity needed to reach level i+1.
var levelThresholds = []int{0, 20, 50, 100, 200, 500, 1000}

type User struct {
	Username string `json:"username"`
	Password []byte `json:"-"`
	Id       string `json:"id"`
	Role     string `json:"role"`
	Banned   bool   `json:"banned"`
	Activity int    `json:"activity"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

func (u *User) Level() int {
	return Level(u.Activity)
}

func Level(activity int) int {
	lvl := 1
	for i, need := range levelThresholds {
		if activity >= need {
			lvl = i + 1
		}
	}
	return lvl
}

// Profile is the public view of a user.
type Profile struct {
	Id       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	Activity int    `json:"activity"`
	Level    int    `json:"level"`
}

func (u *User) Profile() Profile {
	return Profile{
		Id:       u.Id,
		Username: u.Username,
		Role:     u.Role,
		Activity: u.Activity,
		Level:    u.Level(),
	}
}

type UserFromToken struct {
	Username string `json:"username"`
	Id       string `json:"id"`
	Role     string `json:"role"`
}
